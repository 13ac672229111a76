package html

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/w-h-a/assistant/extractor"
	xhtml "golang.org/x/net/html"
)

// noise is removed before any text is read.
const noise = "script, style, nav, header, footer, aside, noscript, iframe, form"

// selectors are tried in order; the first with text wins.
var selectors = []string{
	"article",
	"main",
	"[role=main]",
	".post-content",
	".article-content",
	".entry-content",
	".content",
	"#content",
	"body",
}

type htmlExtractor struct {
	options extractor.Options
	client  *http.Client
}

func (e *htmlExtractor) Extract(ctx context.Context, url string, maxLength int) extractor.Page {
	body, err := extractor.Fetch(ctx, e.client, e.options, url)
	if err != nil {
		return extractor.Failed(url, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return extractor.Failed(url, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find(noise).Remove()

	text := ""
	for _, s := range selectors {
		sel := doc.Find(s).First()
		if sel.Length() == 0 {
			continue
		}
		if text = visibleText(sel); len(text) > 0 {
			break
		}
	}

	if len(text) == 0 {
		return extractor.Failed(url, errors.New("no readable content found"))
	}

	return extractor.Page{
		Url:     url,
		Title:   title,
		Content: extractor.Truncate(text, maxLength),
		Status:  extractor.StatusSuccess,
	}
}

// visibleText joins the text nodes under sel one per line.
func visibleText(sel *goquery.Selection) string {
	var sb strings.Builder

	var walk func(n *xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.TextNode {
			if t := strings.TrimSpace(n.Data); len(t) > 0 {
				sb.WriteString(t)
				sb.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range sel.Nodes {
		walk(n)
	}

	return extractor.Tidy(sb.String())
}

func NewExtractor(opts ...extractor.Option) extractor.Extractor {
	options := extractor.NewOptions(opts...)

	return &htmlExtractor{
		options: options,
		client:  &http.Client{Timeout: options.Timeout},
	}
}
