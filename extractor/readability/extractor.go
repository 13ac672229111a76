package readability

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/w-h-a/assistant/extractor"
)

type readabilityExtractor struct {
	options extractor.Options
	client  *http.Client
}

func (e *readabilityExtractor) Extract(ctx context.Context, link string, maxLength int) extractor.Page {
	body, err := extractor.Fetch(ctx, e.client, e.options, link)
	if err != nil {
		return extractor.Failed(link, err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), mustParseURL(link))
	if err != nil {
		return extractor.Failed(link, err)
	}

	text := extractor.Tidy(article.TextContent)
	if len(text) == 0 {
		return extractor.Failed(link, errors.New("no readable content found"))
	}

	return extractor.Page{
		Url:     link,
		Title:   strings.TrimSpace(article.Title),
		Content: extractor.Truncate(text, maxLength),
		Status:  extractor.StatusSuccess,
	}
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}

func NewExtractor(opts ...extractor.Option) extractor.Extractor {
	options := extractor.NewOptions(opts...)

	return &readabilityExtractor{
		options: options,
		client:  &http.Client{Timeout: options.Timeout},
	}
}
