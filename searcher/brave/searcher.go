package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/w-h-a/assistant/searcher"
)

const endpoint = "https://api.search.brave.com/res/v1/web/search"

type braveSearcher struct {
	options searcher.Options
	client  *http.Client
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			Url         string `json:"url"`
			Description string `json:"description"`
			MetaUrl     struct {
				Hostname string `json:"hostname"`
			} `json:"meta_url"`
		} `json:"results"`
	} `json:"web"`
}

func (s *braveSearcher) Search(ctx context.Context, query string, limit int) ([]searcher.Hit, error) {
	if len(s.options.ApiKey) == 0 {
		return nil, searcher.ErrMissingCredentials
	}

	if limit < 1 {
		return nil, nil
	}

	// https://api.search.brave.com/app/documentation/web-search
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.options.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", s.options.ApiKey)

	rsp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()

	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(rsp.Body, 1024))
		return nil, fmt.Errorf("brave http %d: %s", rsp.StatusCode, string(body))
	}

	var raw braveResponse
	if err := json.NewDecoder(rsp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode brave response: %w", err)
	}

	hits := make([]searcher.Hit, 0, len(raw.Web.Results))
	for _, r := range raw.Web.Results {
		source := r.MetaUrl.Hostname
		if len(source) == 0 {
			source = searcher.SourceOf(r.Url)
		}
		hits = append(hits, searcher.Hit{
			Title:   r.Title,
			Snippet: r.Description,
			Url:     r.Url,
			Source:  source,
		})
	}

	return searcher.Cap(hits, limit), nil
}

func NewSearcher(opts ...searcher.Option) searcher.Searcher {
	options := searcher.NewOptions(opts...)

	if len(options.Endpoint) == 0 {
		options.Endpoint = endpoint
	}

	return &braveSearcher{
		options: options,
		client:  &http.Client{Timeout: options.Timeout},
	}
}
