package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/w-h-a/assistant/searcher"
)

const endpoint = "https://google.serper.dev/search"

type serperSearcher struct {
	options searcher.Options
	client  *http.Client
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func (s *serperSearcher) Search(ctx context.Context, query string, limit int) ([]searcher.Hit, error) {
	if len(s.options.ApiKey) == 0 {
		return nil, searcher.ErrMissingCredentials
	}

	if limit < 1 {
		return nil, nil
	}

	// https://serper.dev/ docs
	body, err := json.Marshal(map[string]any{"q": query, "num": limit})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.options.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("X-API-KEY", s.options.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	rsp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()

	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(rsp.Body, 1024))
		return nil, fmt.Errorf("serper http %d: %s", rsp.StatusCode, string(msg))
	}

	var raw serperResponse
	if err := json.NewDecoder(rsp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode serper response: %w", err)
	}

	hits := make([]searcher.Hit, 0, len(raw.Organic))
	for _, r := range raw.Organic {
		hits = append(hits, searcher.Hit{
			Title:   r.Title,
			Snippet: r.Snippet,
			Url:     r.Link,
			Source:  searcher.SourceOf(r.Link),
		})
	}

	return searcher.Cap(hits, limit), nil
}

func NewSearcher(opts ...searcher.Option) searcher.Searcher {
	options := searcher.NewOptions(opts...)

	if len(options.Endpoint) == 0 {
		options.Endpoint = endpoint
	}

	return &serperSearcher{
		options: options,
		client:  &http.Client{Timeout: options.Timeout},
	}
}
