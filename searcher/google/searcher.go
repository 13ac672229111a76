package google

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/w-h-a/assistant/searcher"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// maxNum is the largest page the custom search api serves.
const maxNum = 10

type googleSearcher struct {
	options  searcher.Options
	engineId string
	service  *customsearch.Service
}

func (s *googleSearcher) Search(ctx context.Context, query string, limit int) ([]searcher.Hit, error) {
	if s.service == nil || len(s.engineId) == 0 {
		return nil, searcher.ErrMissingCredentials
	}

	if limit < 1 {
		return nil, nil
	}

	num := limit
	if num > maxNum {
		num = maxNum
	}

	ctx, cancel := context.WithTimeout(ctx, s.options.Timeout)
	defer cancel()

	rsp, err := s.service.Cse.List().
		Cx(s.engineId).
		Q(query).
		Num(int64(num)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("google custom search: %w", err)
	}

	hits := make([]searcher.Hit, 0, len(rsp.Items))

	for _, item := range rsp.Items {
		title := item.Title
		if len(title) == 0 {
			title = "No title available"
		}

		snippet := item.Snippet
		if len(snippet) == 0 {
			snippet = "No description available"
		}

		source := item.DisplayLink
		if len(source) == 0 {
			source = searcher.SourceOf(item.Link)
		}

		hits = append(hits, searcher.Hit{
			Title:   title,
			Snippet: snippet,
			Url:     item.Link,
			Source:  source,
		})
	}

	return searcher.Cap(hits, limit), nil
}

func NewSearcher(opts ...searcher.Option) searcher.Searcher {
	options := searcher.NewOptions(opts...)

	s := &googleSearcher{
		options: options,
	}

	s.engineId, _ = EngineIdFrom(options.Context)

	if len(options.ApiKey) == 0 {
		return s
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(options.ApiKey)}
	if len(options.Endpoint) > 0 {
		clientOpts = append(clientOpts, option.WithEndpoint(options.Endpoint))
	}

	service, err := customsearch.NewService(context.Background(), clientOpts...)
	if err != nil {
		detail := "failed to create google custom search service"
		slog.ErrorContext(context.Background(), detail, "error", err)
		panic(detail)
	}

	s.service = service

	return s
}
