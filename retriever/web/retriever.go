package web

import (
	"context"
	"errors"
	"log/slog"

	"github.com/w-h-a/assistant/extractor"
	"github.com/w-h-a/assistant/retriever"
	"github.com/w-h-a/assistant/searcher"
	"golang.org/x/sync/errgroup"
)

type webRetriever struct {
	options retriever.Options
}

func (r *webRetriever) Search(ctx context.Context, query string) []searcher.Hit {
	hits, err := r.options.Searcher.Search(ctx, query, r.options.MaxResults)
	if errors.Is(err, searcher.ErrMissingCredentials) {
		slog.WarnContext(ctx, "web search skipped", "error", err)
		return []searcher.Hit{}
	}
	if err != nil {
		slog.ErrorContext(ctx, "web search failed", "query", query, "error", err)
		return []searcher.Hit{}
	}
	if hits == nil {
		return []searcher.Hit{}
	}
	return hits
}

func (r *webRetriever) Extract(ctx context.Context, url string, maxLength int) extractor.Page {
	return r.options.Extractor.Extract(ctx, url, maxLength)
}

func (r *webRetriever) SearchAndExtract(ctx context.Context, query string, maxExtractions int, maxContentLength int) []retriever.Result {
	hits := r.Search(ctx, query)

	results := make([]retriever.Result, len(hits))
	for i, hit := range hits {
		results[i] = retriever.Result{Hit: hit}
	}

	if maxExtractions > len(results) {
		maxExtractions = len(results)
	}

	g := new(errgroup.Group)
	g.SetLimit(r.options.Parallelism)

	for i := 0; i < maxExtractions; i++ {
		g.Go(func() error {
			page := r.Extract(ctx, results[i].Url, maxContentLength)
			if page.Status != extractor.StatusSuccess {
				slog.WarnContext(ctx, "page extraction failed", "url", results[i].Url, "reason", page.Content)
			}
			results[i].Extraction = &page
			return nil
		})
	}

	g.Wait()

	return results
}

func NewRetriever(opts ...retriever.Option) retriever.Retriever {
	options := retriever.NewOptions(opts...)

	if options.Searcher == nil {
		panic("searcher is required")
	}

	if options.Extractor == nil {
		panic("extractor is required")
	}

	if options.Parallelism < 1 {
		options.Parallelism = 1
	}

	return &webRetriever{
		options: options,
	}
}
