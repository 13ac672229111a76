package retriever

import (
	"context"

	"github.com/w-h-a/assistant/extractor"
	"github.com/w-h-a/assistant/searcher"
)

// Result is a search hit, with the extracted page when one was attempted.
type Result struct {
	searcher.Hit
	Extraction *extractor.Page
}

// Retriever gathers web content. It degrades to empty results instead of
// returning errors.
type Retriever interface {
	Search(ctx context.Context, query string) []searcher.Hit
	Extract(ctx context.Context, url string, maxLength int) extractor.Page
	SearchAndExtract(ctx context.Context, query string, maxExtractions int, maxContentLength int) []Result
}
