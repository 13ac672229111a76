package searcher

import (
	"context"
	"errors"
)

var ErrMissingCredentials = errors.New("search credentials are not configured")

// Hit is one ranked search result.
type Hit struct {
	Title   string
	Snippet string
	Url     string
	Source  string
}

type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
}
