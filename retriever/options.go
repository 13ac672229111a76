package retriever

import (
	"context"

	"github.com/w-h-a/assistant/extractor"
	"github.com/w-h-a/assistant/searcher"
)

type Option func(*Options)

type Options struct {
	Searcher    searcher.Searcher
	Extractor   extractor.Extractor
	MaxResults  int
	Parallelism int
	Context     context.Context
}

func WithSearcher(s searcher.Searcher) Option {
	return func(o *Options) {
		o.Searcher = s
	}
}

func WithExtractor(e extractor.Extractor) Option {
	return func(o *Options) {
		o.Extractor = e
	}
}

// WithMaxResults caps the hits requested from the searcher.
func WithMaxResults(n int) Option {
	return func(o *Options) {
		o.MaxResults = n
	}
}

// WithParallelism caps concurrent extractions.
func WithParallelism(n int) Option {
	return func(o *Options) {
		o.Parallelism = n
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		MaxResults:  5,
		Parallelism: 3,
		Context:     context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
