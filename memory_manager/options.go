package memorymanager

import (
	"context"
	"time"

	"github.com/w-h-a/assistant/memory_manager/providers/embedder"
	"github.com/w-h-a/assistant/memory_manager/providers/storer"
)

type Option func(*Options)

type Options struct {
	Storer   storer.Storer
	Embedder embedder.Embedder
	// Threshold is the largest cosine distance a memory may have and still
	// be used.
	Threshold float64
	Limit     int
	// Timeout bounds each Store and Retrieve, embedding and storer calls
	// included.
	Timeout time.Duration
	Context context.Context
}

const DefaultTimeout = 10 * time.Second

func WithStorer(storer storer.Storer) Option {
	return func(o *Options) {
		o.Storer = storer
	}
}

func WithEmbedder(embedder embedder.Embedder) Option {
	return func(o *Options) {
		o.Embedder = embedder
	}
}

func WithThreshold(threshold float64) Option {
	return func(o *Options) {
		o.Threshold = threshold
	}
}

func WithLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Threshold: 0.4,
		Limit:     8,
		Timeout:   DefaultTimeout,
		Context:   context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

type RetrieveOption func(*RetrieveOptions)

type RetrieveOptions struct {
	Limit   int
	Filter  map[string]string
	Context context.Context
}

func WithRetrieveLimit(limit int) RetrieveOption {
	return func(o *RetrieveOptions) {
		o.Limit = limit
	}
}

func WithRetrieveFilter(filter map[string]string) RetrieveOption {
	return func(o *RetrieveOptions) {
		o.Filter = filter
	}
}

func NewRetrieveOptions(opts ...RetrieveOption) RetrieveOptions {
	options := RetrieveOptions{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
