package extractor

import (
	"context"
	"time"
)

type Option func(*Options)

type Options struct {
	UserAgent string
	Timeout   time.Duration
	MaxBytes  int64
	Context   context.Context
}

func WithUserAgent(ua string) Option {
	return func(o *Options) {
		o.UserAgent = ua
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

// WithMaxBytes caps how much of a response body is read.
func WithMaxBytes(n int64) Option {
	return func(o *Options) {
		o.MaxBytes = n
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		UserAgent: "Mozilla/5.0 (compatible; AssistantBot/1.0; +https://github.com/w-h-a/assistant)",
		Timeout:   10 * time.Second,
		MaxBytes:  5 << 20,
		Context:   context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
