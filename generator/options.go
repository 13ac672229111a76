package generator

import (
	"context"
	"time"
)

// DefaultTimeout bounds a single completion when the caller sets none.
const DefaultTimeout = 15 * time.Second

type Option func(*Options)

// Options configures a generator. Zero sampling values leave the
// provider's default in place.
type Options struct {
	ApiKey            string
	Model             string
	PromptPrefix      string
	SystemInstruction string
	MaxOutputTokens   int32
	Temperature       float32
	TopP              float32
	TopK              int32
	Context           context.Context
}

func WithApiKey(apiKey string) Option {
	return func(o *Options) {
		o.ApiKey = apiKey
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithPromptPrefix(prefix string) Option {
	return func(o *Options) {
		o.PromptPrefix = prefix
	}
}

func WithSystemInstruction(instruction string) Option {
	return func(o *Options) {
		o.SystemInstruction = instruction
	}
}

func WithMaxOutputTokens(n int32) Option {
	return func(o *Options) {
		o.MaxOutputTokens = n
	}
}

func WithTemperature(t float32) Option {
	return func(o *Options) {
		o.Temperature = t
	}
}

func WithTopP(p float32) Option {
	return func(o *Options) {
		o.TopP = p
	}
}

func WithTopK(k int32) Option {
	return func(o *Options) {
		o.TopK = k
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// ApplyPrefix prepends the configured prompt prefix, if any.
func (o Options) ApplyPrefix(prompt string) string {
	if len(o.PromptPrefix) == 0 {
		return prompt
	}
	return o.PromptPrefix + "\n" + prompt
}
