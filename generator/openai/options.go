package openai

import (
	"context"

	"github.com/w-h-a/assistant/generator"
)

type baseURLKey struct{}

func WithBaseURL(url string) generator.Option {
	return func(o *generator.Options) {
		o.Context = context.WithValue(o.Context, baseURLKey{}, url)
	}
}

func BaseURLFrom(ctx context.Context) (string, bool) {
	url, ok := ctx.Value(baseURLKey{}).(string)
	return url, ok
}
