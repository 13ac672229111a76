package google

import (
	"context"

	"github.com/w-h-a/assistant/searcher"
)

type engineIdKey struct{}

// WithEngineId sets the programmable search engine id (cx).
func WithEngineId(id string) searcher.Option {
	return func(o *searcher.Options) {
		o.Context = context.WithValue(o.Context, engineIdKey{}, id)
	}
}

func EngineIdFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(engineIdKey{}).(string)
	return id, ok && len(id) > 0
}
