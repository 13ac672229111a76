package memory

import (
	"context"

	"github.com/w-h-a/assistant/memory_manager/providers/storer"
)

type registryKey struct{}

func WithRegistry(registry *Registry) storer.Option {
	return func(o *storer.Options) {
		o.Context = context.WithValue(o.Context, registryKey{}, registry)
	}
}

func RegistryFrom(ctx context.Context) (*Registry, bool) {
	registry, ok := ctx.Value(registryKey{}).(*Registry)
	return registry, ok
}
