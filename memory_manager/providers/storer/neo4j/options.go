package neo4j

import (
	"context"

	"github.com/w-h-a/assistant/memory_manager/providers/storer"
)

type basicAuthKey struct{}

type basicAuth struct {
	username string
	password string
}

func WithBasicAuth(username, password string) storer.Option {
	return func(o *storer.Options) {
		o.Context = context.WithValue(o.Context, basicAuthKey{}, basicAuth{username, password})
	}
}

func basicAuthFrom(ctx context.Context) (basicAuth, bool) {
	auth, ok := ctx.Value(basicAuthKey{}).(basicAuth)
	return auth, ok
}
