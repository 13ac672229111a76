package http

import (
	"context"
	"net/http"

	"github.com/w-h-a/assistant/server"
)

type middlewareKey struct{}

// WithMiddleware wraps every request the server handles. The first
// middleware given runs first.
func WithMiddleware(ms ...func(h http.Handler) http.Handler) server.Option {
	return func(o *server.Options) {
		o.Context = context.WithValue(o.Context, middlewareKey{}, ms)
	}
}

// MiddlewareFrom returns the middleware set by WithMiddleware, if any.
func MiddlewareFrom(ctx context.Context) ([]func(h http.Handler) http.Handler, bool) {
	ms, ok := ctx.Value(middlewareKey{}).([]func(h http.Handler) http.Handler)
	return ms, ok
}
