package storer

import "context"

// Storer is a vector index bound to one collection. Query results carry
// the cosine distance to the query vector, nearest first.
type Storer interface {
	Options() Options
	Collections(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context) error
	Upsert(ctx context.Context, rec Record) error
	Query(ctx context.Context, vector []float32, limit int, filter map[string]string) ([]Record, error)
	Ids(ctx context.Context) ([]string, error)
}
