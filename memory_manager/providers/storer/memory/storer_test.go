package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/assistant/memory_manager/providers/storer"
)

func TestCollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()

	s := NewStorer(storer.WithCollection("memory"), WithRegistry(registry))

	names, err := s.Collections(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = s.Ids(ctx)
	require.Error(t, err)

	require.NoError(t, s.CreateCollection(ctx))
	require.Error(t, s.CreateCollection(ctx))

	other := NewStorer(storer.WithCollection("memory"), WithRegistry(registry))
	names, err = other.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"memory"}, names)
}

func TestQueryOrdersByDistanceAndFilters(t *testing.T) {
	ctx := context.Background()
	s := NewStorer()
	require.NoError(t, s.CreateCollection(ctx))

	require.NoError(t, s.Upsert(ctx, storer.Record{Id: "a", Content: "a", Metadata: map[string]string{"role": "user"}, Embedding: []float32{1, 0}}))
	require.NoError(t, s.Upsert(ctx, storer.Record{Id: "b", Content: "b", Metadata: map[string]string{"role": "model"}, Embedding: []float32{0.9, 0.1}}))
	require.NoError(t, s.Upsert(ctx, storer.Record{Id: "c", Content: "c", Metadata: map[string]string{"role": "user"}, Embedding: []float32{0, 1}}))

	got, err := s.Query(ctx, []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Id)
	assert.Equal(t, "b", got[1].Id)
	assert.LessOrEqual(t, got[0].Distance, got[1].Distance)

	got, err = s.Query(ctx, []float32{1, 0}, 5, map[string]string{"role": "user"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Id)
	assert.Equal(t, "c", got[1].Id)

	ids, err := s.Ids(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
