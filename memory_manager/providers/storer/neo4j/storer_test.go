package neo4j

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/assistant/memory_manager/providers/storer"
)

func TestFilterClause(t *testing.T) {
	where, params, err := filterClause(nil)
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, params)

	where, params, err = filterClause(map[string]string{"role": "user", "day": "mon"})
	require.NoError(t, err)
	assert.Equal(t, "WHERE node.meta_day = $f0 AND node.meta_role = $f1", where)
	assert.Equal(t, map[string]any{"f0": "mon", "f1": "user"}, params)

	_, _, err = filterClause(map[string]string{"role) DETACH DELETE (x": "user"})
	require.Error(t, err)
}

func TestScoreToDistance(t *testing.T) {
	assert.InDelta(t, 0.0, scoreToDistance(1.0), 1e-6)
	assert.InDelta(t, 1.0, scoreToDistance(0.5), 1e-6)
	assert.InDelta(t, 2.0, scoreToDistance(0.0), 1e-6)
}

func TestEmbeddingFrom(t *testing.T) {
	assert.Equal(t, []float32{1, 0.5}, embeddingFrom([]any{1.0, 0.5}))
	assert.Nil(t, embeddingFrom("nope"))
}

func TestBasicAuthOption(t *testing.T) {
	options := storer.NewOptions(WithBasicAuth("neo4j", "secret"))

	auth, ok := basicAuthFrom(options.Context)
	require.True(t, ok)
	assert.Equal(t, "neo4j", auth.username)

	_, ok = basicAuthFrom(context.Background())
	assert.False(t, ok)
}
