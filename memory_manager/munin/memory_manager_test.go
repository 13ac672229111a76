package munin

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	memorymanager "github.com/w-h-a/assistant/memory_manager"
	"github.com/w-h-a/assistant/memory_manager/providers/storer"
	"github.com/w-h-a/assistant/memory_manager/providers/storer/memory"
)

type fakeEmbedder struct {
	vectors   map[string][]float32
	err       error
	hang      string
	calls     int
	deadlines []time.Duration
	mtx       sync.Mutex
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == f.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.calls++
	if deadline, ok := ctx.Deadline(); ok {
		f.deadlines = append(f.deadlines, time.Until(deadline))
	} else {
		f.deadlines = append(f.deadlines, 0)
	}
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

type countingStorer struct {
	storer.Storer
	collectionsCalls int
	createCalls      int
	upsertErr        error
}

func (c *countingStorer) Collections(ctx context.Context) ([]string, error) {
	c.collectionsCalls++
	return c.Storer.Collections(ctx)
}

func (c *countingStorer) CreateCollection(ctx context.Context) error {
	c.createCalls++
	return c.Storer.CreateCollection(ctx)
}

func (c *countingStorer) Upsert(ctx context.Context, rec storer.Record) error {
	if c.upsertErr != nil {
		return c.upsertErr
	}
	return c.Storer.Upsert(ctx, rec)
}

func newManager(emb *fakeEmbedder) (memorymanager.MemoryManager, *countingStorer) {
	s := &countingStorer{Storer: memory.NewStorer(memory.WithRegistry(memory.NewRegistry()))}
	return NewMemoryManager(memorymanager.WithStorer(s), memorymanager.WithEmbedder(emb)), s
}

func TestRetrieveExactMatchReturnsSingleEntry(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{vectors: map[string][]float32{"I like Go": {1, 0, 0}}}
	m, _ := newManager(emb)

	require.True(t, m.Store(ctx, "I like Go", "user"))

	got := m.Retrieve(ctx, "I like Go")

	assert.True(t, strings.HasPrefix(got, "[user at "))
	assert.True(t, strings.HasSuffix(got, "]: I like Go"))
	assert.NotContains(t, got, "\n\n")
}

func TestRetrieveDropsIrrelevantMemories(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"cats":  {1, 0, 0},
		"taxes": {0, 1, 0},
	}}
	m, _ := newManager(emb)

	require.True(t, m.Store(ctx, "taxes", "user"))

	assert.Equal(t, "", m.Retrieve(ctx, "cats"))
}

func TestRetrieveOrdersNearestFirst(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"near":  {1, 0.1, 0},
		"exact": {1, 0, 0},
		"query": {1, 0, 0},
	}}
	m, _ := newManager(emb)

	require.True(t, m.Store(ctx, "near", "user"))
	require.True(t, m.Store(ctx, "exact", "model"))

	entries := strings.Split(m.Retrieve(ctx, "query"), "\n\n")

	require.Len(t, entries, 2)
	assert.True(t, strings.HasSuffix(entries[0], "]: exact"))
	assert.True(t, strings.HasPrefix(entries[0], "[model at "))
	assert.True(t, strings.HasSuffix(entries[1], "]: near"))
}

func TestRetrieveFilterNarrowsCandidates(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"question": {1, 0, 0},
		"answer":   {1, 0, 0},
	}}
	m, _ := newManager(emb)

	require.True(t, m.Store(ctx, "question", "user"))
	require.True(t, m.Store(ctx, "answer", "model"))

	got := m.Retrieve(ctx, "question", memorymanager.WithRetrieveFilter(map[string]string{"role": "model"}))

	assert.True(t, strings.HasSuffix(got, "]: answer"))
	assert.NotContains(t, got, "question")
}

func TestRetrieveBlankQueryOrEmptyStore(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{}
	m, _ := newManager(emb)

	assert.Equal(t, "", m.Retrieve(ctx, "   "))
	assert.Equal(t, 0, emb.calls)

	assert.Equal(t, "", m.Retrieve(ctx, "anything"))
	assert.Equal(t, 0, emb.calls)
}

func TestConnectReusesExistingCollection(t *testing.T) {
	ctx := context.Background()
	registry := memory.NewRegistry()

	first := memory.NewStorer(memory.WithRegistry(registry))
	require.NoError(t, first.CreateCollection(ctx))

	s := &countingStorer{Storer: memory.NewStorer(memory.WithRegistry(registry))}
	m := NewMemoryManager(memorymanager.WithStorer(s), memorymanager.WithEmbedder(&fakeEmbedder{}))

	require.True(t, m.Store(ctx, "hello", "user"))
	require.True(t, m.Store(ctx, "again", "user"))

	assert.Equal(t, 0, s.createCalls)
	assert.Equal(t, 1, s.collectionsCalls)
}

func TestStoreFailureClearsConnection(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{}
	m, s := newManager(emb)

	s.upsertErr = errors.New("disk full")
	assert.False(t, m.Store(ctx, "hello", "user"))
	assert.Equal(t, 1, s.collectionsCalls)
	assert.Equal(t, 1, s.createCalls)

	s.upsertErr = nil
	assert.True(t, m.Store(ctx, "hello", "user"))
	assert.Equal(t, 2, s.collectionsCalls)
	assert.Equal(t, 1, s.createCalls)
}

func TestStoreEmbedFailure(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("quota")}
	m, _ := newManager(emb)

	assert.False(t, m.Store(context.Background(), "hello", "user"))
}

func TestNewMemoryManagerRequiresDependencies(t *testing.T) {
	assert.Panics(t, func() { NewMemoryManager(memorymanager.WithEmbedder(&fakeEmbedder{})) })
	assert.Panics(t, func() {
		NewMemoryManager(memorymanager.WithStorer(memory.NewStorer()))
	})
}

func TestOperationsCarryTimeout(t *testing.T) {
	emb := &fakeEmbedder{}
	s := memory.NewStorer(memory.WithRegistry(memory.NewRegistry()))
	m := NewMemoryManager(
		memorymanager.WithStorer(s),
		memorymanager.WithEmbedder(emb),
		memorymanager.WithTimeout(3*time.Second),
	)

	require.True(t, m.Store(context.Background(), "hello", "user"))
	m.Retrieve(context.Background(), "hello")

	require.Len(t, emb.deadlines, 2)
	for _, left := range emb.deadlines {
		assert.Greater(t, left, time.Duration(0))
		assert.LessOrEqual(t, left, 3*time.Second)
	}
}

func TestRetrieveGivesUpOnHungEmbedder(t *testing.T) {
	emb := &fakeEmbedder{hang: "stuck"}
	s := memory.NewStorer(memory.WithRegistry(memory.NewRegistry()))
	m := NewMemoryManager(
		memorymanager.WithStorer(s),
		memorymanager.WithEmbedder(emb),
		memorymanager.WithTimeout(50*time.Millisecond),
	)

	require.True(t, m.Store(context.Background(), "hello", "user"))

	start := time.Now()
	got := m.Retrieve(context.Background(), "stuck")

	assert.Empty(t, got)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestConnectUsesStorerCollection(t *testing.T) {
	ctx := context.Background()
	registry := memory.NewRegistry()

	s := &countingStorer{Storer: memory.NewStorer(
		storer.WithCollection("conversation"),
		memory.WithRegistry(registry),
	)}
	m := NewMemoryManager(memorymanager.WithStorer(s), memorymanager.WithEmbedder(&fakeEmbedder{}))

	require.True(t, m.Store(ctx, "hello", "user"))
	assert.Equal(t, 1, s.createCalls)

	names, err := s.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"conversation"}, names)

	other := &countingStorer{Storer: memory.NewStorer(
		storer.WithCollection("conversation"),
		memory.WithRegistry(registry),
	)}
	m = NewMemoryManager(memorymanager.WithStorer(other), memorymanager.WithEmbedder(&fakeEmbedder{}))

	require.True(t, m.Store(ctx, "again", "user"))
	assert.Equal(t, 0, other.createCalls)
}
