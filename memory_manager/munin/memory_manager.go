package munin

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	memorymanager "github.com/w-h-a/assistant/memory_manager"
	"github.com/w-h-a/assistant/memory_manager/providers/storer"
)

type muninMemoryManager struct {
	options   memorymanager.Options
	connected bool
	mtx       sync.Mutex
}

func (m *muninMemoryManager) Store(ctx context.Context, text string, role string) bool {
	ctx, cancel := context.WithTimeout(ctx, m.options.Timeout)
	defer cancel()

	if err := m.connect(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to connect memory store", "error", err)
		return false
	}

	vec, err := m.options.Embedder.Embed(ctx, text)
	if err != nil {
		m.disconnect()
		slog.ErrorContext(ctx, "failed to embed memory", "role", role, "error", err)
		return false
	}

	now := time.Now().UTC()

	rec := storer.Record{
		Id:      memorymanager.RecordId(role, now),
		Content: text,
		Metadata: map[string]string{
			memorymanager.MetaRole:      role,
			memorymanager.MetaTimestamp: now.Format(time.RFC3339Nano),
		},
		Embedding: vec,
		CreatedAt: now,
	}

	if err := m.options.Storer.Upsert(ctx, rec); err != nil {
		m.disconnect()
		slog.ErrorContext(ctx, "failed to store memory", "id", rec.Id, "error", err)
		return false
	}

	return true
}

func (m *muninMemoryManager) Retrieve(ctx context.Context, query string, opts ...memorymanager.RetrieveOption) string {
	options := memorymanager.NewRetrieveOptions(opts...)

	if len(strings.TrimSpace(query)) == 0 {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, m.options.Timeout)
	defer cancel()

	limit := options.Limit
	if limit <= 0 {
		limit = m.options.Limit
	}

	if err := m.connect(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to connect memory store", "error", err)
		return ""
	}

	ids, err := m.options.Storer.Ids(ctx)
	if err != nil {
		m.disconnect()
		slog.ErrorContext(ctx, "failed to list memories", "error", err)
		return ""
	}

	if len(ids) == 0 {
		return ""
	}

	vec, err := m.options.Embedder.Embed(ctx, query)
	if err != nil {
		m.disconnect()
		slog.ErrorContext(ctx, "failed to embed memory query", "error", err)
		return ""
	}

	candidates, err := m.options.Storer.Query(ctx, vec, limit, options.Filter)
	if err != nil {
		m.disconnect()
		slog.ErrorContext(ctx, "failed to query memories", "error", err)
		return ""
	}

	return memorymanager.Format(memorymanager.Relevant(candidates, m.options.Threshold))
}

// connect reuses the collection when it exists and creates it otherwise.
func (m *muninMemoryManager) connect(ctx context.Context) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.connected {
		return nil
	}

	names, err := m.options.Storer.Collections(ctx)
	if err != nil {
		return err
	}

	if !slices.Contains(names, m.options.Storer.Options().Collection) {
		if err := m.options.Storer.CreateCollection(ctx); err != nil {
			return err
		}
	}

	m.connected = true

	return nil
}

func (m *muninMemoryManager) disconnect() {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.connected = false
}

func NewMemoryManager(opts ...memorymanager.Option) memorymanager.MemoryManager {
	options := memorymanager.NewOptions(opts...)

	if options.Storer == nil {
		panic("storer is required")
	}

	if options.Embedder == nil {
		panic("embedder is required")
	}

	if options.Timeout <= 0 {
		options.Timeout = memorymanager.DefaultTimeout
	}

	return &muninMemoryManager{
		options: options,
	}
}
