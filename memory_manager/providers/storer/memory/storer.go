package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/w-h-a/assistant/memory_manager/providers/storer"
)

// memoryStorer keeps every collection in process. Collections are shared
// by all storers created with the same registry.
type memoryStorer struct {
	options  storer.Options
	registry *Registry
}

// Registry holds in-process collections.
type Registry struct {
	collections map[string]*collection
	mtx         sync.RWMutex
}

type collection struct {
	records map[string]storer.Record
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{
		collections: map[string]*collection{},
	}
}

func (s *memoryStorer) Options() storer.Options {
	return s.options
}

func (s *memoryStorer) Collections(ctx context.Context) ([]string, error) {
	s.registry.mtx.RLock()
	defer s.registry.mtx.RUnlock()

	names := slices.Collect(maps.Keys(s.registry.collections))
	slices.Sort(names)

	return names, nil
}

func (s *memoryStorer) CreateCollection(ctx context.Context) error {
	s.registry.mtx.Lock()
	defer s.registry.mtx.Unlock()

	if _, exists := s.registry.collections[s.options.Collection]; exists {
		return fmt.Errorf("collection %s already exists", s.options.Collection)
	}

	s.registry.collections[s.options.Collection] = &collection{
		records: map[string]storer.Record{},
	}

	return nil
}

func (s *memoryStorer) Upsert(ctx context.Context, rec storer.Record) error {
	s.registry.mtx.Lock()
	defer s.registry.mtx.Unlock()

	c, err := s.collection()
	if err != nil {
		return err
	}

	cpy := make([]float32, len(rec.Embedding))
	copy(cpy, rec.Embedding)
	rec.Embedding = cpy
	rec.Metadata = maps.Clone(rec.Metadata)

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	if _, exists := c.records[rec.Id]; !exists {
		c.order = append(c.order, rec.Id)
	}

	c.records[rec.Id] = rec

	return nil
}

func (s *memoryStorer) Query(ctx context.Context, vector []float32, limit int, filter map[string]string) ([]storer.Record, error) {
	if limit < 1 {
		return nil, nil
	}

	s.registry.mtx.RLock()
	defer s.registry.mtx.RUnlock()

	c, err := s.collection()
	if err != nil {
		return nil, err
	}

	candidates := make([]storer.Record, 0, len(c.records))

	for _, id := range c.order {
		rec := c.records[id]
		if !storer.Matches(rec.Metadata, filter) {
			continue
		}
		candidates = append(candidates, rec)
	}

	return storer.Nearest(candidates, vector, limit), nil
}

func (s *memoryStorer) Ids(ctx context.Context) ([]string, error) {
	s.registry.mtx.RLock()
	defer s.registry.mtx.RUnlock()

	c, err := s.collection()
	if err != nil {
		return nil, err
	}

	return append([]string(nil), c.order...), nil
}

func (s *memoryStorer) collection() (*collection, error) {
	c, ok := s.registry.collections[s.options.Collection]
	if !ok {
		return nil, fmt.Errorf("collection %s does not exist", s.options.Collection)
	}
	return c, nil
}

func NewStorer(opts ...storer.Option) storer.Storer {
	options := storer.NewOptions(opts...)

	registry, ok := RegistryFrom(options.Context)
	if !ok {
		registry = NewRegistry()
	}

	s := &memoryStorer{
		options:  options,
		registry: registry,
	}

	return s
}
