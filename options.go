package assistant

import (
	"context"
	"time"

	"github.com/w-h-a/assistant/generator"
	memorymanager "github.com/w-h-a/assistant/memory_manager"
	"github.com/w-h-a/assistant/retriever"
	turnlog "github.com/w-h-a/assistant/turn_log"
)

type Option func(*Options)

type Options struct {
	// Generator holds the conversations.
	Generator generator.Conversational
	// Helper reformulates queries and synthesizes web results. Defaults to
	// Generator.
	Helper    generator.Generator
	Memory    memorymanager.MemoryManager
	Retriever retriever.Retriever
	TurnLog   turnlog.TurnLog

	MaxExtractions   int
	MaxContentLength int
	SeedTurns        int
	PersistTimeout   time.Duration
	GenerateTimeout  time.Duration
	Context          context.Context
}

func WithGenerator(g generator.Conversational) Option {
	return func(o *Options) {
		o.Generator = g
	}
}

func WithHelper(g generator.Generator) Option {
	return func(o *Options) {
		o.Helper = g
	}
}

func WithMemory(m memorymanager.MemoryManager) Option {
	return func(o *Options) {
		o.Memory = m
	}
}

// WithRetriever enables web research. Without it search requests are
// ignored.
func WithRetriever(r retriever.Retriever) Option {
	return func(o *Options) {
		o.Retriever = r
	}
}

func WithTurnLog(l turnlog.TurnLog) Option {
	return func(o *Options) {
		o.TurnLog = l
	}
}

func WithMaxExtractions(n int) Option {
	return func(o *Options) {
		o.MaxExtractions = n
	}
}

func WithMaxContentLength(n int) Option {
	return func(o *Options) {
		o.MaxContentLength = n
	}
}

func WithSeedTurns(n int) Option {
	return func(o *Options) {
		o.SeedTurns = n
	}
}

func WithPersistTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.PersistTimeout = d
	}
}

// WithGenerateTimeout bounds each completion: the reply, query
// reformulation and result synthesis.
func WithGenerateTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.GenerateTimeout = d
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		MaxExtractions:   3,
		MaxContentLength: 2000,
		SeedTurns:        20,
		PersistTimeout:   30 * time.Second,
		GenerateTimeout:  generator.DefaultTimeout,
		Context:          context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
