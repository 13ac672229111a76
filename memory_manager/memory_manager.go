package memorymanager

import "context"

// MemoryManager is the long-term memory of past turns.
type MemoryManager interface {
	// Store embeds text and records it under role. Failures are logged and
	// reported as false.
	Store(ctx context.Context, text string, role string) bool
	// Retrieve returns the relevant memories for query formatted for a
	// prompt, or "" when there is nothing usable.
	Retrieve(ctx context.Context, query string, opts ...RetrieveOption) string
}
