package turnlog

import (
	"context"
	"time"
)

// Turn is one persisted chat message.
type Turn struct {
	Id        int64
	Timestamp time.Time
	Role      string
	Text      string
}

// TurnLog is the append-only record of a conversation.
type TurnLog interface {
	Append(ctx context.Context, role string, text string) (Turn, error)
	// Tail returns the latest n turns, oldest first.
	Tail(ctx context.Context, n int) ([]Turn, error)
	List(ctx context.Context) ([]Turn, error)
}
