package memory

import (
	"context"
	"sync"
	"time"

	turnlog "github.com/w-h-a/assistant/turn_log"
)

type memoryTurnLog struct {
	options turnlog.Options
	turns   []turnlog.Turn
	mtx     sync.RWMutex
}

func (l *memoryTurnLog) Append(ctx context.Context, role string, text string) (turnlog.Turn, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	turn := turnlog.Turn{
		Id:        int64(len(l.turns) + 1),
		Timestamp: time.Now().UTC(),
		Role:      role,
		Text:      text,
	}

	l.turns = append(l.turns, turn)

	return turn, nil
}

func (l *memoryTurnLog) Tail(ctx context.Context, n int) ([]turnlog.Turn, error) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	if n < 0 {
		n = 0
	}

	start := len(l.turns) - n
	if start < 0 {
		start = 0
	}

	out := make([]turnlog.Turn, len(l.turns)-start)
	copy(out, l.turns[start:])

	return out, nil
}

func (l *memoryTurnLog) List(ctx context.Context) ([]turnlog.Turn, error) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	out := make([]turnlog.Turn, len(l.turns))
	copy(out, l.turns)

	return out, nil
}

func NewTurnLog(opts ...turnlog.Option) turnlog.TurnLog {
	options := turnlog.NewOptions(opts...)

	return &memoryTurnLog{
		options: options,
	}
}
