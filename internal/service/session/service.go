package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/w-h-a/assistant/generator"
	turnlog "github.com/w-h-a/assistant/turn_log"
)

type Service struct {
	generator generator.Conversational
	turns     turnlog.TurnLog
	seedTurns int
	timeout   time.Duration
	sessions  map[string]*Session
	mtx       sync.RWMutex
}

// CreateSession returns the session with id, starting it when it does not
// exist yet. New sessions are seeded from the latest persisted turns.
func (s *Service) CreateSession(ctx context.Context, id string) (*Session, error) {
	if len(strings.TrimSpace(id)) == 0 {
		id = uuid.NewString()
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if session, ok := s.sessions[id]; ok {
		return session, nil
	}

	session := &Session{
		id:      id,
		chat:    s.generator.StartChat(s.seed(ctx)),
		timeout: s.timeout,
	}

	s.sessions[id] = session

	return session, nil
}

func (s *Service) seed(ctx context.Context) []generator.Message {
	if s.turns == nil || s.seedTurns <= 0 {
		return nil
	}

	turns, err := s.turns.Tail(ctx, s.seedTurns)
	if err != nil {
		slog.WarnContext(ctx, "failed to load chat history, starting empty", "error", err)
		return nil
	}

	history := make([]generator.Message, 0, len(turns))
	for _, t := range turns {
		history = append(history, generator.Message{Role: t.Role, Text: t.Text})
	}

	return history
}

func (s *Service) ListSessionIds(ctx context.Context) []string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Service) GetSession(ctx context.Context, id string) (*Session, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return session, nil
}

func (s *Service) DeleteSession(ctx context.Context, id string) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	delete(s.sessions, id)
}

func New(
	gen generator.Conversational,
	turns turnlog.TurnLog,
	seedTurns int,
	timeout time.Duration,
) *Service {
	if gen == nil {
		panic("generator is required")
	}

	if timeout <= 0 {
		timeout = generator.DefaultTimeout
	}

	return &Service{
		generator: gen,
		turns:     turns,
		seedTurns: seedTurns,
		timeout:   timeout,
		sessions:  map[string]*Session{},
		mtx:       sync.RWMutex{},
	}
}
