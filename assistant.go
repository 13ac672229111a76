package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/w-h-a/assistant/internal/service/agent"
	"github.com/w-h-a/assistant/internal/service/query"
	"github.com/w-h-a/assistant/internal/service/research"
	"github.com/w-h-a/assistant/internal/service/session"
	turnlog "github.com/w-h-a/assistant/turn_log"
)

const DefaultSessionId = "default"

var ErrEmptyMessage = errors.New("message is required")

type Reply struct {
	Text          string
	UsedWebSearch bool
	SessionId     string
}

type Assistant struct {
	agent   *agent.Service
	session *session.Service
	turns   turnlog.TurnLog
}

func (a *Assistant) CreateSession(ctx context.Context, sessionId string) (string, error) {
	session, err := a.session.CreateSession(ctx, sessionId)
	if err != nil {
		return "", err
	}
	return session.Id(), nil
}

func (a *Assistant) ListSessionIds(ctx context.Context) []string {
	return a.session.ListSessionIds(ctx)
}

func (a *Assistant) DeleteSession(ctx context.Context, id string) {
	a.session.DeleteSession(ctx, id)
}

// Chat answers message in the session, starting the session if needed. An
// empty session id selects the default session.
func (a *Assistant) Chat(ctx context.Context, sessionId string, message string, withSearch bool) (Reply, error) {
	if len(strings.TrimSpace(message)) == 0 {
		return Reply{}, ErrEmptyMessage
	}

	if len(strings.TrimSpace(sessionId)) == 0 {
		sessionId = DefaultSessionId
	}

	session, err := a.session.CreateSession(ctx, sessionId)
	if err != nil {
		return Reply{}, err
	}

	reply := a.agent.Respond(ctx, session, message, withSearch)

	return Reply{
		Text:          reply.Text,
		UsedWebSearch: reply.UsedWebSearch,
		SessionId:     session.Id(),
	}, nil
}

// History lists every persisted turn, oldest first.
func (a *Assistant) History(ctx context.Context) ([]turnlog.Turn, error) {
	if a.turns == nil {
		return []turnlog.Turn{}, nil
	}
	return a.turns.List(ctx)
}

// Wait blocks until finished turns are persisted.
func (a *Assistant) Wait() {
	a.agent.Wait()
}

func (a *Assistant) Close() error {
	a.agent.Close()
	return nil
}

func New(opts ...Option) *Assistant {
	options := NewOptions(opts...)

	if options.Generator == nil {
		panic("generator is required")
	}

	if options.Memory == nil {
		panic("memory manager is required")
	}

	helper := options.Helper
	if helper == nil {
		helper = options.Generator
	}

	var rs *research.Service
	if options.Retriever != nil {
		rs = research.New(
			query.New(helper, options.GenerateTimeout),
			options.Retriever,
			helper,
			options.MaxExtractions,
			options.MaxContentLength,
			options.GenerateTimeout,
		)
	}

	return &Assistant{
		agent:   agent.New(rs, options.Memory, options.TurnLog, options.PersistTimeout),
		session: session.New(options.Generator, options.TurnLog, options.SeedTurns, options.GenerateTimeout),
		turns:   options.TurnLog,
	}
}
