package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/w-h-a/assistant/generator"
)

const promptTemplate = "Context information (use this to inform your response, but don't explicitly mention it):\n%s\n\nUser message: %s"

const apologyTemplate = "I'm having trouble generating a response at the moment. Error: %v"

// Session is one conversation. Callers hold its lock for a whole turn.
type Session struct {
	id      string
	chat    generator.Chat
	timeout time.Duration
	mtx     sync.Mutex
}

func (s *Session) Id() string {
	return s.id
}

func (s *Session) Lock() {
	s.mtx.Lock()
}

func (s *Session) Unlock() {
	s.mtx.Unlock()
}

// Respond sends message with its gathered context to the chat. Failures
// become an apology and leave the chat history untouched.
func (s *Session) Respond(ctx context.Context, composed string, message string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.chat.Send(ctx, Prompt(composed, message))
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate response", "session", s.id, "error", err)
		return fmt.Sprintf(apologyTemplate, err), false
	}
	return reply, true
}

func (s *Session) History() []generator.Message {
	return s.chat.History()
}

// Prompt is the text sent to the chat for one turn.
func Prompt(composed string, message string) string {
	return fmt.Sprintf(promptTemplate, composed, message)
}
