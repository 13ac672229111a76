package generator

import "context"

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Chat is a multi-turn conversation. A failed Send leaves the history as it
// was before the call.
type Chat interface {
	Send(ctx context.Context, prompt string) (string, error)
	History() []Message
}

type Conversational interface {
	Generator
	StartChat(history []Message) Chat
}
