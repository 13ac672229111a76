package google

import (
	"context"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/w-h-a/assistant/generator"
)

type googleChat struct {
	options generator.Options
	session *genai.ChatSession
	mtx     sync.Mutex
}

func (c *googleChat) Send(ctx context.Context, prompt string) (string, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	// the session appends the user turn before the call returns
	n := len(c.session.History)

	rsp, err := c.session.SendMessage(ctx, genai.Text(c.options.ApplyPrefix(prompt)))
	if err != nil {
		c.session.History = c.session.History[:n]
		return "", err
	}

	text, err := responseText(rsp)
	if err != nil {
		c.session.History = c.session.History[:n]
		return "", err
	}

	return text, nil
}

func (c *googleChat) History() []generator.Message {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return fromContents(c.session.History)
}

func toContents(history []generator.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))

	for _, msg := range history {
		if len(strings.TrimSpace(msg.Text)) == 0 {
			continue
		}
		role := generator.RoleUser
		if msg.Role == generator.RoleModel {
			role = generator.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Text)},
		})
	}

	return contents
}

func fromContents(contents []*genai.Content) []generator.Message {
	msgs := make([]generator.Message, 0, len(contents))

	for _, content := range contents {
		if content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		msgs = append(msgs, generator.Message{Role: content.Role, Text: b.String()})
	}

	return msgs
}
