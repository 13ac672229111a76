package openai

import (
	"context"
	"errors"
	"sync"

	"github.com/sashabaranov/go-openai"
	"github.com/w-h-a/assistant/generator"
)

type openAIGenerator struct {
	options generator.Options
	client  *openai.Client
}

func (g *openAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	msgs := g.systemMessages()
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: g.options.ApplyPrefix(prompt),
	})

	return g.complete(ctx, msgs)
}

func (g *openAIGenerator) StartChat(history []generator.Message) generator.Chat {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Role == generator.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: msg.Text})
	}

	return &openAIChat{
		generator: g,
		history:   msgs,
	}
}

func (g *openAIGenerator) systemMessages() []openai.ChatCompletionMessage {
	if len(g.options.SystemInstruction) == 0 {
		return nil
	}
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: g.options.SystemInstruction},
	}
}

func (g *openAIGenerator) complete(ctx context.Context, msgs []openai.ChatCompletionMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.options.Model,
		Messages:    msgs,
		MaxTokens:   int(g.options.MaxOutputTokens),
		Temperature: g.options.Temperature,
		TopP:        g.options.TopP,
	}

	rsp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(rsp.Choices) == 0 || len(rsp.Choices[0].Message.Content) == 0 {
		return "", errors.New("no response from OpenAI")
	}

	return rsp.Choices[0].Message.Content, nil
}

type openAIChat struct {
	generator *openAIGenerator
	history   []openai.ChatCompletionMessage
	mtx       sync.Mutex
}

func (c *openAIChat) Send(ctx context.Context, prompt string) (string, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	user := openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: c.generator.options.ApplyPrefix(prompt),
	}

	msgs := c.generator.systemMessages()
	msgs = append(msgs, c.history...)
	msgs = append(msgs, user)

	text, err := c.generator.complete(ctx, msgs)
	if err != nil {
		return "", err
	}

	c.history = append(c.history, user, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: text,
	})

	return text, nil
}

func (c *openAIChat) History() []generator.Message {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	msgs := make([]generator.Message, 0, len(c.history))
	for _, msg := range c.history {
		role := generator.RoleUser
		if msg.Role == openai.ChatMessageRoleAssistant {
			role = generator.RoleModel
		}
		msgs = append(msgs, generator.Message{Role: role, Text: msg.Content})
	}

	return msgs
}

func NewGenerator(opts ...generator.Option) generator.Conversational {
	options := generator.NewOptions(opts...)

	if len(options.Model) == 0 {
		options.Model = openai.GPT4oMini
	}

	g := &openAIGenerator{
		options: options,
	}

	config := openai.DefaultConfig(options.ApiKey)
	if baseURL, ok := BaseURLFrom(options.Context); ok {
		config.BaseURL = baseURL
	}

	g.client = openai.NewClientWithConfig(config)

	return g
}
