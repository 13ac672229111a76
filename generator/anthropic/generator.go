package anthropic

import (
	"context"
	"errors"
	"strings"
	"sync"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/w-h-a/assistant/generator"
)

const defaultMaxTokens = 1024

type anthropicGenerator struct {
	options generator.Options
	client  *anthropic.Client
}

func (g *anthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	msgs := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(g.options.ApplyPrefix(prompt))),
	}

	return g.complete(ctx, msgs)
}

func (g *anthropicGenerator) StartChat(history []generator.Message) generator.Chat {
	msgs := make([]anthropic.MessageParam, 0, len(history))
	texts := make([]generator.Message, 0, len(history))

	for _, msg := range history {
		if len(strings.TrimSpace(msg.Text)) == 0 {
			continue
		}
		if msg.Role == generator.RoleModel {
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Text)))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Text)))
		}
		texts = append(texts, msg)
	}

	return &anthropicChat{
		generator: g,
		history:   msgs,
		texts:     texts,
	}
}

func (g *anthropicGenerator) complete(ctx context.Context, msgs []anthropic.MessageParam) (string, error) {
	maxTokens := int64(g.options.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	req := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.options.Model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}

	if len(g.options.SystemInstruction) > 0 {
		req.System = []anthropic.TextBlockParam{{Text: g.options.SystemInstruction}}
	}
	if g.options.Temperature > 0 {
		req.Temperature = anthropic.Float(float64(g.options.Temperature))
	}
	if g.options.TopP > 0 {
		req.TopP = anthropic.Float(float64(g.options.TopP))
	}
	if g.options.TopK > 0 {
		req.TopK = anthropic.Int(int64(g.options.TopK))
	}

	rsp, err := g.client.Messages.New(ctx, req)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, content := range rsp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}

	result := b.String()
	if len(result) == 0 {
		return "", errors.New("no response from Anthropic")
	}

	return result, nil
}

type anthropicChat struct {
	generator *anthropicGenerator
	history   []anthropic.MessageParam
	texts     []generator.Message
	mtx       sync.Mutex
}

func (c *anthropicChat) Send(ctx context.Context, prompt string) (string, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	text := c.generator.options.ApplyPrefix(prompt)
	user := anthropic.NewUserMessage(anthropic.NewTextBlock(text))

	msgs := make([]anthropic.MessageParam, 0, len(c.history)+1)
	msgs = append(msgs, c.history...)
	msgs = append(msgs, user)

	reply, err := c.generator.complete(ctx, msgs)
	if err != nil {
		return "", err
	}

	c.history = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(reply)))
	c.texts = append(c.texts,
		generator.Message{Role: generator.RoleUser, Text: text},
		generator.Message{Role: generator.RoleModel, Text: reply},
	)

	return reply, nil
}

func (c *anthropicChat) History() []generator.Message {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return append([]generator.Message(nil), c.texts...)
}

func NewGenerator(opts ...generator.Option) generator.Conversational {
	options := generator.NewOptions(opts...)

	if len(options.Model) == 0 {
		options.Model = "claude-sonnet-4-5"
	}

	g := &anthropicGenerator{
		options: options,
	}

	clientOpts := []anthropicopt.RequestOption{
		anthropicopt.WithAPIKey(options.ApiKey),
	}
	if url, ok := BaseURLFrom(options.Context); ok {
		clientOpts = append(clientOpts, anthropicopt.WithBaseURL(url))
	}

	client := anthropic.NewClient(clientOpts...)

	g.client = &client

	return g
}
