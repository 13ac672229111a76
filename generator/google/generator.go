package google

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/w-h-a/assistant/generator"
	genaiopt "google.golang.org/api/option"
)

type googleGenerator struct {
	options generator.Options
	client  *genai.Client
	model   *genai.GenerativeModel
}

func (g *googleGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	rsp, err := g.model.GenerateContent(ctx, genai.Text(g.options.ApplyPrefix(prompt)))
	if err != nil {
		return "", err
	}

	return responseText(rsp)
}

func (g *googleGenerator) StartChat(history []generator.Message) generator.Chat {
	cs := g.model.StartChat()
	cs.History = toContents(history)

	return &googleChat{
		options: g.options,
		session: cs,
	}
}

func (g *googleGenerator) configure() {
	model := g.client.GenerativeModel(g.options.Model)

	if g.options.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(g.options.MaxOutputTokens)
	}
	if g.options.Temperature > 0 {
		model.SetTemperature(g.options.Temperature)
	}
	if g.options.TopP > 0 {
		model.SetTopP(g.options.TopP)
	}
	if g.options.TopK > 0 {
		model.SetTopK(g.options.TopK)
	}
	if len(strings.TrimSpace(g.options.SystemInstruction)) > 0 {
		model.SystemInstruction = genai.NewUserContent(genai.Text(g.options.SystemInstruction))
	}

	g.model = model
}

func responseText(rsp *genai.GenerateContentResponse) (string, error) {
	if rsp == nil || len(rsp.Candidates) == 0 || rsp.Candidates[0].Content == nil || len(rsp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response from Google")
	}

	var b strings.Builder
	for _, part := range rsp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	return b.String(), nil
}

func NewGenerator(opts ...generator.Option) generator.Conversational {
	options := generator.NewOptions(opts...)

	if len(options.Model) == 0 {
		options.Model = "gemini-2.0-flash"
	}

	g := &googleGenerator{
		options: options,
	}

	client, err := genai.NewClient(
		context.Background(),
		genaiopt.WithAPIKey(options.ApiKey),
	)
	if err != nil {
		panic(err)
	}

	g.client = client

	g.configure()

	return g
}
