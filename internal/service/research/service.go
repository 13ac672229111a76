package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/w-h-a/assistant/extractor"
	"github.com/w-h-a/assistant/generator"
	"github.com/w-h-a/assistant/internal/service/query"
	"github.com/w-h-a/assistant/retriever"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const NotFound = "I couldn't find any relevant information from web search. Please try a different query."

const synthesizePrompt = `Based on these web search results, provide a comprehensive and accurate answer to the query: "%s"

%s

Please synthesize the information from these sources into a helpful response that directly addresses the query.
Include only factual information from the sources. If the sources contradict each other, acknowledge this.
Do not reference "the search results" or "the web search" in your answer.`

var tracer = otel.Tracer("github.com/w-h-a/assistant/internal/service/research")

type Service struct {
	queries          *query.Service
	retriever        retriever.Retriever
	generator        generator.Generator
	maxExtractions   int
	maxContentLength int
	timeout          time.Duration
}

// Research answers message from the web. The result is always usable as
// the web section of a prompt.
func (s *Service) Research(ctx context.Context, message string) string {
	ctx, span := tracer.Start(ctx, "research.Research")
	defer span.End()

	q := s.queries.Reformulate(ctx, message)

	results := s.retriever.SearchAndExtract(ctx, q, s.maxExtractions, s.maxContentLength)

	if len(results) == 0 && q != message {
		slog.InfoContext(ctx, "no results for reformulated query, retrying with original", "query", q)
		results = s.retriever.SearchAndExtract(ctx, message, s.maxExtractions, s.maxContentLength)
	}

	span.SetAttributes(
		attribute.String("research.query", q),
		attribute.Int("research.results", len(results)),
	)

	if len(results) == 0 {
		return NotFound
	}

	formatted := Format(results)

	synthCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	answer, err := s.generator.Generate(synthCtx, fmt.Sprintf(synthesizePrompt, message, "Web search results:\n"+formatted))
	if err != nil {
		slog.WarnContext(ctx, "web result synthesis failed, using raw results", "error", err)
		return formatted
	}

	if answer = strings.TrimSpace(answer); len(answer) == 0 {
		return formatted
	}

	return answer
}

// Format renders results one block per hit, preferring extracted content
// over the snippet.
func Format(results []retriever.Result) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		body := r.Snippet
		if r.Extraction != nil && r.Extraction.Status == extractor.StatusSuccess && len(r.Extraction.Content) > 0 {
			body = r.Extraction.Content
		}
		body = strings.ReplaceAll(body, "\n", "\n  ")
		blocks = append(blocks, fmt.Sprintf("- %s\n  %s\n  URL: %s", r.Title, body, r.Url))
	}
	return strings.Join(blocks, "\n")
}

func New(
	queries *query.Service,
	retriever retriever.Retriever,
	gen generator.Generator,
	maxExtractions int,
	maxContentLength int,
	timeout time.Duration,
) *Service {
	if maxExtractions < 0 {
		maxExtractions = 0
	}

	if timeout <= 0 {
		timeout = generator.DefaultTimeout
	}

	return &Service{
		queries:          queries,
		retriever:        retriever,
		generator:        gen,
		maxExtractions:   maxExtractions,
		maxContentLength: maxContentLength,
		timeout:          timeout,
	}
}
