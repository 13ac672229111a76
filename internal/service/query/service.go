package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/w-h-a/assistant/generator"
)

const reformulatePrompt = `Rewrite the user message below as a web search query that finds the most accurate and most recent information for it.
Reply with the search query text only: no quotes, no explanation.

User message: %s`

type Service struct {
	generator generator.Generator
	timeout   time.Duration
}

// Reformulate turns message into a search query. It never returns an empty
// string: on any failure the message itself is the query.
func (s *Service) Reformulate(ctx context.Context, message string) string {
	if !IsLatin(message) {
		return message
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.generator.Generate(ctx, fmt.Sprintf(reformulatePrompt, message))
	if err != nil {
		slog.WarnContext(ctx, "query reformulation failed", "error", err)
		return message
	}

	if q := clean(out); len(q) > 0 {
		return q
	}

	return message
}

// IsLatin reports whether every letter in text is ASCII. Text without
// letters counts as Latin.
func IsLatin(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) && r >= 128 {
			return false
		}
	}
	return true
}

func clean(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "\"'`")
		line = strings.TrimSpace(line)
		if len(line) > 0 {
			return line
		}
	}
	return ""
}

func New(gen generator.Generator, timeout time.Duration) *Service {
	if gen == nil {
		panic("generator is required")
	}

	if timeout <= 0 {
		timeout = generator.DefaultTimeout
	}

	return &Service{
		generator: gen,
		timeout:   timeout,
	}
}
