package research

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/assistant/extractor"
	"github.com/w-h-a/assistant/internal/service/query"
	"github.com/w-h-a/assistant/retriever"
	"github.com/w-h-a/assistant/searcher"
)

type fakeGenerator struct {
	reply     func(prompt string) (string, error)
	prompts   []string
	deadlines []time.Time
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	deadline, _ := ctx.Deadline()
	f.deadlines = append(f.deadlines, deadline)
	return f.reply(prompt)
}

type fakeRetriever struct {
	results map[string][]retriever.Result
	queries []string
}

func (f *fakeRetriever) Search(ctx context.Context, q string) []searcher.Hit {
	return nil
}

func (f *fakeRetriever) Extract(ctx context.Context, url string, maxLength int) extractor.Page {
	return extractor.Page{}
}

func (f *fakeRetriever) SearchAndExtract(ctx context.Context, q string, maxExtractions int, maxContentLength int) []retriever.Result {
	f.queries = append(f.queries, q)
	return f.results[q]
}

func isSynthesis(prompt string) bool {
	return strings.HasPrefix(prompt, "Based on these web search results")
}

func TestResearchSynthesizes(t *testing.T) {
	gen := &fakeGenerator{reply: func(p string) (string, error) {
		if isSynthesis(p) {
			return "Go 1.25 shipped in August.", nil
		}
		return "go latest release", nil
	}}
	ret := &fakeRetriever{results: map[string][]retriever.Result{
		"go latest release": {{Hit: searcher.Hit{Title: "Go 1.25", Snippet: "snip", Url: "https://go.dev"}}},
	}}

	s := New(query.New(gen, time.Second), ret, gen, 3, 1000, time.Second)

	got := s.Research(context.Background(), "What is the latest Go release?")

	assert.Equal(t, "Go 1.25 shipped in August.", got)
	assert.Equal(t, []string{"go latest release"}, ret.queries)
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[1], "- Go 1.25\n  snip\n  URL: https://go.dev")
}

func TestResearchRetriesOriginalMessage(t *testing.T) {
	msg := "latest go release"
	gen := &fakeGenerator{reply: func(p string) (string, error) {
		if isSynthesis(p) {
			return "answer", nil
		}
		return "something else entirely", nil
	}}
	ret := &fakeRetriever{results: map[string][]retriever.Result{
		msg: {{Hit: searcher.Hit{Title: "t", Snippet: "s", Url: "u"}}},
	}}

	got := New(query.New(gen, time.Second), ret, gen, 3, 1000, time.Second).Research(context.Background(), msg)

	assert.Equal(t, "answer", got)
	assert.Equal(t, []string{"something else entirely", msg}, ret.queries)
}

func TestResearchNothingFound(t *testing.T) {
	gen := &fakeGenerator{reply: func(p string) (string, error) { return "", nil }}
	ret := &fakeRetriever{}

	got := New(query.New(gen, time.Second), ret, gen, 3, 1000, time.Second).Research(context.Background(), "obscure")

	assert.Equal(t, NotFound, got)
	assert.Equal(t, []string{"obscure"}, ret.queries)
}

func TestResearchFallsBackToFormattedResults(t *testing.T) {
	gen := &fakeGenerator{reply: func(p string) (string, error) {
		if isSynthesis(p) {
			return "", errors.New("model overloaded")
		}
		return "q", nil
	}}
	ret := &fakeRetriever{results: map[string][]retriever.Result{
		"q": {{Hit: searcher.Hit{Title: "T", Snippet: "S", Url: "U"}}},
	}}

	got := New(query.New(gen, time.Second), ret, gen, 3, 1000, time.Second).Research(context.Background(), "question")

	assert.Equal(t, "- T\n  S\n  URL: U", got)
}

func TestFormatPrefersExtractedContent(t *testing.T) {
	results := []retriever.Result{
		{
			Hit:        searcher.Hit{Title: "A", Snippet: "snippet a", Url: "https://a"},
			Extraction: &extractor.Page{Content: "line one\nline two", Status: extractor.StatusSuccess},
		},
		{
			Hit:        searcher.Hit{Title: "B", Snippet: "snippet b", Url: "https://b"},
			Extraction: &extractor.Page{Content: "failed to fetch: http status 403", Status: extractor.StatusError},
		},
		{
			Hit: searcher.Hit{Title: "C", Snippet: "snippet c", Url: "https://c"},
		},
	}

	want := "- A\n  line one\n  line two\n  URL: https://a\n" +
		"- B\n  snippet b\n  URL: https://b\n" +
		"- C\n  snippet c\n  URL: https://c"

	assert.Equal(t, want, Format(results))
}

func TestResearchCompletionsAreBounded(t *testing.T) {
	gen := &fakeGenerator{reply: func(p string) (string, error) {
		if isSynthesis(p) {
			return "answer", nil
		}
		return "q", nil
	}}
	ret := &fakeRetriever{results: map[string][]retriever.Result{
		"q": {{Hit: searcher.Hit{Title: "T", Snippet: "S", Url: "U"}}},
	}}

	New(query.New(gen, 3*time.Second), ret, gen, 3, 1000, 3*time.Second).Research(context.Background(), "question")

	require.Len(t, gen.deadlines, 2)
	for _, deadline := range gen.deadlines {
		require.False(t, deadline.IsZero())
		assert.WithinDuration(t, time.Now().Add(3*time.Second), deadline, time.Second)
	}
}
