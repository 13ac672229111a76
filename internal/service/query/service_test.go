package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	out      string
	err      error
	prompt   string
	calls    int
	deadline time.Time
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	f.deadline, _ = ctx.Deadline()
	return f.out, f.err
}

func TestIsLatin(t *testing.T) {
	assert.True(t, IsLatin("What is the weather in Paris?"))
	assert.True(t, IsLatin("2+2?"))
	assert.True(t, IsLatin(""))
	assert.False(t, IsLatin("Thời tiết Hà Nội hôm nay"))
	assert.False(t, IsLatin("東京の天気"))
	assert.False(t, IsLatin("café"))
}

func TestReformulateNonLatinPassesThrough(t *testing.T) {
	g := &fakeGenerator{out: "weather hanoi"}
	s := New(g, time.Second)

	msg := "Thời tiết Hà Nội hôm nay thế nào?"

	assert.Equal(t, msg, s.Reformulate(context.Background(), msg))
	assert.Equal(t, 0, g.calls)
}

func TestReformulateLatin(t *testing.T) {
	g := &fakeGenerator{out: "\n  \"paris weather today\"  \nextra line"}
	s := New(g, time.Second)

	got := s.Reformulate(context.Background(), "What's the weather like in Paris right now?")

	assert.Equal(t, "paris weather today", got)
	assert.Equal(t, 1, g.calls)
	assert.Contains(t, g.prompt, "What's the weather like in Paris right now?")
}

func TestReformulateFallsBackToMessage(t *testing.T) {
	msg := "latest go release"

	assert.Equal(t, msg, New(&fakeGenerator{out: "  \n ``  "}, time.Second).Reformulate(context.Background(), msg))
	assert.Equal(t, msg, New(&fakeGenerator{err: errors.New("quota exceeded")}, time.Second).Reformulate(context.Background(), msg))
}

func TestReformulateIsBounded(t *testing.T) {
	g := &fakeGenerator{out: "paris weather"}

	New(g, 2*time.Second).Reformulate(context.Background(), "weather in paris")

	require.False(t, g.deadline.IsZero())
	assert.WithinDuration(t, time.Now().Add(2*time.Second), g.deadline, time.Second)
}

func TestReformulateDefaultsTimeout(t *testing.T) {
	g := &fakeGenerator{out: "paris weather"}

	New(g, 0).Reformulate(context.Background(), "weather in paris")

	assert.False(t, g.deadline.IsZero())
}
