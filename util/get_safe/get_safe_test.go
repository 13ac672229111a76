package getsafe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	payload := map[string]any{"a": "x", "b": 1}

	assert.Equal(t, "x", String(payload, "a"))
	assert.Equal(t, "", String(payload, "b"))
	assert.Equal(t, "", String(payload, "missing"))
}

func TestStrings(t *testing.T) {
	payload := map[string]any{
		"metadata": map[string]any{"role": "user", "n": 3},
		"flat":     "nope",
	}

	assert.Equal(t, map[string]string{"role": "user"}, Strings(payload, "metadata"))
	assert.Empty(t, Strings(payload, "flat"))
}

func TestTime(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 6, time.UTC)

	payload := map[string]any{
		"native": ts,
		"text":   ts.Format(time.RFC3339Nano),
		"bad":    "yesterday",
	}

	assert.True(t, ts.Equal(Time(payload, "native")))
	assert.True(t, ts.Equal(Time(payload, "text")))
	assert.True(t, Time(payload, "bad").IsZero())
	assert.True(t, Time(payload, "missing").IsZero())
}
