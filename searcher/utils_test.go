package searcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceOf(t *testing.T) {
	assert.Equal(t, "go.dev", SourceOf("https://go.dev/doc/"))
	assert.Equal(t, "example.com", SourceOf("http://www.example.com:8080/a?b=c"))
	assert.Equal(t, "", SourceOf("::not a url"))
}

func TestCap(t *testing.T) {
	hits := []Hit{{Title: "a"}, {Title: "b"}, {Title: "c"}}

	assert.Len(t, Cap(hits, 2), 2)
	assert.Len(t, Cap(hits, 5), 3)
	assert.Empty(t, Cap(hits, 0))
}
