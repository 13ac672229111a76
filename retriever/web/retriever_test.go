package web

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/assistant/extractor"
	"github.com/w-h-a/assistant/retriever"
	"github.com/w-h-a/assistant/searcher"
)

type fakeSearcher struct {
	hits  []searcher.Hit
	err   error
	limit int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]searcher.Hit, error) {
	f.limit = limit
	return f.hits, f.err
}

type fakeExtractor struct {
	failing  map[string]bool
	inFlight atomic.Int32
	peak     atomic.Int32
	mtx      sync.Mutex
	seen     []string
}

func (f *fakeExtractor) Extract(ctx context.Context, url string, maxLength int) extractor.Page {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)

	f.mtx.Lock()
	f.seen = append(f.seen, url)
	f.mtx.Unlock()

	if f.failing[url] {
		return extractor.Page{Url: url, Content: "failed to fetch: timeout", Status: extractor.StatusError}
	}
	return extractor.Page{Url: url, Title: "T " + url, Content: extractor.Truncate("content of "+url, maxLength), Status: extractor.StatusSuccess}
}

func hits(urls ...string) []searcher.Hit {
	out := make([]searcher.Hit, 0, len(urls))
	for _, u := range urls {
		out = append(out, searcher.Hit{Title: u, Snippet: "snippet " + u, Url: u})
	}
	return out
}

func TestSearchAndExtractOnlyExtractsTopHits(t *testing.T) {
	s := &fakeSearcher{hits: hits("a", "b", "c")}
	e := &fakeExtractor{}
	r := NewRetriever(retriever.WithSearcher(s), retriever.WithExtractor(e), retriever.WithMaxResults(7))

	results := r.SearchAndExtract(context.Background(), "q", 2, 1000)

	require.Len(t, results, 3)
	assert.Equal(t, 7, s.limit)
	assert.Equal(t, []string{"a", "b", "c"}, []string{results[0].Url, results[1].Url, results[2].Url})
	require.NotNil(t, results[0].Extraction)
	require.NotNil(t, results[1].Extraction)
	assert.Nil(t, results[2].Extraction)
	assert.Equal(t, "content of a", results[0].Extraction.Content)
	assert.ElementsMatch(t, []string{"a", "b"}, e.seen)
}

func TestSearchAndExtractKeepsFailedExtractions(t *testing.T) {
	s := &fakeSearcher{hits: hits("a", "b")}
	e := &fakeExtractor{failing: map[string]bool{"a": true}}
	r := NewRetriever(retriever.WithSearcher(s), retriever.WithExtractor(e))

	results := r.SearchAndExtract(context.Background(), "q", 5, 1000)

	require.Len(t, results, 2)
	assert.Equal(t, extractor.StatusError, results[0].Extraction.Status)
	assert.Equal(t, "failed to fetch: timeout", results[0].Extraction.Content)
	assert.Equal(t, "snippet a", results[0].Snippet)
	assert.Equal(t, extractor.StatusSuccess, results[1].Extraction.Status)
}

func TestSearchAndExtractTruncates(t *testing.T) {
	s := &fakeSearcher{hits: hits("abcdef")}
	r := NewRetriever(retriever.WithSearcher(s), retriever.WithExtractor(&fakeExtractor{}))

	results := r.SearchAndExtract(context.Background(), "q", 1, 4)

	require.Len(t, results, 1)
	assert.Equal(t, "cont"+extractor.TruncationMarker, results[0].Extraction.Content)
}

func TestSearchAndExtractRespectsParallelism(t *testing.T) {
	s := &fakeSearcher{hits: hits("a", "b", "c", "d", "e", "f")}
	e := &fakeExtractor{}
	r := NewRetriever(retriever.WithSearcher(s), retriever.WithExtractor(e), retriever.WithParallelism(2))

	results := r.SearchAndExtract(context.Background(), "q", 6, 100)

	require.Len(t, results, 6)
	assert.LessOrEqual(t, e.peak.Load(), int32(2))
}

func TestSearchDegradesToEmpty(t *testing.T) {
	for name, err := range map[string]error{
		"missing credentials": searcher.ErrMissingCredentials,
		"network":             errors.New("dial tcp: connection refused"),
	} {
		t.Run(name, func(t *testing.T) {
			r := NewRetriever(retriever.WithSearcher(&fakeSearcher{err: err}), retriever.WithExtractor(&fakeExtractor{}))

			got := r.Search(context.Background(), "q")
			assert.NotNil(t, got)
			assert.Empty(t, got)

			assert.Empty(t, r.SearchAndExtract(context.Background(), "q", 3, 100))
		})
	}
}

func TestNewRetrieverRequiresProviders(t *testing.T) {
	assert.Panics(t, func() { NewRetriever(retriever.WithExtractor(&fakeExtractor{})) })
	assert.Panics(t, func() { NewRetriever(retriever.WithSearcher(&fakeSearcher{})) })
}
