package brave

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/assistant/searcher"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "go generics", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("count"))
		w.Write([]byte(`{"web":{"results":[
			{"title":"A","url":"https://a.dev/1","description":"first","meta_url":{"hostname":"a.dev"}},
			{"title":"B","url":"https://www.b.dev/2","description":"second"},
			{"title":"C","url":"https://c.dev/3","description":"third"}
		]}}`))
	}))
	defer srv.Close()

	s := NewSearcher(searcher.WithApiKey("token"), searcher.WithEndpoint(srv.URL))

	hits, err := s.Search(context.Background(), "go generics", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, searcher.Hit{Title: "A", Snippet: "first", Url: "https://a.dev/1", Source: "a.dev"}, hits[0])
	assert.Equal(t, "b.dev", hits[1].Source)
}

func TestSearchErrors(t *testing.T) {
	_, err := NewSearcher().Search(context.Background(), "q", 3)
	assert.True(t, errors.Is(err, searcher.ErrMissingCredentials))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "bad-json" {
			w.Write([]byte(`{"web":`))
			return
		}
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewSearcher(searcher.WithApiKey("token"), searcher.WithEndpoint(srv.URL))

	_, err = s.Search(context.Background(), "q", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	_, err = s.Search(context.Background(), "bad-json", 3)
	require.Error(t, err)
}
