package searcher

import (
	"net/url"
	"strings"
)

// SourceOf returns the host of rawURL without a leading "www.".
func SourceOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// Cap trims hits to at most limit entries.
func Cap(hits []Hit, limit int) []Hit {
	if limit >= 0 && len(hits) > limit {
		return hits[:limit]
	}
	return hits
}
