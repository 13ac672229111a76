package extractor

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

const TruncationMarker = "... [truncated]"

// Fetch GETs url and returns its body when it is html. Any other outcome is
// an error fit to show as a Page reason.
func Fetch(ctx context.Context, client *http.Client, options Options, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, options.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	req.Header.Set("User-Agent", options.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	rsp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer rsp.Body.Close()

	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch: http status %d", rsp.StatusCode)
	}

	if ct := rsp.Header.Get("Content-Type"); !IsMarkup(ct) {
		return nil, fmt.Errorf("unsupported content type: %s", ct)
	}

	body, err := io.ReadAll(io.LimitReader(rsp.Body, options.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	return body, nil
}

// IsMarkup reports whether a Content-Type header names html.
func IsMarkup(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// Truncate cuts text to maxLength runes and appends the truncation marker.
// A non-positive maxLength means no limit.
func Truncate(text string, maxLength int) string {
	if maxLength <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength]) + TruncationMarker
}

// Failed builds the error page for url.
func Failed(url string, err error) Page {
	return Page{
		Url:     url,
		Content: err.Error(),
		Status:  StatusError,
	}
}

// Tidy trims every line of text and drops the blank ones.
func Tidy(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if len(line) > 0 {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
