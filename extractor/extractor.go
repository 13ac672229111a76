package extractor

import "context"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Page is the cleaned text of a fetched url. On failure Status is
// StatusError and Content holds the reason.
type Page struct {
	Url     string
	Title   string
	Content string
	Status  string
}

// Extractor never fails: errors are reported through the returned Page.
type Extractor interface {
	Extract(ctx context.Context, url string, maxLength int) Page
}
