package ingest

import (
	"context"
	"io"
	"time"
)

// RawNewsItem is an article as scraped from a source, before any normalization.
type RawNewsItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	DateRaw string `json:"date_raw"`
	Source  string `json:"source"`
	Summary string `json:"summary,omitempty"` // e.g. an RSS description
}

// NewsItem is a RawNewsItem with a parsed calendar date.
type NewsItem struct {
	RawNewsItem
	Date time.Time
}

// AnnotationText is the text handed to the annotator: title plus summary.
func (n NewsItem) AnnotationText() string {
	if n.Summary == "" {
		return n.Title
	}
	return n.Title + " " + n.Summary
}

// FetchedDocument represents the raw result of a fetch operation.
type FetchedDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
	FetchedAt   time.Time
	Headers     map[string][]string
}

// Fetcher retrieves raw content from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedDocument, error)
}
