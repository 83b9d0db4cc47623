package search

import (
	"context"
	"time"
)

// Result is one raw search hit. A zero PublishedAt means the provider
// gave no usable publish time.
type Result struct {
	Title       string
	URL         string
	Snippet     string
	PublishedAt time.Time
}

// Client is a source adapter. The engine treats errors and empty
// responses identically: zero candidates for that query.
type Client interface {
	Search(ctx context.Context, query string, count int) ([]Result, error)
	Name() string
}
