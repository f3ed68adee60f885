// Package gatewaycache persists HTTP responses for the offline gateway,
// partitioned by cache generation so a version bump can drop every stale
// entry at once.
package gatewaycache

import "context"

// CachedResponse is one stored HTTP response.
type CachedResponse struct {
	URL       string
	Status    int
	Headers   map[string][]string
	Body      []byte
	CreatedAt int64
}

type Repository interface {
	// Get returns the response stored for url in the given generation,
	// (nil, nil) when absent.
	Get(ctx context.Context, generation, url string) (*CachedResponse, error)
	// Put stores a response, overwriting a previous one for the same url.
	Put(ctx context.Context, generation string, resp *CachedResponse) error
	// DropOtherGenerations removes every entry outside keep and returns the
	// number of rows removed.
	DropOtherGenerations(ctx context.Context, keep string) (int64, error)
}
