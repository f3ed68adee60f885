// Package kvstore is the synchronous flavor of the local persisted store: a
// string-keyed table of JSON blobs shared by all client caches.
package kvstore

import "context"

// Repository is a persistent key-value store.
//
// Get returns (nil, nil) for an absent key; callers treat that as a cache
// miss, not an error.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Keys lists stored keys with the given prefix; "" lists everything.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Clear removes every key.
	Clear(ctx context.Context) error
}
