// Package blobstore is the asynchronous, binary-capable flavor of the local
// persisted store. It holds fetched sheet-music documents keyed by song id.
package blobstore

import (
	"context"

	"github.com/kantorei/chorsync/internal/client/models"
)

// Repository persists PDF cache entries.
//
// Get returns (nil, nil) for an absent song id.
type Repository interface {
	Get(ctx context.Context, songID string) (*models.PDFEntry, error)
	Put(ctx context.Context, entry *models.PDFEntry) error
	Delete(ctx context.Context, songID string) error

	// SongIDs lists every cached song id.
	SongIDs(ctx context.Context) ([]string, error)

	// DeleteOlderThan removes entries created before the cutoff (unix
	// milliseconds) and reports how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error)
}
