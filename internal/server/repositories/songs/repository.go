// Package songs stores the per-choir repertoire with the tombstoned
// deletions the delta-sync endpoints are built on.
package songs

import (
	"context"

	"github.com/kantorei/chorsync/internal/server/models"
)

type Repository interface {
	// SelectUpdatedSince returns live records changed strictly after since.
	SelectUpdatedSince(ctx context.Context, choirID string, since int64) ([]models.Song, error)
	// SelectDeletedSince returns ids of records tombstoned strictly after since.
	SelectDeletedSince(ctx context.Context, choirID string, since int64) ([]string, error)
	// SelectByIDs returns live records for the given ids; unknown ids are
	// omitted.
	SelectByIDs(ctx context.Context, choirID string, ids []string) ([]models.Song, error)
	// Upsert creates or fully overwrites a record.
	Upsert(ctx context.Context, song *models.Song) error
	// MarkDeleted tombstones a record at the given timestamp.
	MarkDeleted(ctx context.Context, choirID, id string, ts int64) error
}
