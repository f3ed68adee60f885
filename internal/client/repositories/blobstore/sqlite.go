package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kantorei/chorsync/internal/client/models"
	"github.com/kantorei/chorsync/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, songID string) (*models.PDFEntry, error) {
	e := &models.PDFEntry{}
	err := r.db.QueryRowContext(ctx, `
		SELECT song_id, service_id, title, data, created_at
		FROM pdf_cache WHERE song_id = ?
	`, songID).Scan(&e.SongID, &e.ServiceID, &e.Title, &e.Data, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pdf entry %s: %w", songID, err)
	}
	return e, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, entry *models.PDFEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pdf_cache (song_id, service_id, title, data, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(song_id) DO UPDATE SET
			service_id = excluded.service_id,
			title = excluded.title,
			data = excluded.data,
			created_at = excluded.created_at
	`, entry.SongID, entry.ServiceID, entry.Title, entry.Data, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store pdf entry %s: %w", entry.SongID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, songID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pdf_cache WHERE song_id = ?`, songID)
	if err != nil {
		return fmt.Errorf("failed to delete pdf entry %s: %w", songID, err)
	}
	return nil
}

func (r *SQLiteRepository) SongIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT song_id FROM pdf_cache ORDER BY song_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pdf entries: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan pdf entry id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pdf entry ids: %w", err)
	}
	return ids, nil
}

func (r *SQLiteRepository) DeleteOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pdf_cache WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge pdf entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
