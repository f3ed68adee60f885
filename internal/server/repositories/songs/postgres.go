package songs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kantorei/chorsync/internal/dbx"
	"github.com/kantorei/chorsync/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) SelectUpdatedSince(ctx context.Context, choirID string, since int64) ([]models.Song, error) {
	query :=
		`SELECT id, choir_id, title, category, conductor, pdf_url, parts, updated_at
		 FROM songs
		 WHERE choir_id = $1 AND updated_at > $2 AND NOT deleted
		 ORDER BY updated_at
		 `

	rows, err := r.db.QueryContext(ctx, query, choirID, since)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	return scanSongs(rows)
}

func (r *PostgresRepository) SelectDeletedSince(ctx context.Context, choirID string, since int64) ([]string, error) {
	query :=
		`SELECT id FROM songs
		 WHERE choir_id = $1 AND updated_at > $2 AND deleted
		 `

	rows, err := r.db.QueryContext(ctx, query, choirID, since)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning row: %v", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresRepository) SelectByIDs(ctx context.Context, choirID string, ids []string) ([]models.Song, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query :=
		`SELECT id, choir_id, title, category, conductor, pdf_url, parts, updated_at
		 FROM songs
		 WHERE choir_id = $1 AND id = ANY($2) AND NOT deleted
		 `

	rows, err := r.db.QueryContext(ctx, query, choirID, ids)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	defer rows.Close()

	return scanSongs(rows)
}

func (r *PostgresRepository) Upsert(ctx context.Context, song *models.Song) error {
	parts, err := json.Marshal(song.Parts)
	if err != nil {
		return fmt.Errorf("error encoding parts: %v", err)
	}

	query :=
		`INSERT INTO songs (id, choir_id, title, category, conductor, pdf_url, parts, updated_at, deleted)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
		 ON CONFLICT (id) DO UPDATE SET
		   title = EXCLUDED.title, category = EXCLUDED.category,
		   conductor = EXCLUDED.conductor, pdf_url = EXCLUDED.pdf_url,
		   parts = EXCLUDED.parts, updated_at = EXCLUDED.updated_at,
		   deleted = FALSE
		 `

	_, err = r.db.ExecContext(ctx, query,
		song.ID, song.ChoirID, song.Title, song.Category, song.Conductor,
		song.PDFURL, parts, song.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}
	return nil
}

func (r *PostgresRepository) MarkDeleted(ctx context.Context, choirID, id string, ts int64) error {
	query :=
		`UPDATE songs SET deleted = TRUE, updated_at = $3
		 WHERE choir_id = $1 AND id = $2
		 `

	_, err := r.db.ExecContext(ctx, query, choirID, id, ts)
	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}
	return nil
}

func scanSongs(rows *sql.Rows) ([]models.Song, error) {
	var songs []models.Song
	for rows.Next() {
		var s models.Song
		var parts []byte
		if err := rows.Scan(&s.ID, &s.ChoirID, &s.Title, &s.Category,
			&s.Conductor, &s.PDFURL, &parts, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %v", err)
		}
		if err := json.Unmarshal(parts, &s.Parts); err != nil {
			return nil, fmt.Errorf("error decoding parts: %v", err)
		}
		songs = append(songs, s)
	}
	return songs, rows.Err()
}
