package gatewaycache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

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

func (r *SQLiteRepository) Get(ctx context.Context, generation, url string) (*CachedResponse, error) {
	resp := &CachedResponse{URL: url}
	var headers []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT status, headers, body, created_at
		FROM gateway_cache WHERE generation = ? AND url = ?
	`, generation, url).Scan(&resp.Status, &headers, &resp.Body, &resp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached response for %s: %w", url, err)
	}
	if err := json.Unmarshal(headers, &resp.Headers); err != nil {
		return nil, fmt.Errorf("failed to decode headers for %s: %w", url, err)
	}
	return resp, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, generation string, resp *CachedResponse) error {
	headers, err := json.Marshal(resp.Headers)
	if err != nil {
		return fmt.Errorf("failed to encode headers for %s: %w", resp.URL, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO gateway_cache (generation, url, status, headers, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(generation, url) DO UPDATE SET
			status = excluded.status,
			headers = excluded.headers,
			body = excluded.body,
			created_at = excluded.created_at
	`, generation, resp.URL, resp.Status, headers, resp.Body, resp.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store cached response for %s: %w", resp.URL, err)
	}
	return nil
}

func (r *SQLiteRepository) DropOtherGenerations(ctx context.Context, keep string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM gateway_cache WHERE generation != ?`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to drop stale cache generations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
