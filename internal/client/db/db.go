// Package db opens the client's local sqlite database and wires the
// repositories that share it.
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/kantorei/chorsync/internal/client/db/migrations"
	"github.com/kantorei/chorsync/internal/client/repositories/blobstore"
	"github.com/kantorei/chorsync/internal/client/repositories/kvstore"
)

// Repositories bundles the store implementations backed by one database.
type Repositories struct {
	KV    kvstore.Repository
	Blobs blobstore.Repository
	DB    *sql.DB
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (or creates) the local database at dsn, migrates it and
// returns the repository set.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		return nil, err
	}

	return &Repositories{
		KV:    kvstore.NewSQLiteRepository(db),
		Blobs: blobstore.NewSQLiteRepository(db),
		DB:    db,
	}, nil
}
