package gatewaycache

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE gateway_cache (
  generation TEXT NOT NULL,
  url        TEXT NOT NULL,
  status     INTEGER NOT NULL,
  headers    BLOB NOT NULL,
  body       BLOB NOT NULL,
  created_at INTEGER NOT NULL,
  PRIMARY KEY (generation, url)
);`)
	require.NoError(t, err)
	return db
}

func response(url string) *CachedResponse {
	return &CachedResponse{
		URL:       url,
		Status:    200,
		Headers:   map[string][]string{"Content-Type": {"text/html"}},
		Body:      []byte("<html></html>"),
		CreatedAt: 1000,
	}
}

func TestPutAndGet_RoundTrip(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "v1", response("/index.html")))

	got, err := r.Get(ctx, "v1", "/index.html")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 200, got.Status)
	assert.Equal(t, []string{"text/html"}, got.Headers["Content-Type"])
	assert.Equal(t, []byte("<html></html>"), got.Body)
}

func TestGet_NotExists_ReturnsNilNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	got, err := r.Get(context.Background(), "v1", "/absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGet_IsGenerationScoped(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "v1", response("/index.html")))

	got, err := r.Get(ctx, "v2", "/index.html")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPut_Overwrites(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "v1", response("/index.html")))

	updated := response("/index.html")
	updated.Body = []byte("new")
	require.NoError(t, r.Put(ctx, "v1", updated))

	got, err := r.Get(ctx, "v1", "/index.html")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got.Body)
}

func TestDropOtherGenerations(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "v1", response("/a")))
	require.NoError(t, r.Put(ctx, "v1", response("/b")))
	require.NoError(t, r.Put(ctx, "v2", response("/a")))

	n, err := r.DropOtherGenerations(ctx, "v2")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := r.Get(ctx, "v2", "/a")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
