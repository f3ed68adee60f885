package datacache

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kantorei/chorsync/internal/client/models"
	"github.com/kantorei/chorsync/internal/client/repositories/kvstore"
	"github.com/kantorei/chorsync/internal/logging"

	_ "modernc.org/sqlite"
)

func setupCache(t *testing.T) (*Cache, kvstore.Repository) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE kvstore (key TEXT PRIMARY KEY, value BLOB NOT NULL);`)
	require.NoError(t, err)

	kv := kvstore.NewSQLiteRepository(db)
	return New(kv, logging.NewNopLogger()), kv
}

func TestGet_MissWhenEmpty(t *testing.T) {
	c, _ := setupCache(t)

	var out []models.Song
	assert.False(t, c.Get(context.Background(), KeySongs, "c1", &out))
}

func TestSetThenGet_SameChoir(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	songs := []models.Song{{ID: "s1", Title: "Kyrie"}}
	c.Set(ctx, KeySongs, "c1", songs)

	var out []models.Song
	require.True(t, c.Get(ctx, KeySongs, "c1", &out))
	assert.Equal(t, songs, out)
}

func TestGet_ChoirMismatchIsMiss(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	c.Set(ctx, KeySongs, "choirA", []models.Song{{ID: "s1"}})

	var out []models.Song
	assert.False(t, c.Get(ctx, KeySongs, "choirB", &out))
}

func TestGet_TTLBoundary(t *testing.T) {
	c, kv := setupCache(t)
	ctx := context.Background()

	written := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return written }
	c.Set(ctx, KeySongs, "c1", []models.Song{{ID: "s1"}})

	// still present one millisecond before expiry
	c.now = func() time.Time { return written.Add(MaxAge - time.Millisecond) }
	var out []models.Song
	assert.True(t, c.Get(ctx, KeySongs, "c1", &out))

	// absent one millisecond after expiry, and evicted as a side effect
	c.now = func() time.Time { return written.Add(MaxAge + time.Millisecond) }
	assert.False(t, c.Get(ctx, KeySongs, "c1", &out))

	raw, err := kv.Get(ctx, KeySongs)
	require.NoError(t, err)
	assert.Nil(t, raw, "expired entry should have been deleted")
}

func TestSet_OverwritesUnconditionally(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	c.Set(ctx, KeyChoir, "c1", map[string]string{"name": "old"})
	c.Set(ctx, KeyChoir, "c1", map[string]string{"name": "new"})

	var out map[string]string
	require.True(t, c.Get(ctx, KeyChoir, "c1", &out))
	assert.Equal(t, "new", out["name"])
}

func TestClear_ByChoirRemovesOnlyOwnedEntries(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	c.Set(ctx, KeyRepertoire("c1"), "c1", []models.Song{{ID: "a"}})
	c.Set(ctx, KeyRepertoire("c2"), "c2", []models.Song{{ID: "b"}})

	c.Clear(ctx, "c1")

	var out []models.Song
	assert.False(t, c.Get(ctx, KeyRepertoire("c1"), "c1", &out))
	assert.True(t, c.Get(ctx, KeyRepertoire("c2"), "c2", &out))
}

func TestClear_AllWipesEveryKnownKey(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	c.Set(ctx, KeySongs, "c1", []models.Song{{ID: "a"}})
	c.Set(ctx, KeyRepertoire("c2"), "c2", []models.Song{{ID: "b"}})

	c.Clear(ctx, "")

	var out []models.Song
	assert.False(t, c.Get(ctx, KeySongs, "c1", &out))
	assert.False(t, c.Get(ctx, KeyRepertoire("c2"), "c2", &out))
}

func TestGet_CorruptEntryIsMissNotError(t *testing.T) {
	c, kv := setupCache(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, KeySongs, []byte("not-json")))

	var out []models.Song
	assert.False(t, c.Get(ctx, KeySongs, "c1", &out))
}
