package prefetch

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kantorei/chorsync/internal/client/cache/datacache"
	"github.com/kantorei/chorsync/internal/client/models"
	"github.com/kantorei/chorsync/internal/client/repositories/kvstore"
	"github.com/kantorei/chorsync/internal/logging"

	_ "modernc.org/sqlite"
)

type fakeRemote struct {
	services    []models.ChoirService
	servicesErr error
	songs       map[string]models.Song
	batchCalls  [][]string
}

func (f *fakeRemote) ListUpcomingServices(ctx context.Context, choirID string, limit int) ([]models.ChoirService, error) {
	if f.servicesErr != nil {
		return nil, f.servicesErr
	}
	return f.services, nil
}

func (f *fakeRemote) GetSongsByIDs(ctx context.Context, choirID string, ids []string) ([]models.Song, error) {
	f.batchCalls = append(f.batchCalls, ids)
	var out []models.Song
	for _, id := range ids {
		if s, ok := f.songs[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeDocCacher struct {
	calls   map[string][]models.Song
	failFor map[string]bool
}

func (f *fakeDocCacher) CacheServiceSongs(ctx context.Context, serviceID string, songs []models.Song) bool {
	if f.calls == nil {
		f.calls = make(map[string][]models.Song)
	}
	f.calls[serviceID] = songs
	return !f.failFor[serviceID]
}

type fakeWarmer struct {
	warmed []string
}

func (f *fakeWarmer) Warm(ctx context.Context, paths []string) {
	f.warmed = append(f.warmed, paths...)
}

func setupOrchestrator(t *testing.T, remote Remote, docs DocumentCacher, warmer RouteWarmer) (*Orchestrator, *datacache.Cache) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE kvstore (key TEXT PRIMARY KEY, value BLOB NOT NULL);`)
	require.NoError(t, err)

	data := datacache.New(kvstore.NewSQLiteRepository(db), logging.NewNopLogger())
	o := New(remote, data, docs, warmer, nil, logging.NewNopLogger())
	o.delay = 0
	o.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return o, data
}

func song(id, url string) models.Song {
	return models.Song{ID: id, Title: "Song " + id, PDFURL: url}
}

func TestRun_PrefetchesNearestTwoServices(t *testing.T) {
	remote := &fakeRemote{
		services: []models.ChoirService{
			{ID: "past", Date: "2026-02-01", SongIDs: []string{"s9"}},
			{ID: "svc1", Date: "2026-03-08", SongIDs: []string{"s1"}},
			{ID: "svc2", Date: "2026-03-15", SongIDs: []string{"s2"}},
			{ID: "svc3", Date: "2026-03-22", SongIDs: []string{"s3"}},
		},
		songs: map[string]models.Song{
			"s1": song("s1", "/p/u1"),
			"s2": song("s2", "/p/u2"),
			"s3": song("s3", "/p/u3"),
		},
	}
	docs := &fakeDocCacher{}
	o, _ := setupOrchestrator(t, remote, docs, nil)

	o.Run(context.Background(), "c1")

	require.Len(t, docs.calls, 2)
	assert.Contains(t, docs.calls, "svc1")
	assert.Contains(t, docs.calls, "svc2")
	assert.NotContains(t, docs.calls, "svc3", "only the two nearest services are prefetched")
	assert.NotContains(t, docs.calls, "past")
}

func TestRun_OnlyMissingSongsAreBatchFetched(t *testing.T) {
	remote := &fakeRemote{
		services: []models.ChoirService{
			{ID: "svc1", Date: "2026-03-08", SongIDs: []string{"known", "unknown"}},
		},
		songs: map[string]models.Song{"unknown": song("unknown", "/p/u2")},
	}
	docs := &fakeDocCacher{}
	o, data := setupOrchestrator(t, remote, docs, nil)

	data.Set(context.Background(), datacache.KeyRepertoire("c1"), "c1", []models.Song{song("known", "/p/u1")})

	o.Run(context.Background(), "c1")

	require.Len(t, remote.batchCalls, 1)
	assert.Equal(t, []string{"unknown"}, remote.batchCalls[0])
	require.Len(t, docs.calls["svc1"], 2)
}

func TestRun_SkipsSongsWithoutDocuments(t *testing.T) {
	remote := &fakeRemote{
		services: []models.ChoirService{
			{ID: "svc1", Date: "2026-03-08", SongIDs: []string{"s1", "s2"}},
		},
		songs: map[string]models.Song{
			"s1": song("s1", "/p/u1"),
			"s2": song("s2", ""), // no sheet anywhere
		},
	}
	docs := &fakeDocCacher{}
	o, _ := setupOrchestrator(t, remote, docs, nil)

	o.Run(context.Background(), "c1")

	require.Len(t, docs.calls["svc1"], 1)
	assert.Equal(t, "s1", docs.calls["svc1"][0].ID)
}

func TestRun_ServiceFailureIsIsolated(t *testing.T) {
	remote := &fakeRemote{
		services: []models.ChoirService{
			{ID: "svc1", Date: "2026-03-08", SongIDs: []string{"s1"}},
			{ID: "svc2", Date: "2026-03-15", SongIDs: []string{"s2"}},
		},
		songs: map[string]models.Song{
			"s1": song("s1", "/p/u1"),
			"s2": song("s2", "/p/u2"),
		},
	}
	docs := &fakeDocCacher{failFor: map[string]bool{"svc1": true}}
	o, _ := setupOrchestrator(t, remote, docs, nil)

	o.Run(context.Background(), "c1")

	assert.Contains(t, docs.calls, "svc2", "second service still prefetched after first failed")
}

func TestRun_SecondCallIsNoOp(t *testing.T) {
	remote := &fakeRemote{
		services: []models.ChoirService{
			{ID: "svc1", Date: "2026-03-08", SongIDs: []string{"s1"}},
		},
		songs: map[string]models.Song{"s1": song("s1", "/p/u1")},
	}
	docs := &fakeDocCacher{}
	o, _ := setupOrchestrator(t, remote, docs, nil)

	o.Run(context.Background(), "c1")
	before := len(remote.batchCalls)
	o.Run(context.Background(), "c1")
	assert.Equal(t, before, len(remote.batchCalls), "a session runs prefetch at most once")
}

func TestRun_WarmsPrimaryRoutes(t *testing.T) {
	remote := &fakeRemote{}
	warmer := &fakeWarmer{}
	o, _ := setupOrchestrator(t, remote, &fakeDocCacher{}, warmer)

	o.Run(context.Background(), "c1")

	assert.Equal(t, primaryRoutes, warmer.warmed)
}

func TestRun_ListingFailureDoesNotPanic(t *testing.T) {
	remote := &fakeRemote{servicesErr: errors.New("offline")}
	docs := &fakeDocCacher{}
	o, _ := setupOrchestrator(t, remote, docs, nil)

	o.Run(context.Background(), "c1")
	assert.Empty(t, docs.calls)
}

func TestRun_TimedServiceLaterTodayIsUpcoming(t *testing.T) {
	remote := &fakeRemote{
		services: []models.ChoirService{
			{ID: "tonight", Date: "2026-03-01", Time: "19:30", SongIDs: []string{"s1"}},
			{ID: "thisMorning", Date: "2026-03-01", Time: "09:00", SongIDs: []string{"s2"}},
		},
		songs: map[string]models.Song{
			"s1": song("s1", "/p/u1"),
			"s2": song("s2", "/p/u2"),
		},
	}
	docs := &fakeDocCacher{}
	o, _ := setupOrchestrator(t, remote, docs, nil)

	o.Run(context.Background(), "c1")

	assert.Contains(t, docs.calls, "tonight")
	assert.NotContains(t, docs.calls, "thisMorning")
}
