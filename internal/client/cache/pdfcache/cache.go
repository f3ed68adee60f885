// Package pdfcache is the content cache of fetched sheet-music binaries.
// Documents are fetched strictly sequentially through the same-origin proxy,
// persisted base64-encoded in the blob store, and purged lazily by TTL
// before each caching run. A failure on one song never aborts its siblings;
// only cancellation breaks the loop, and partially cached songs stay cached.
package pdfcache

import (
	"context"
	"sync"
	"time"

	"github.com/kantorei/chorsync/internal/client/models"
	"github.com/kantorei/chorsync/internal/client/notify"
	"github.com/kantorei/chorsync/internal/client/repositories/blobstore"
	"github.com/kantorei/chorsync/internal/logging"
)

// TTL is how long a cached document stays before the lazy purge removes it.
const TTL = 30 * 24 * time.Hour

// Fetcher retrieves a document through the same-origin PDF proxy and returns
// the base64-encoded payload. Documents are never fetched cross-origin.
type Fetcher interface {
	FetchPDF(ctx context.Context, url string) (string, error)
}

// Progress is the ephemeral state of the current caching run. It is reset at
// the start of each run and always cleared back to not-running on exit.
type Progress struct {
	Total     int    `json:"total"`
	Cached    int    `json:"cached"`
	Current   string `json:"current"`
	IsRunning bool   `json:"isRunning"`
	Err       string `json:"error,omitempty"`
}

type Cache struct {
	blobs  blobstore.Repository
	fetch  Fetcher
	events *notify.Registry
	log    logging.Logger
	now    func() time.Time

	mu        sync.Mutex
	progress  Progress
	cancelRun context.CancelFunc
}

func New(blobs blobstore.Repository, fetch Fetcher, events *notify.Registry, log logging.Logger) *Cache {
	return &Cache{blobs: blobs, fetch: fetch, events: events, log: log, now: time.Now}
}

// CacheServiceSongs fetches and persists the documents for the given songs
// on behalf of one service. Songs already cached are skipped via one batched
// lookup. Returns true only if every song that still needed caching
// succeeded; when nothing needs caching it returns true immediately without
// emitting progress events.
func (c *Cache) CacheServiceSongs(ctx context.Context, serviceID string, songs []models.Song) bool {
	c.purgeExpired(ctx)

	ids := make([]string, 0, len(songs))
	for _, s := range songs {
		ids = append(ids, s.ID)
	}
	status := c.CheckCacheStatus(ctx, ids)

	var remaining []models.Song
	for _, s := range songs {
		if !status[s.ID] {
			remaining = append(remaining, s)
		}
	}
	if len(remaining) == 0 {
		return true
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.progress = Progress{Total: len(remaining), IsRunning: true}
	c.cancelRun = cancel
	c.mu.Unlock()
	c.publishProgress()

	defer func() {
		c.mu.Lock()
		c.progress.IsRunning = false
		c.progress.Current = ""
		c.cancelRun = nil
		c.mu.Unlock()
		c.publishProgress()
	}()

	allSucceeded := true
	for _, song := range remaining {
		// cooperative cancellation, checked at each loop boundary
		if runCtx.Err() != nil {
			allSucceeded = false
			break
		}

		url := song.DocumentURL()
		if url == "" {
			c.log.Warn(ctx, "song has no document url, skipping", "song", song.ID, "title", song.Title)
			allSucceeded = false
			continue
		}

		c.setCurrent(song.Title)

		data, err := c.fetch.FetchPDF(runCtx, url)
		if err != nil {
			if runCtx.Err() != nil {
				// user-initiated cancellation is not a failure state
				allSucceeded = false
				break
			}
			c.log.Warn(ctx, "failed to fetch document", "song", song.ID, "error", err)
			c.setErr(err.Error())
			allSucceeded = false
			continue
		}

		entry := &models.PDFEntry{
			SongID:    song.ID,
			ServiceID: serviceID,
			Title:     song.Title,
			Data:      data,
			CreatedAt: c.now().UnixMilli(),
		}
		if err := c.blobs.Put(ctx, entry); err != nil {
			c.log.Warn(ctx, "failed to store document", "song", song.ID, "error", err)
			c.setErr(err.Error())
			allSucceeded = false
			continue
		}

		c.mu.Lock()
		c.progress.Cached++
		c.mu.Unlock()
		c.publishProgress()
	}

	return allSucceeded
}

// GetCachedPDF returns the cached entry for a song, or nil on a miss.
// Storage failures are logged and reported as misses.
func (c *Cache) GetCachedPDF(ctx context.Context, songID string) *models.PDFEntry {
	entry, err := c.blobs.Get(ctx, songID)
	if err != nil {
		c.log.Warn(ctx, "pdf cache read failed", "song", songID, "error", err)
		return nil
	}
	return entry
}

// CheckCacheStatus reports, in one batched lookup, which of the given songs
// are already cached.
func (c *Cache) CheckCacheStatus(ctx context.Context, songIDs []string) map[string]bool {
	result := make(map[string]bool, len(songIDs))
	for _, id := range songIDs {
		result[id] = false
	}

	cached, err := c.blobs.SongIDs(ctx)
	if err != nil {
		c.log.Warn(ctx, "pdf cache status lookup failed", "error", err)
		return result
	}

	set := make(map[string]struct{}, len(cached))
	for _, id := range cached {
		set[id] = struct{}{}
	}
	for _, id := range songIDs {
		_, ok := set[id]
		result[id] = ok
	}
	return result
}

// CancelCaching aborts the in-flight caching run, if any. The loop stops
// once the current fetch completes or rejects; already cached songs remain.
func (c *Cache) CancelCaching() {
	c.mu.Lock()
	cancel := c.cancelRun
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Progress returns a snapshot of the current run state.
func (c *Cache) Progress() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

func (c *Cache) purgeExpired(ctx context.Context) {
	cutoff := c.now().Add(-TTL).UnixMilli()
	n, err := c.blobs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		c.log.Warn(ctx, "pdf cache purge failed", "error", err)
		return
	}
	if n > 0 {
		c.log.Info(ctx, "purged expired documents", "count", n)
	}
}

func (c *Cache) setCurrent(title string) {
	c.mu.Lock()
	c.progress.Current = title
	c.mu.Unlock()
	c.publishProgress()
}

func (c *Cache) setErr(msg string) {
	c.mu.Lock()
	c.progress.Err = msg
	c.mu.Unlock()
}

func (c *Cache) publishProgress() {
	if c.events == nil {
		return
	}
	c.events.Publish(notify.TopicCachingProgress, c.Progress())
}
