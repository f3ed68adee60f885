// Package datacache is the TTL-bounded cache of whole collections (songs,
// services, choir metadata) keyed by choir identity. Reads are valid only
// when the stored choir matches the requesting one and the entry is younger
// than MaxAge; everything else is a miss. All operations are best-effort:
// storage failures are logged and treated as cache misses, never surfaced.
package datacache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/kantorei/chorsync/internal/client/repositories/kvstore"
	"github.com/kantorei/chorsync/internal/logging"
)

// MaxAge is how long a cached collection stays valid.
const MaxAge = 7 * 24 * time.Hour

// Fixed collection keys.
const (
	KeySongs    = "data_cache_songs"
	KeyServices = "data_cache_services"
	KeyChoir    = "data_cache_choir"
)

// KeyRepertoire returns the per-choir repertoire materialization key used by
// the sync engine.
func KeyRepertoire(choirID string) string { return "choir_songs_v2_" + choirID }

// clearPrefixes are the key families a full Clear wipes.
var clearPrefixes = []string{"data_cache_", "choir_songs_v2_", "choir_sync_v2_"}

type envelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // unix milliseconds
	ChoirID   string          `json:"choirId"`
}

type Cache struct {
	kv  kvstore.Repository
	log logging.Logger
	now func() time.Time
}

func New(kv kvstore.Repository, log logging.Logger) *Cache {
	return &Cache{kv: kv, log: log, now: time.Now}
}

// Get loads the collection stored under key into out and reports whether a
// valid entry was found. A stale entry is deleted as a side effect.
func (c *Cache) Get(ctx context.Context, key, choirID string, out any) bool {
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		c.log.Warn(ctx, "data cache read failed", "key", key, "error", err)
		return false
	}
	if raw == nil {
		return false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Warn(ctx, "data cache entry corrupt", "key", key, "error", err)
		return false
	}

	if env.ChoirID != choirID {
		return false
	}

	age := c.now().UnixMilli() - env.Timestamp
	if age > MaxAge.Milliseconds() {
		if err := c.kv.Delete(ctx, key); err != nil {
			c.log.Warn(ctx, "data cache eviction failed", "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		c.log.Warn(ctx, "data cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

// Set stores data under key, stamped with now and the owning choir.
// Unconditional overwrite.
func (c *Cache) Set(ctx context.Context, key, choirID string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		c.log.Warn(ctx, "data cache serialization failed", "key", key, "error", err)
		return
	}

	raw, err := json.Marshal(envelope{
		Data:      payload,
		Timestamp: c.now().UnixMilli(),
		ChoirID:   choirID,
	})
	if err != nil {
		c.log.Warn(ctx, "data cache serialization failed", "key", key, "error", err)
		return
	}

	if err := c.kv.Set(ctx, key, raw); err != nil {
		c.log.Warn(ctx, "data cache write failed", "key", key, "error", err)
	}
}

// Clear removes entries owned by choirID; with an empty choirID it wipes
// every known cache key.
func (c *Cache) Clear(ctx context.Context, choirID string) {
	for _, prefix := range clearPrefixes {
		keys, err := c.kv.Keys(ctx, prefix)
		if err != nil {
			c.log.Warn(ctx, "data cache key listing failed", "prefix", prefix, "error", err)
			continue
		}

		for _, key := range keys {
			if choirID != "" && !c.ownedBy(ctx, key, choirID) {
				continue
			}
			if err := c.kv.Delete(ctx, key); err != nil {
				c.log.Warn(ctx, "data cache delete failed", "key", key, "error", err)
			}
		}
	}
}

// ownedBy decodes the entry under key to inspect its choir ownership.
// Non-envelope entries (e.g. sync watermarks) fall back to a key-suffix
// match.
func (c *Cache) ownedBy(ctx context.Context, key, choirID string) bool {
	raw, err := c.kv.Get(ctx, key)
	if err != nil || raw == nil {
		return false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.ChoirID != "" {
		return env.ChoirID == choirID
	}
	return strings.HasSuffix(key, "_"+choirID)
}
