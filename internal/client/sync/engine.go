// Package sync implements timestamp-based delta synchronization of a choir's
// repertoire against the remote store. Each run fetches only records changed
// since the per-choir watermark, merges them into the local snapshot with
// deletions applied before upserts, and advances the watermark only after the
// merged snapshot has been persisted. Runs never return an error to the
// caller; failures leave local state untouched and are reported in the
// Result.
package sync

import (
	"context"
	"encoding/json"
	stdsync "sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kantorei/chorsync/internal/client/cache/datacache"
	"github.com/kantorei/chorsync/internal/client/models"
	"github.com/kantorei/chorsync/internal/client/notify"
	"github.com/kantorei/chorsync/internal/client/repositories/kvstore"
	"github.com/kantorei/chorsync/internal/logging"
)

// Debounce is the minimum gap between unforced runs for the same choir.
const Debounce = 60 * time.Second

const watermarkPrefix = "choir_sync_v2_"

// WatermarkKey returns the kvstore key holding a choir's last successful
// sync timestamp.
func WatermarkKey(choirID string) string { return watermarkPrefix + choirID }

// Remote is the slice of the server API the engine consumes.
type Remote interface {
	// ListUpdatedSince returns records changed after since plus the server
	// clock reading the next watermark is taken from.
	ListUpdatedSince(ctx context.Context, choirID string, since int64) ([]models.Song, int64, error)
	ListDeletedSince(ctx context.Context, choirID string, since int64) ([]string, error)
	// AccessToken returns the currently held access token, "" when logged out.
	AccessToken() string
	ResyncClaims(ctx context.Context) error
	ForceRefresh(ctx context.Context) error
}

// Result describes one sync attempt.
type Result struct {
	Synced  bool   `json:"synced"`
	Skipped bool   `json:"skipped"`
	ChoirID string `json:"choirId"`
	Updated int    `json:"updated"`
	Deleted int    `json:"deleted"`
	Err     string `json:"error,omitempty"`
}

type Engine struct {
	kv     kvstore.Repository
	data   *datacache.Cache
	remote Remote
	events *notify.Registry
	log    logging.Logger
	now    func() time.Time

	mu          stdsync.Mutex
	lastAttempt map[string]time.Time
}

func New(kv kvstore.Repository, data *datacache.Cache, remote Remote, events *notify.Registry, log logging.Logger) *Engine {
	return &Engine{
		kv:          kv,
		data:        data,
		remote:      remote,
		events:      events,
		log:         log,
		now:         time.Now,
		lastAttempt: make(map[string]time.Time),
	}
}

// LastSync returns the stored watermark for a choir, 0 when the choir has
// never been synced.
func (e *Engine) LastSync(ctx context.Context, choirID string) int64 {
	raw, err := e.kv.Get(ctx, WatermarkKey(choirID))
	if err != nil {
		e.log.Warn(ctx, "watermark read failed", "choir", choirID, "error", err)
		return 0
	}
	if raw == nil {
		return 0
	}
	var ts int64
	if err := json.Unmarshal(raw, &ts); err != nil {
		e.log.Warn(ctx, "watermark corrupt", "choir", choirID, "error", err)
		return 0
	}
	return ts
}

// Sync runs one delta sync for the choir. Unforced runs within Debounce of
// the previous attempt are skipped. The call never fails: every outcome,
// including remote errors, is reported through the Result and the sync
// completion event.
func (e *Engine) Sync(ctx context.Context, choirID string, lastSync int64, force bool) Result {
	res := Result{ChoirID: choirID}

	if !e.admit(choirID, force) {
		res.Skipped = true
		e.log.Debug(ctx, "sync debounced", "choir", choirID)
		return res
	}

	if err := e.ensureChoirClaim(ctx, choirID); err != nil {
		res.Err = err.Error()
		e.log.Warn(ctx, "sync aborted, choir not in token claims", "choir", choirID, "error", err)
		e.publish(res)
		return res
	}

	// a missing snapshot forces a full resync regardless of the watermark
	var current []models.Song
	if !e.data.Get(ctx, datacache.KeyRepertoire(choirID), choirID, &current) {
		lastSync = 0
	}

	updated, serverTime, err := e.remote.ListUpdatedSince(ctx, choirID, lastSync)
	if err != nil {
		res.Err = err.Error()
		e.log.Warn(ctx, "sync fetch failed", "choir", choirID, "error", err)
		e.publish(res)
		return res
	}
	deleted, err := e.remote.ListDeletedSince(ctx, choirID, lastSync)
	if err != nil {
		res.Err = err.Error()
		e.log.Warn(ctx, "sync fetch failed", "choir", choirID, "error", err)
		e.publish(res)
		return res
	}

	merged := merge(current, updated, deleted)
	sortByTitle(merged)

	e.data.Set(ctx, datacache.KeyRepertoire(choirID), choirID, merged)
	if err := e.setWatermark(ctx, choirID, serverTime); err != nil {
		res.Err = err.Error()
		e.log.Warn(ctx, "watermark write failed", "choir", choirID, "error", err)
		e.publish(res)
		return res
	}

	res.Synced = true
	res.Updated = len(updated)
	res.Deleted = len(deleted)
	e.log.Info(ctx, "sync completed", "choir", choirID, "updated", res.Updated, "deleted", res.Deleted)
	e.publish(res)
	return res
}

// admit applies the per-choir debounce and records the attempt.
func (e *Engine) admit(choirID string, force bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if !force {
		if last, ok := e.lastAttempt[choirID]; ok && now.Sub(last) < Debounce {
			return false
		}
	}
	e.lastAttempt[choirID] = now
	return true
}

// tokenClaims is the slice of the access token the engine inspects. The
// signature is deliberately not verified here; the token was already
// accepted by the server that issued it, and the engine only needs to know
// whether a claim resync is worth attempting.
type tokenClaims struct {
	ChoirIDs []string `json:"choir_ids"`
	jwt.RegisteredClaims
}

// ensureChoirClaim checks that the held access token lists the target choir
// and, when it does not, asks the server to rebuild the membership claims
// and force-refreshes the token. Stale claims appear when a member is added
// to a choir after their token was minted.
func (e *Engine) ensureChoirClaim(ctx context.Context, choirID string) error {
	if e.hasChoirClaim(choirID) {
		return nil
	}

	e.log.Info(ctx, "choir missing from token claims, resyncing", "choir", choirID)
	if err := e.remote.ResyncClaims(ctx); err != nil {
		return err
	}
	if err := e.remote.ForceRefresh(ctx); err != nil {
		return err
	}
	if !e.hasChoirClaim(choirID) {
		return errNotMember{choirID: choirID}
	}
	return nil
}

func (e *Engine) hasChoirClaim(choirID string) bool {
	token := e.remote.AccessToken()
	if token == "" {
		// nothing to inspect, let the server decide
		return true
	}

	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	for _, id := range claims.ChoirIDs {
		if id == choirID {
			return true
		}
	}
	return false
}

func (e *Engine) setWatermark(ctx context.Context, choirID string, ts int64) error {
	raw, err := json.Marshal(ts)
	if err != nil {
		return err
	}
	return e.kv.Set(ctx, WatermarkKey(choirID), raw)
}

func (e *Engine) publish(res Result) {
	if e.events != nil {
		e.events.Publish(notify.TopicSyncCompleted, res)
	}
}

// merge applies deletions before upserts so a record both deleted and
// re-created in the same window survives.
func merge(current, updated []models.Song, deleted []string) []models.Song {
	byID := make(map[string]models.Song, len(current))
	for _, s := range current {
		byID[s.ID] = s
	}
	for _, id := range deleted {
		delete(byID, id)
	}
	for _, s := range updated {
		byID[s.ID] = s
	}

	merged := make([]models.Song, 0, len(byID))
	for _, s := range byID {
		merged = append(merged, s)
	}
	return merged
}

var titleCollator = collate.New(language.German, collate.IgnoreCase)
var collatorMu stdsync.Mutex

func sortByTitle(songs []models.Song) {
	// collate.Collator carries an internal buffer and is not safe for
	// concurrent use
	collatorMu.Lock()
	defer collatorMu.Unlock()
	titleCollator.Sort(byTitle(songs))
}

type byTitle []models.Song

func (s byTitle) Len() int { return len(s) }
func (s byTitle) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s byTitle) Bytes(i int) []byte { return []byte(s[i].Title) }

type errNotMember struct {
	choirID string
}

func (e errNotMember) Error() string {
	return "not a member of choir " + e.choirID
}
