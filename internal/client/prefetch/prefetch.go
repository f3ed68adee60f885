// Package prefetch warms the local caches ahead of offline use. One run per
// session: primary routes are warmed through the offline gateway, the two
// nearest upcoming services are resolved, any of their songs missing from
// the local snapshot are batch-fetched, and each service's resolvable sheet
// documents are handed to the PDF cache. Every step is best-effort and a
// failing service never blocks its siblings.
package prefetch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/kantorei/chorsync/internal/client/cache/datacache"
	"github.com/kantorei/chorsync/internal/client/models"
	"github.com/kantorei/chorsync/internal/client/notify"
	"github.com/kantorei/chorsync/internal/logging"
)

const (
	// StartDelay keeps the orchestrator from competing with interactive
	// startup traffic.
	StartDelay = 3 * time.Second

	// upcomingFetchLimit is how many services are requested; only the
	// nearest keepServices true-future ones are prefetched.
	upcomingFetchLimit = 5
	keepServices       = 2
)

// primaryRoutes are warmed through the gateway at the start of a run.
var primaryRoutes = []string{"/", "/services", "/repertoire"}

// Remote is the slice of the server API the orchestrator consumes.
type Remote interface {
	ListUpcomingServices(ctx context.Context, choirID string, limit int) ([]models.ChoirService, error)
	GetSongsByIDs(ctx context.Context, choirID string, ids []string) ([]models.Song, error)
}

// DocumentCacher persists sheet documents for one service.
type DocumentCacher interface {
	CacheServiceSongs(ctx context.Context, serviceID string, songs []models.Song) bool
}

// RouteWarmer pre-populates the gateway cache for a set of paths.
type RouteWarmer interface {
	Warm(ctx context.Context, paths []string)
}

// Summary is the payload published when a run finishes.
type Summary struct {
	ChoirID  string `json:"choirId"`
	Services int    `json:"services"`
	Complete bool   `json:"complete"`
}

type Orchestrator struct {
	remote Remote
	data   *datacache.Cache
	docs   DocumentCacher
	warmer RouteWarmer
	events *notify.Registry
	log    logging.Logger
	now    func() time.Time
	delay  time.Duration

	ran atomic.Bool
}

func New(remote Remote, data *datacache.Cache, docs DocumentCacher, warmer RouteWarmer, events *notify.Registry, log logging.Logger) *Orchestrator {
	return &Orchestrator{
		remote: remote,
		data:   data,
		docs:   docs,
		warmer: warmer,
		events: events,
		log:    log,
		now:    time.Now,
		delay:  StartDelay,
	}
}

// SetStartDelay overrides the default start delay.
func (o *Orchestrator) SetStartDelay(d time.Duration) { o.delay = d }

// Run executes one prefetch pass for the choir. Repeated calls in the same
// session are no-ops; the guard stays set even when the run fails, a partial
// prefetch is not worth re-contending for bandwidth.
func (o *Orchestrator) Run(ctx context.Context, choirID string) {
	if !o.ran.CompareAndSwap(false, true) {
		o.log.Debug(ctx, "prefetch already ran this session")
		return
	}

	if o.delay > 0 {
		select {
		case <-time.After(o.delay):
		case <-ctx.Done():
			return
		}
	}

	if o.warmer != nil {
		o.warmer.Warm(ctx, primaryRoutes)
	}

	services, err := o.remote.ListUpcomingServices(ctx, choirID, upcomingFetchLimit)
	if err != nil {
		o.log.Warn(ctx, "prefetch: listing upcoming services failed", "choir", choirID, "error", err)
		o.finish(Summary{ChoirID: choirID})
		return
	}

	targets := nearestUpcoming(services, o.now(), keepServices)
	if len(targets) == 0 {
		o.log.Info(ctx, "prefetch: no upcoming services", "choir", choirID)
		o.finish(Summary{ChoirID: choirID, Complete: true})
		return
	}

	songs := o.resolveSongs(ctx, choirID, targets)

	complete := true
	cached := 0
	for _, svc := range targets {
		docs := documentsFor(svc, songs)
		if len(docs) == 0 {
			continue
		}
		if !o.docs.CacheServiceSongs(ctx, svc.ID, docs) {
			complete = false
			o.log.Warn(ctx, "prefetch: service cached partially", "service", svc.ID)
			continue
		}
		cached++
	}

	o.log.Info(ctx, "prefetch finished", "choir", choirID, "services", len(targets), "cachedFully", cached)
	o.finish(Summary{ChoirID: choirID, Services: len(targets), Complete: complete})
}

// resolveSongs returns every referenced song by id, preferring the local
// snapshot and batch-fetching only the ids it does not cover.
func (o *Orchestrator) resolveSongs(ctx context.Context, choirID string, services []models.ChoirService) map[string]models.Song {
	byID := make(map[string]models.Song)

	var snapshot []models.Song
	if o.data.Get(ctx, datacache.KeyRepertoire(choirID), choirID, &snapshot) {
		for _, s := range snapshot {
			byID[s.ID] = s
		}
	}

	var missing []string
	seen := make(map[string]struct{})
	for _, svc := range services {
		for _, id := range svc.SongIDs {
			if _, ok := byID[id]; ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return byID
	}

	fetched, err := o.remote.GetSongsByIDs(ctx, choirID, missing)
	if err != nil {
		o.log.Warn(ctx, "prefetch: batch song fetch failed", "choir", choirID, "error", err)
		return byID
	}
	for _, s := range fetched {
		byID[s.ID] = s
	}
	return byID
}

func (o *Orchestrator) finish(s Summary) {
	if o.events != nil {
		o.events.Publish(notify.TopicPrefetchFinished, s)
	}
}

// nearestUpcoming filters to services strictly in the future and keeps the n
// soonest, preserving the server's soonest-first ordering.
func nearestUpcoming(services []models.ChoirService, now time.Time, n int) []models.ChoirService {
	var upcoming []models.ChoirService
	for _, svc := range services {
		if svc.Deleted || !svc.IsUpcoming(now) {
			continue
		}
		upcoming = append(upcoming, svc)
		if len(upcoming) == n {
			break
		}
	}
	return upcoming
}

// documentsFor returns the service's songs that actually resolve to a sheet
// document.
func documentsFor(svc models.ChoirService, songs map[string]models.Song) []models.Song {
	var docs []models.Song
	for _, id := range svc.SongIDs {
		song, ok := songs[id]
		if !ok || song.DocumentURL() == "" {
			continue
		}
		docs = append(docs, song)
	}
	return docs
}
