// Package gateway is the local caching proxy all client traffic is routed
// through. It fronts the application origin and applies one of four
// strategies per request class: plain passthrough, network-first with cache
// fallback, stale-while-revalidate, and cache-first. Responses are stored in
// a versioned sqlite-backed cache; activating a new version drops every
// older generation. The gateway imposes no timeouts of its own, a hanging
// request is the upstream's problem to report.
package gateway

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/kantorei/chorsync/internal/client/repositories/gatewaycache"
	"github.com/kantorei/chorsync/internal/logging"
)

// searchIndexPath is the one API route that is cacheable: the prebuilt
// search index is static per deployment and useful offline.
const searchIndexPath = "/api/search-index.json"

const generationPrefix = "chorsync-"

// offlineDocument is served when a navigation can be satisfied neither from
// the network nor from the cache.
const offlineDocument = `<!doctype html>
<html lang="de">
<head><meta charset="utf-8"><title>Offline</title></head>
<body><h1>Keine Verbindung</h1><p>Die Seite ist offline nicht verf&uuml;gbar.</p></body>
</html>
`

var staticExtensions = map[string]struct{}{
	".js": {}, ".mjs": {}, ".css": {}, ".map": {},
	".png": {}, ".jpg": {}, ".jpeg": {}, ".webp": {}, ".svg": {}, ".ico": {},
	".woff": {}, ".woff2": {}, ".ttf": {},
}

// Config describes the origin the gateway fronts and how requests are
// classified.
type Config struct {
	// Version tags the cache generation; bumping it and calling Activate
	// evicts everything cached by previous versions.
	Version string
	// Upstream is the application origin relative requests resolve against.
	Upstream *url.URL
	// AppShell lists the paths precached during Install.
	AppShell []string
	// PassthroughHosts are origins never cached (identity providers, live
	// databases).
	PassthroughHosts []string
	// StorageHosts are immutable-content origins served cache-first.
	StorageHosts []string
}

type Gateway struct {
	store  gatewaycache.Repository
	client *http.Client
	cfg    Config
	log    logging.Logger
	now    func() time.Time
}

func New(store gatewaycache.Repository, client *http.Client, cfg Config, log logging.Logger) *Gateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &Gateway{store: store, client: client, cfg: cfg, log: log, now: time.Now}
}

// Generation returns the cache partition tag for the configured version.
func (g *Gateway) Generation() string { return generationPrefix + g.cfg.Version }

// Install precaches the app shell into the current generation. Any shell
// path that cannot be fetched fails the install; a half-precached shell is
// worse than none because the version would claim to work offline.
func (g *Gateway) Install(ctx context.Context) error {
	for _, p := range g.cfg.AppShell {
		if err := g.fetchAndCache(ctx, p); err != nil {
			return err
		}
	}
	g.log.Info(ctx, "gateway installed", "generation", g.Generation(), "precached", len(g.cfg.AppShell))
	return nil
}

// Activate drops every cache generation other than the current one.
func (g *Gateway) Activate(ctx context.Context) error {
	n, err := g.store.DropOtherGenerations(ctx, g.Generation())
	if err != nil {
		return err
	}
	g.log.Info(ctx, "gateway activated", "generation", g.Generation(), "evicted", n)
	return nil
}

// Warm best-effort precaches the given paths. Used by the prefetch
// orchestrator; failures are logged and ignored.
func (g *Gateway) Warm(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := g.fetchAndCache(ctx, p); err != nil {
			g.log.Debug(ctx, "route warmup failed", "path", p, "error", err)
		}
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method != http.MethodGet:
		g.passthrough(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/") && r.URL.Path != searchIndexPath:
		g.passthrough(w, r)
	case g.hostIn(r, g.cfg.PassthroughHosts):
		g.passthrough(w, r)
	case isNavigation(r):
		g.networkFirst(w, r, g.serveOfflineDocument)
	case isStaticAsset(r.URL.Path) || r.URL.Path == searchIndexPath:
		g.staleWhileRevalidate(w, r)
	case g.hostIn(r, g.cfg.StorageHosts):
		g.cacheFirst(w, r)
	default:
		g.networkFirst(w, r, serveUnavailable)
	}
}

// passthrough proxies without touching the cache.
func (g *Gateway) passthrough(w http.ResponseWriter, r *http.Request) {
	resp, err := g.fetch(r)
	if err != nil {
		http.Error(w, "upstream unreachable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

// networkFirst tries the network, falls back to the cache, then to the
// given last resort.
func (g *Gateway) networkFirst(w http.ResponseWriter, r *http.Request, lastResort func(http.ResponseWriter)) {
	resp, err := g.fetch(r)
	if err == nil {
		defer resp.Body.Close()
		g.serveAndCache(w, r, resp)
		return
	}

	if g.serveFromCache(w, r) {
		return
	}
	lastResort(w)
}

// staleWhileRevalidate serves the cached copy immediately when present and
// refreshes it in the background; a miss degrades to plain network.
func (g *Gateway) staleWhileRevalidate(w http.ResponseWriter, r *http.Request) {
	cached, err := g.store.Get(r.Context(), g.Generation(), cacheKey(r))
	if err != nil {
		g.log.Warn(r.Context(), "gateway cache read failed", "url", cacheKey(r), "error", err)
	}
	if cached != nil {
		writeCached(w, cached)

		// revalidation outlives the request
		revalidateCtx := context.WithoutCancel(r.Context())
		go func() {
			if err := g.fetchAndCache(revalidateCtx, r.URL.String()); err != nil {
				g.log.Debug(revalidateCtx, "revalidation failed", "url", cacheKey(r), "error", err)
			}
		}()
		return
	}

	resp, err := g.fetch(r)
	if err != nil {
		serveUnavailable(w)
		return
	}
	defer resp.Body.Close()
	g.serveAndCache(w, r, resp)
}

// cacheFirst serves from cache, fetching and caching on a miss.
func (g *Gateway) cacheFirst(w http.ResponseWriter, r *http.Request) {
	if g.serveFromCache(w, r) {
		return
	}

	resp, err := g.fetch(r)
	if err != nil {
		serveUnavailable(w)
		return
	}
	defer resp.Body.Close()
	g.serveAndCache(w, r, resp)
}

// fetch forwards the request upstream. Relative URLs resolve against the
// configured origin; absolute URLs are fetched as-is.
func (g *Gateway) fetch(r *http.Request) (*http.Response, error) {
	target := r.URL
	if !target.IsAbs() {
		target = g.cfg.Upstream.ResolveReference(target)
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		return nil, err
	}
	copyHeader(req.Header, r.Header)
	return g.client.Do(req)
}

func (g *Gateway) fetchAndCache(ctx context.Context, rawURL string) error {
	target, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	// the cache key is the URL as requested, before origin resolution
	key := keyFor(target)
	if !target.IsAbs() {
		target = g.cfg.Upstream.ResolveReference(target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &unexpectedStatusError{url: target.String(), status: resp.StatusCode}
	}
	return g.put(ctx, key, resp, body)
}

// serveAndCache writes the upstream response through and stores it when it
// is a cacheable success.
func (g *Gateway) serveAndCache(w http.ResponseWriter, r *http.Request, resp *http.Response) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		http.Error(w, "upstream read failed", http.StatusBadGateway)
		return
	}

	if resp.StatusCode == http.StatusOK {
		if err := g.put(r.Context(), cacheKey(r), resp, body); err != nil {
			g.log.Warn(r.Context(), "gateway cache write failed", "url", cacheKey(r), "error", err)
		}
	}

	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
}

func (g *Gateway) serveFromCache(w http.ResponseWriter, r *http.Request) bool {
	cached, err := g.store.Get(r.Context(), g.Generation(), cacheKey(r))
	if err != nil {
		g.log.Warn(r.Context(), "gateway cache read failed", "url", cacheKey(r), "error", err)
		return false
	}
	if cached == nil {
		return false
	}
	writeCached(w, cached)
	return true
}

func (g *Gateway) serveOfflineDocument(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, bytes.NewReader([]byte(offlineDocument)))
}

func (g *Gateway) put(ctx context.Context, key string, resp *http.Response, body []byte) error {
	return g.store.Put(ctx, g.Generation(), &gatewaycache.CachedResponse{
		URL:       key,
		Status:    resp.StatusCode,
		Headers:   resp.Header,
		Body:      body,
		CreatedAt: g.now().UnixMilli(),
	})
}

func (g *Gateway) hostIn(r *http.Request, hosts []string) bool {
	host := r.URL.Host
	if host == "" {
		host = r.Host
	}
	for _, h := range hosts {
		if strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}

func serveUnavailable(w http.ResponseWriter) {
	http.Error(w, "offline and not cached", http.StatusServiceUnavailable)
}

func writeCached(w http.ResponseWriter, cached *gatewaycache.CachedResponse) {
	copyHeader(w.Header(), cached.Headers)
	w.WriteHeader(cached.Status)
	_, _ = w.Write(cached.Body)
}

func copyHeader(dst http.Header, src map[string][]string) {
	for k, values := range src {
		for _, v := range values {
			dst.Add(k, v)
		}
	}
}

// cacheKey identifies a response by its full request URL including the
// query string.
func cacheKey(r *http.Request) string { return keyFor(r.URL) }

func keyFor(u *url.URL) string {
	if u.IsAbs() {
		return u.String()
	}
	key := u.Path
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key
}

func isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func isStaticAsset(p string) bool {
	if strings.HasPrefix(p, "/assets/") || strings.HasPrefix(p, "/chunks/") {
		return true
	}
	_, ok := staticExtensions[strings.ToLower(path.Ext(p))]
	return ok
}

type unexpectedStatusError struct {
	url    string
	status int
}

func (e *unexpectedStatusError) Error() string {
	return "unexpected status " + http.StatusText(e.status) + " for " + e.url
}
