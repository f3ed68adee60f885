// Package app wires the client components together: local database, caches,
// remote API client, offline gateway, sync engine and prefetch orchestrator.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kantorei/chorsync/internal/client/cache/attendance"
	"github.com/kantorei/chorsync/internal/client/cache/datacache"
	"github.com/kantorei/chorsync/internal/client/cache/pdfcache"
	"github.com/kantorei/chorsync/internal/client/config"
	"github.com/kantorei/chorsync/internal/client/db"
	"github.com/kantorei/chorsync/internal/client/gateway"
	"github.com/kantorei/chorsync/internal/client/notify"
	"github.com/kantorei/chorsync/internal/client/prefetch"
	"github.com/kantorei/chorsync/internal/client/remote"
	"github.com/kantorei/chorsync/internal/client/repositories/gatewaycache"
	syncengine "github.com/kantorei/chorsync/internal/client/sync"
	"github.com/kantorei/chorsync/internal/logging"
)

// sessionKey is the kvstore key the token pair is persisted under so a
// restarted client keeps its session.
const sessionKey = "session_tokens_v1"

// appShell lists the routes precached on gateway install.
var appShell = []string{"/", "/services", "/repertoire", "/offline"}

type App struct {
	Config     *config.Config
	Log        logging.Logger
	Events     *notify.Registry
	Remote     *remote.Client
	Data       *datacache.Cache
	Attendance *attendance.Cache
	PDFs       *pdfcache.Cache
	Gateway    *gateway.Gateway
	Sync       *syncengine.Engine
	Prefetch   *prefetch.Orchestrator

	repos      *db.Repositories
	gatewaySrv *http.Server
}

func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	repos, err := db.InitDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	upstream, err := url.Parse(cfg.ServerAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", cfg.ServerAddr, err)
	}

	events := notify.NewRegistry()

	gw := gateway.New(gatewaycache.NewSQLiteRepository(repos.DB), nil, gateway.Config{
		Version:  cfg.CacheVersion,
		Upstream: upstream,
		AppShell: appShell,
	}, log)

	// all client traffic goes through the local gateway
	rc := remote.New("http://"+cfg.GatewayAddr, nil, log)

	data := datacache.New(repos.KV, log)
	att := attendance.New(repos.KV, log)
	pdfs := pdfcache.New(repos.Blobs, rc, events, log)

	a := &App{
		Config:     cfg,
		Log:        log,
		Events:     events,
		Remote:     rc,
		Data:       data,
		Attendance: att,
		PDFs:       pdfs,
		Gateway:    gw,
		Sync:       syncengine.New(repos.KV, data, rc, events, log),
		Prefetch:   prefetch.New(rc, data, pdfs, gw, events, log),
		repos:      repos,
	}

	a.Prefetch.SetStartDelay(cfg.PrefetchDelay)
	a.restoreSession(ctx)
	return a, nil
}

// StartGateway installs and activates the gateway cache and starts serving
// it on the configured local address.
func (a *App) StartGateway(ctx context.Context) error {
	if err := a.Gateway.Install(ctx); err != nil {
		a.Log.Warn(ctx, "gateway install incomplete, continuing without full app shell", "error", err)
	}
	if err := a.Gateway.Activate(ctx); err != nil {
		return fmt.Errorf("gateway activation failed: %w", err)
	}

	a.gatewaySrv = &http.Server{Addr: a.Config.GatewayAddr, Handler: a.Gateway}
	go func() {
		if err := a.gatewaySrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Log.Error(ctx, "gateway server stopped", "error", err)
		}
	}()
	a.Log.Info(ctx, "offline gateway listening", "addr", a.Config.GatewayAddr)
	return nil
}

// SyncNow runs one delta sync and persists the possibly rotated token pair.
func (a *App) SyncNow(ctx context.Context, choirID string, force bool) syncengine.Result {
	res := a.Sync.Sync(ctx, choirID, a.Sync.LastSync(ctx, choirID), force)
	a.SaveSession(ctx)
	return res
}

type storedSession struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SaveSession persists the current token pair.
func (a *App) SaveSession(ctx context.Context) {
	raw, err := json.Marshal(storedSession{
		AccessToken:  a.Remote.AccessToken(),
		RefreshToken: a.Remote.RefreshToken(),
	})
	if err != nil {
		return
	}
	if err := a.repos.KV.Set(ctx, sessionKey, raw); err != nil {
		a.Log.Warn(ctx, "failed to persist session", "error", err)
	}
}

func (a *App) restoreSession(ctx context.Context) {
	raw, err := a.repos.KV.Get(ctx, sessionKey)
	if err != nil || raw == nil {
		return
	}
	var s storedSession
	if err := json.Unmarshal(raw, &s); err != nil {
		a.Log.Warn(ctx, "stored session corrupt", "error", err)
		return
	}
	a.Remote.SetTokens(s.AccessToken, s.RefreshToken)
}

// Close shuts the gateway down and closes the local database.
func (a *App) Close(ctx context.Context) error {
	if a.gatewaySrv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.gatewaySrv.Shutdown(shutdownCtx); err != nil {
			a.Log.Warn(ctx, "gateway shutdown failed", "error", err)
		}
	}
	a.Events.Dispose()
	return a.repos.DB.Close()
}
