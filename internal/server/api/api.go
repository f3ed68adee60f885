// Package api assembles the server's HTTP surface: the versioned JSON API
// registered through huma on a chi mux, plus the PDF proxy mounted beside it.
package api

import (
	"database/sql"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/kantorei/chorsync/internal/logging"
	"github.com/kantorei/chorsync/internal/server/api/authapi"
	"github.com/kantorei/chorsync/internal/server/api/catalog"
	authmw "github.com/kantorei/chorsync/internal/server/api/middleware/auth"
	"github.com/kantorei/chorsync/internal/server/api/sheets"
	"github.com/kantorei/chorsync/internal/server/config"
	"github.com/kantorei/chorsync/internal/server/proxy"
	"github.com/kantorei/chorsync/internal/server/repositories/choirservices"
	"github.com/kantorei/chorsync/internal/server/repositories/refreshtokens"
	"github.com/kantorei/chorsync/internal/server/repositories/songs"
	"github.com/kantorei/chorsync/internal/server/repositories/users"
	"github.com/kantorei/chorsync/internal/server/services"
)

// New builds the full router with all operations registered.
func New(db *sql.DB, cfg *config.Config, log logging.Logger) *chi.Mux {
	mux := chi.NewMux()

	humaCfg := huma.DefaultConfig("ChorSync API", "1.0.0")
	humaCfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, humaCfg)

	userRepo := users.NewPostgresRepository(db)
	tokenRepo := refreshtokens.NewPostgresRepository(db)
	songRepo := songs.NewPostgresRepository(db)
	serviceRepo := choirservices.NewPostgresRepository(db)

	userService := services.NewUserService(userRepo, tokenRepo, cfg)
	catalogService := services.NewCatalogService(songRepo, serviceRepo)

	authorized := huma.Middlewares{authmw.New([]byte(cfg.SecretKey), log).Middleware()}

	authHandler := authapi.NewHandler(userService, log, nil, authorized)
	authHandler.SetupRoutes(API)

	catalogHandler := catalog.NewHandler(catalogService, log, authorized)
	catalogHandler.SetupRoutes(API)

	sheetsHandler := sheets.NewHandler(services.NewStorageService(cfg), log, authorized)
	sheetsHandler.SetupRoutes(API)

	pdfProxy := proxy.New(cfg.AllowedProxyOrigins, nil, log)
	mux.Get("/api/pdf-proxy", pdfProxy.ServeHTTP)

	return mux
}
