package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/issvwap/config"
	"github.com/guttosm/issvwap/internal/api"
	"github.com/guttosm/issvwap/internal/ingestion"
	"github.com/guttosm/issvwap/internal/iss"
	"github.com/guttosm/issvwap/internal/logger"
	"github.com/guttosm/issvwap/internal/service"
	"github.com/guttosm/issvwap/internal/storage"
)

// warmTimeout bounds a background warm of the watchlist.
const warmTimeout = 5 * time.Minute

// App bundles the wired components that cmd/main.go drives.
type App struct {
	Router    *gin.Engine
	Registry  *ingestion.Registry
	Service   service.VWAPService
	Archive   *storage.Archive // nil unless ARCHIVE_ENABLED
	Watchlist []string
}

// InitializeApp sets up all application dependencies and returns
// the wired App, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Builds the ISS client and the tape registry.
//   - When the archive is enabled, connects to PostgreSQL, applies migrations and
//     attaches the archive as the registry's page sink.
//   - Creates the VWAP service, HTTP handlers and the Gin router.
//   - Registers health and readiness probes.
//   - Provides a cleanup function to close resources (e.g., DB connection).
func InitializeApp() (*App, func(), error) {
	cfg := config.AppConfig
	log := logger.Component("app")

	var (
		db      *sql.DB
		archive *storage.Archive
		sink    ingestion.PageSink
	)
	if cfg.Archive.Enabled {
		// indirection for unit testing
		conn, err := postgresOpener(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		if err := migrator(conn); err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		db = conn
		archive = storage.NewArchive(storage.NewTradesRepository(db), resetLocation(cfg))
		sink = archive
		log.Info().Str("db", cfg.Postgres.DBName).Msg("trade archive enabled")
	}

	client := iss.NewClient(iss.Options{
		BaseURL: cfg.ISS.BaseURL,
		Engine:  cfg.ISS.Engine,
		Market:  cfg.ISS.Market,
		Timeout: cfg.ISS.Timeout,
	}, nil)

	registry := ingestion.NewRegistry(client, ingestion.RegistryOptions{
		PageLimit:      cfg.ISS.PageLimit,
		DefaultBoard:   cfg.ISS.DefaultBoard,
		RefreshTimeout: cfg.ISS.RefreshTimeout,
		Sink:           sink,
	})

	a := &App{
		Registry:  registry,
		Archive:   archive,
		Watchlist: ingestion.ParseWatchlist(cfg.Server.Watchlist),
	}

	a.Service = service.NewVWAPService(registry, service.Options{
		BatchParallel: cfg.Server.BatchParallel,
		OnReset:       a.afterReset(cfg.Archive.RetentionDays, cfg.Server.BatchParallel),
	})

	handler := api.NewHandler(a.Service, cfg.Server.AdminToken)
	a.Router = api.NewRouter(handler, api.RouterOptions{})

	var ping func(ctx context.Context) error
	if db != nil {
		ping = db.PingContext
	}
	api.NewHealthHandler(ping, registry.Len).Register(a.Router)

	cleanup := func() {
		if db != nil {
			_ = db.Close()
		}
	}

	return a, cleanup, nil
}

// Warm refreshes the watchlist tapes; errors are logged, not returned.
func (a *App) Warm(ctx context.Context, parallel int) {
	if len(a.Watchlist) == 0 {
		return
	}
	if err := ingestion.Warm(ctx, a.Registry, a.Watchlist, "", parallel); err != nil {
		logger.L().Warn().Err(err).Msg("watchlist warm incomplete")
	}
}

// ScheduledResetter adapts the service reset for ingestion.RunDailyReset.
func (a *App) ScheduledResetter(ctx context.Context) ingestion.Resetter {
	return ingestion.ResetFunc(func() {
		if err := a.Service.Reset(ctx); err != nil {
			logger.L().Error().Err(err).Msg("scheduled reset failed")
		}
	})
}

// afterReset purges expired archive sessions and re-warms the watchlist in the background.
func (a *App) afterReset(retentionDays, parallel int) func(ctx context.Context) {
	return func(ctx context.Context) {
		if a.Archive != nil {
			if _, err := a.Archive.Purge(ctx, retentionDays); err != nil {
				logger.L().Warn().Err(err).Msg("archive purge failed")
			}
		}
		if len(a.Watchlist) > 0 {
			go func() {
				wctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
				defer cancel()
				a.Warm(wctx, parallel)
			}()
		}
	}
}

// resetLocation is the trading-session timezone; config validation guarantees it loads when reset is enabled.
func resetLocation(cfg config.Config) *time.Location {
	loc, err := time.LoadLocation(cfg.Reset.Timezone)
	if err != nil || cfg.Reset.Timezone == "" {
		return time.UTC
	}
	return loc
}
