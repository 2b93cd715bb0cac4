package main

//
//  @title           issvwap API
//  @version         1.0
//  @description     VWAP and volume-target completion over MOEX ISS trade tapes.
//  @termsOfService  https://github.com/guttosm/issvwap
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/issvwap
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        vwap
//  @tag.description VWAP queries over live MOEX trade tapes
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/issvwap/config"
	"github.com/guttosm/issvwap/internal/app"
	"github.com/guttosm/issvwap/internal/domain/models"
	"github.com/guttosm/issvwap/internal/ingestion"
	"github.com/guttosm/issvwap/internal/logger"
	"github.com/guttosm/issvwap/internal/service"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      90 * time.Second, // a cold tape may need many ISS pages
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connection, reset scheduler).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// startResetScheduler runs the daily registry reset until the returned stop func is called.
func startResetScheduler(a *app.App, cfg config.ResetConfig) (stop func()) {
	if !cfg.Enabled {
		return func() {}
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.L().Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("invalid reset timezone")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := ingestion.RunDailyReset(ctx, a.ScheduledResetter(ctx), cfg.At, loc)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.L().Error().Err(err).Msg("reset scheduler stopped")
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// vwapArgs are the flags of the one-shot vwap mode.
type vwapArgs struct {
	ticker  string
	board   string
	begin   string
	end     string
	target  int64
	percent float64
}

// runVWAP answers one query and prints the summary line, e.g. "LKOH 6543.21@1200 (10:00:00 - 18:39:59)".
// A positive target switches to the volume-target completion query.
func runVWAP(ctx context.Context, svc service.VWAPService, args vwapArgs, out io.Writer) error {
	var begin, end *time.Time
	for _, p := range []struct {
		raw string
		dst **time.Time
	}{{args.begin, &begin}, {args.end, &end}} {
		if p.raw == "" {
			continue
		}
		t, err := models.ParseClock(p.raw)
		if err != nil {
			return err
		}
		*p.dst = &t
	}

	if args.target > 0 {
		q := service.CompletionQuery{Ticker: args.ticker, Board: args.board, Begin: begin, Target: args.target}
		if args.percent > 0 {
			pct := decimal.NewFromFloat(args.percent)
			q.Percent = &pct
		}
		c, err := svc.GetCompletion(ctx, q)
		if err != nil {
			return err
		}
		status := "not reached"
		if c.Reached {
			status = "reached at " + models.FormatClock(c.LastTradeTime)
		}
		_, err = fmt.Fprintf(out, "%s, target %d %s\n", c.Summary(), c.Target, status)
		return err
	}

	v, err := svc.GetVWAP(ctx, service.VWAPQuery{Ticker: args.ticker, Board: args.board, Begin: begin, End: end})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, v.Summary())
	return err
}

// main is the entry point of the issvwap application.
//
// Modes (selected via --mode flag):
//   - api:  Starts the REST API, the daily tape reset and the watchlist warm-up.
//   - vwap: Fetches one ticker's tape, prints its VWAP summary and exits.
//
// Flags:
//   - --mode: Execution mode ("api" or "vwap"). Default: "api".
//   - --port: Port for the API server. Defaults to value from config (SERVER_PORT).
//   - --ticker, --board, --begin, --end, --target, --percent: query of the vwap mode.
func main() {
	ctx := context.Background()

	// Load configuration from environment or .env file
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Configure(cfg.Log.Level, cfg.Log.Pretty)

	mode := flag.String("mode", "api", "Mode: api or vwap")
	port := flag.String("port", cfg.Server.Port, "Port for API mode")
	ticker := flag.String("ticker", "", "Security code for vwap mode")
	board := flag.String("board", "", "Board id for vwap mode (default DEFAULT_BOARD)")
	begin := flag.String("begin", "", "Window start HH:MM[:SS] for vwap mode")
	end := flag.String("end", "", "Window end HH:MM[:SS] for vwap mode")
	target := flag.Int64("target", 0, "Target quantity; switches vwap mode to the completion query")
	percent := flag.Float64("percent", 0, "Participation percent for --target (default 100)")
	flag.Parse()

	a, cleanup, err := app.InitializeApp()
	if err != nil {
		logger.L().Fatal().Err(err).Msg("app init error")
	}

	switch *mode {
	case "api":
		logger.L().Info().Msg("starting API server")

		stopReset := startResetScheduler(a, cfg.Reset)
		go a.Warm(ctx, cfg.Server.BatchParallel)

		server := startServer(a.Router, *port)
		gracefulShutdown(ctx, server, func() {
			stopReset()
			cleanup()
		})

	case "vwap":
		err := runVWAP(ctx, a.Service, vwapArgs{
			ticker: *ticker, board: *board, begin: *begin, end: *end, target: *target, percent: *percent,
		}, os.Stdout)
		cleanup()
		if err != nil {
			logger.L().Fatal().Err(err).Str("ticker", *ticker).Msg("vwap query failed")
		}

	default:
		cleanup()
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
