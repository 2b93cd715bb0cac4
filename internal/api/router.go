package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/guttosm/issvwap/docs" // swagger docs
	"github.com/guttosm/issvwap/internal/metrics"
	"github.com/guttosm/issvwap/internal/middleware"
)

// RouterOptions tunes the global middlewares. Zero values fall back to defaults.
type RouterOptions struct {
	RequestTimeout time.Duration // default 60s; a cold tape may take many ISS pages
	RateLimit      int           // requests per client IP per RateWindow, default 60
	RateWindow     time.Duration // default 1m
}

func (o RouterOptions) withDefaults() RouterOptions {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 60 * time.Second
	}
	if o.RateLimit == 0 {
		o.RateLimit = 60
	}
	if o.RateWindow <= 0 {
		o.RateWindow = time.Minute
	}
	return o
}

// NewRouter creates a Gin engine with routes configured.
// It receives a Handler instance with all business logic already injected.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, ErrorHandler, RateLimiter).
//   - Adds request timeout handling.
//   - Mounts Swagger docs (/swagger/*any) and Prometheus metrics (/metrics).
//   - Configures API v1 routes (/api/v1).
//
// Note:
//   - Health and readiness endpoints (/healthz, /readyz) are registered in app.InitializeApp().
func NewRouter(handler *Handler, opts RouterOptions) *gin.Engine {
	opts = opts.withDefaults()
	router := gin.New()

	// ─── Middlewares ───────────────────────────────
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
	)

	// ─── Timeout ──────────────────────────────────
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), opts.RequestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	// ─── Swagger & metrics ────────────────────────
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", metrics.Handler())

	// ─── API v1 ───────────────────────────────────
	v1 := router.Group("/api/v1", middleware.RateLimiter(opts.RateLimit, opts.RateWindow))
	{
		v1.GET("/vwap", handler.GetVWAP)
		v1.GET("/vwap/batch", handler.GetVWAPBatch)
		v1.GET("/vwapt", handler.GetCompletion)
		v1.POST("/vwap/reset", handler.Reset)
	}

	return router
}
