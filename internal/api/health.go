package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler provides liveness and readiness endpoints for the service.
//
// Responsibilities:
//   - /healthz: Basic liveness probe (always returns 200 OK).
//   - /readyz: Readiness probe (archive database connectivity, when the archive is enabled).
type HealthHandler struct {
	ping  func(ctx context.Context) error // nil when there is no archive
	tapes func() int                      // number of tracked tapes, optional
}

// NewHealthHandler constructs a HealthHandler.
//
// Parameters:
//   - ping: checks if the archive database is reachable, typically (*sql.DB).PingContext. May be nil.
//   - tapes: reports how many tapes are cached. May be nil.
func NewHealthHandler(ping func(ctx context.Context) error, tapes func() int) *HealthHandler {
	return &HealthHandler{ping: ping, tapes: tapes}
}

// Register mounts the health and readiness endpoints into the provided Gin router.
//
// Routes:
//   - GET /healthz: Always returns 200 OK.
//   - GET /readyz: Returns 200 OK if ping succeeds, 503 if the archive is not reachable.
func (h *HealthHandler) Register(r *gin.Engine) {
	// @Summary      Liveness probe
	// @Description  Always returns OK if the service is running
	// @Tags         health
	// @Produce      json
	// @Success      200  {object}  map[string]string
	// @Router       /healthz [get]
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// @Summary      Readiness probe
	// @Description  Returns ready if the archive database (when enabled) is reachable
	// @Tags         health
	// @Produce      json
	// @Success      200  {object}  map[string]any
	// @Failure      503  {object}  map[string]any
	// @Router       /readyz [get]
	r.GET("/readyz", func(c *gin.Context) {
		body := gin.H{"status": "ready"}
		if h.tapes != nil {
			body["tapes"] = h.tapes()
		}
		if h.ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := h.ping(ctx); err != nil {
				body["status"] = "degraded"
				body["archive"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, body)
				return
			}
		}
		c.JSON(http.StatusOK, body)
	})
}
