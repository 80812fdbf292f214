// Package health exposes liveness and readiness probes for the draft server:
// liveness reports the process is alive, readiness additionally checks the
// dependencies a request actually needs to succeed.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Fouche-Hugo/draft-together/internal/bus"
	"github.com/Fouche-Hugo/draft-together/internal/logging"
)

// Handler manages the health check endpoints.
type Handler struct {
	db    *sqlx.DB
	relay *bus.Relay
}

// NewHandler wires a Handler to the Postgres pool and the optional
// cross-instance relay (nil disables the relay check).
func NewHandler(db *sqlx.DB, relay *bus.Relay) *Handler {
	return &Handler{db: db, relay: relay}
}

// LivenessResponse represents the liveness probe response.
type LivenessResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadinessResponse represents the readiness probe response.
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Liveness reports whether the process is alive, with no dependency checks.
// GET /health/live
func (h *Handler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness reports whether the server can currently serve requests. It
// returns 503 if any checked dependency is unhealthy.
// GET /health/ready
func (h *Handler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	dbStatus := h.checkDB(ctx)
	checks["postgres"] = dbStatus
	if dbStatus != "healthy" {
		allHealthy = false
	}

	if h.relay != nil {
		relayStatus := h.checkRelay(ctx)
		checks["redis"] = relayStatus
		if relayStatus != "healthy" {
			allHealthy = false
		}
	}

	status := "ready"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "unavailable"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, ReadinessResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) checkDB(ctx context.Context) string {
	if err := h.db.PingContext(ctx); err != nil {
		logging.Error(ctx, "postgres health check failed", zap.Error(err))
		return "unhealthy"
	}
	return "healthy"
}

func (h *Handler) checkRelay(ctx context.Context) string {
	if err := h.relay.Ping(ctx); err != nil {
		logging.Error(ctx, "redis health check failed", zap.Error(err))
		return "unhealthy"
	}
	return "healthy"
}
