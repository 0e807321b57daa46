package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// readinessTimeout bounds all dependency pings of one readiness probe.
const readinessTimeout = 5 * time.Second

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	postgres HealthChecker
	redis    HealthChecker
	logger   *slog.Logger

	// exposeDetail includes the ping error in the readiness body.
	exposeDetail bool
}

// NewHealthHandler creates a new HealthHandler.
// Pass nil for postgres or redis if they are not configured.
func NewHealthHandler(postgres, redis HealthChecker, logger *slog.Logger, exposeDetail bool) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		postgres:     postgres,
		redis:        redis,
		logger:       logger,
		exposeDetail: exposeDetail,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe. It never touches dependencies.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz is a readiness probe. It returns 200 only if PostgreSQL and Redis
// both answer a ping.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{
		"postgres": h.check(ctx, "postgres", h.postgres),
		"redis":    h.check(ctx, "redis", h.redis),
	}

	healthy := true
	for _, result := range checks {
		if result != "ok" && result != "not configured" {
			healthy = false
		}
	}

	if !healthy {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Checks: checks})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Checks: checks})
}

func (h *HealthHandler) check(ctx context.Context, name string, checker HealthChecker) string {
	if checker == nil {
		return "not configured"
	}
	if err := checker.Ping(ctx); err != nil {
		h.logger.Warn("readiness_check_failed", "dependency", name, "error", err)
		if h.exposeDetail {
			return "error: " + err.Error()
		}
		return "unavailable"
	}
	return "ok"
}
