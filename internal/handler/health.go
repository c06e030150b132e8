package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/taskflow/internal/envelope"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Health(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Health(ctx context.Context) error { return f(ctx) }

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db     Pinger
	checks map[string]Pinger
	logger *slog.Logger
	now    func() time.Time
}

// NewHealthHandler creates a new health handler. db backs the liveness
// report; checks are the named dependencies the readiness probe requires.
func NewHealthHandler(db Pinger, checks map[string]Pinger, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &HealthHandler{
		db:     db,
		checks: checks,
		logger: logger,
		now:    time.Now,
	}
}

// HealthResponse represents the health status response
type HealthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health handles GET /api/health. It answers 200 while the process is up
// and reports database reachability alongside.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	database := "connected"
	if h.db == nil {
		database = "disconnected"
	} else if err := h.db.Health(ctx); err != nil {
		h.logger.Warn("database health check failed", slog.String("error", err.Error()))
		database = "disconnected"
	}

	envelope.OK(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Database:  database,
		Timestamp: h.now().UTC(),
	})
}

// Ready handles GET /api/ready - Readiness check for Kubernetes
// Returns 200 only if all dependencies are healthy
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	healthy := true
	for name, p := range h.checks {
		if err := p.Health(ctx); err != nil {
			h.logger.Warn("readiness check failed",
				slog.String("check", name),
				slog.String("error", err.Error()),
			)
			checks[name] = "error"
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	resp := ReadinessResponse{Status: "ready", Checks: checks}
	if !healthy {
		resp.Status = "not_ready"
		envelope.Write(w, http.StatusServiceUnavailable, envelope.Response{Success: false, Data: resp, Message: "Service not ready"})
		return
	}
	envelope.OK(w, http.StatusOK, resp)
}
