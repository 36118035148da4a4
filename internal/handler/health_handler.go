package handler

import (
	"net/http"
	"time"

	"scuderia-bot/internal/container"
)

// HealthHandler reports process liveness and dependency health.
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(c *container.Container) *HealthHandler {
	return &HealthHandler{container: c}
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	checks := map[string]string{}

	if db := h.container.DB; db != nil {
		if err := db.Health(ctx); err != nil {
			checks["database"] = "unavailable"
			status["status"] = "degraded"
		} else {
			checks["database"] = "ok"
		}
	}

	if rc := h.container.RedisClient; rc != nil {
		if err := rc.Health(ctx); err != nil {
			checks["redis"] = "unavailable"
			status["status"] = "degraded"
		} else {
			checks["redis"] = "ok"
		}
	}

	if h.container.Rosters.Current().Empty() {
		checks["roster"] = "empty"
		status["status"] = "degraded"
	} else {
		checks["roster"] = "ok"
	}

	status["checks"] = checks

	code := http.StatusOK
	if status["status"] != "ok" {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, status)
}
