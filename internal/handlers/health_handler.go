package handlers

import (
	"context"
	"net/http"
)

type Pinger interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	cache Pinger
}

func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Health godoc
// @Summary Health check
// @Description Check if the service and its backing stores are reachable
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := http.StatusOK

	response := map[string]string{
		"status":   "healthy",
		"database": "ok",
		"cache":    "ok",
	}

	if err := h.db.Health(ctx); err != nil {
		response["status"] = "unhealthy"
		response["database"] = "error"
		status = http.StatusServiceUnavailable
	}

	if err := h.cache.Health(ctx); err != nil {
		response["status"] = "unhealthy"
		response["cache"] = "error"
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, response)
}
