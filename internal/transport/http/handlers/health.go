package http_handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/devstudio/site-api/internal/transport/http/response"
)

// Checker reports whether one dependency is reachable.
type Checker func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]Checker
	timeout time.Duration
}

// NewHealthHandler takes the readiness checks by dependency name ("db", "redis", ...).
func NewHealthHandler(checks map[string]Checker) *HealthHandler {
	if checks == nil {
		checks = map[string]Checker{}
	}
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for n := range h.checks {
		names = append(names, n)
	}
	sort.Strings(names)

	failed := map[string]string{}
	for _, n := range names {
		if err := h.checks[n](ctx); err != nil {
			failed[n] = "unavailable"
		}
	}

	if len(failed) > 0 {
		response.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"checks": failed,
		})
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
