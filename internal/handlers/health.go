package handlers

import (
	"context"
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/auth-service/pkg/http"
)

// HealthCheck pings one backend
type HealthCheck func(ctx context.Context) error

// HealthHandler reports reachability of every configured backend
type HealthHandler struct {
	checks map[string]HealthCheck
}

// HealthResponse is the /health body
type HealthResponse struct {
	Status   string            `json:"status"`
	Backends map[string]string `json:"backends,omitempty"`
}

// NewHealthHandler creates a new HealthHandler pinging each named backend
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health reports 200 when every backend responds, 503 otherwise
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Backends: make(map[string]string, len(h.checks))}
	status := http.StatusOK

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Backends[name] = "down"
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Backends[name] = "up"
	}

	pkghttp.WriteJSON(w, status, resp)
}
