package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// readyTimeout bounds all dependency checks of one readiness probe.
const readyTimeout = 5 * time.Second

// HealthChecker is implemented by dependency probes.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependency is one readiness check. A failing critical dependency makes the
// instance unready; a failing optional one is reported as degraded.
type Dependency struct {
	Name     string
	Checker  HealthChecker
	Critical bool
}

// HealthHandlers serves the liveness and readiness probes.
type HealthHandlers struct {
	deps []Dependency
	now  func() time.Time
}

// NewHealthHandlers returns probes over deps. Dependencies with a nil
// Checker are skipped.
func NewHealthHandlers(deps ...Dependency) *HealthHandlers {
	kept := make([]Dependency, 0, len(deps))
	for _, d := range deps {
		if d.Checker != nil {
			kept = append(kept, d)
		}
	}
	return &HealthHandlers{deps: kept, now: time.Now}
}

// HealthResponse is the body of both probes.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Health handles GET /health. Responding at all means the process is alive.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"runtime": "ok"},
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready. It returns 503 when a critical dependency fails.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.deps))
	status := "healthy"
	code := http.StatusOK

	for _, d := range h.deps {
		err := d.Checker.HealthCheck(ctx)
		switch {
		case err == nil:
			checks[d.Name] = "ok"
		case d.Critical:
			checks[d.Name] = "error"
			status = "unhealthy"
			code = http.StatusServiceUnavailable
			slog.WarnContext(ctx, "readiness check failed", "dependency", d.Name, "error", err)
		default:
			checks[d.Name] = "degraded"
			if status == "healthy" {
				status = "degraded"
			}
			slog.WarnContext(ctx, "optional dependency unavailable", "dependency", d.Name, "error", err)
		}
	}

	writeJSON(ctx, w, code, HealthResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}
