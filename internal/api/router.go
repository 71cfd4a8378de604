package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/simosa/fyp/internal/middleware"
)

// RouterConfig wires the handlers and middleware of the HTTP server.
// Feed and Health are required; everything else is optional.
type RouterConfig struct {
	Feed   *FeedHandlers
	Health *HealthHandlers

	// Metrics serves /metrics when set.
	Metrics     http.Handler
	HTTPMetrics *middleware.Metrics

	// Validator enables bearer token authentication on the API routes.
	Validator   middleware.TokenValidator
	RateLimiter *middleware.RateLimiter

	Logger *slog.Logger

	// TracingService enables otelhttp spans under this service name.
	TracingService string
}

// NewRouter builds the chi router.
//
// Middleware order, outermost first:
//
//	RequestID → Recoverer → Logging → Tracing → HTTPMetrics
//
// and on /api/v1 additionally Authenticate → RateLimiter, so the limiter
// keys authenticated requests by user.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logging(cfg.Logger))
	if cfg.TracingService != "" {
		r.Use(middleware.Tracing(cfg.TracingService))
	}
	r.Use(middleware.HTTPMetrics(cfg.HTTPMetrics))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", cfg.Health.Health)
	r.Get("/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.Validator))
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware)
		}
		r.Get("/feed", cfg.Feed.GetFeed)
		r.Get("/trending", cfg.Feed.GetTrending)
	})

	return r
}
