package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/simosa/fyp/internal/api"
	"github.com/simosa/fyp/internal/auth"
	"github.com/simosa/fyp/internal/config"
	"github.com/simosa/fyp/internal/feedcache"
	"github.com/simosa/fyp/internal/fyp"
	"github.com/simosa/fyp/internal/health"
	"github.com/simosa/fyp/internal/middleware"
	"github.com/simosa/fyp/internal/ranking"
	"github.com/simosa/fyp/internal/store"
)

// deps are the opened external resources. db and redis may be nil.
type deps struct {
	backend store.Backend
	db      *sql.DB
	redis   *redis.Client
	tracing bool
}

// app is the assembled server.
type app struct {
	handler  http.Handler
	service  *fyp.Service
	limiter  *middleware.RateLimiter
	registry *prometheus.Registry
}

// newApp wires the feed pipeline, its collaborators and the router.
func newApp(cfg *config.Config, d deps, logger *slog.Logger) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	feedMetrics := fyp.NewMetrics()
	breakerMetrics := store.NewBreakerMetrics()
	httpMetrics := middleware.NewMetrics()
	for _, r := range []interface {
		Register(prometheus.Registerer) error
	}{feedMetrics, breakerMetrics, httpMetrics} {
		if err := r.Register(reg); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	backend := store.NewResilient(d.backend, store.BreakerConfig{
		Name:             "postgres",
		FailureThreshold: uint32(max(cfg.BreakerFailureThreshold, 0)),
		Timeout:          cfg.BreakerTimeout,
	}, breakerMetrics, logger)

	weights, err := ranking.LoadCalibration(cfg.RankingCalibrationPath)
	if err != nil {
		logger.Warn("using default ranking weights", "error", err)
	}

	var cache fyp.FallbackCache = feedcache.NewInMemory(cfg.FallbackCacheTTL)
	if d.redis != nil {
		cache = feedcache.NewRedis(d.redis, feedcache.DefaultKey, cfg.FallbackCacheTTL)
	}

	var interests fyp.InterestExtractor = fyp.StaticInterests{}
	if cfg.InterestStrategy == config.InterestStrategyHistory {
		interests = fyp.HistoryInterests{
			Lookup:   backend,
			TopN:     fyp.DefaultHistoryTopN,
			Fallback: fyp.StaticInterests{},
			Logger:   logger,
		}
	}

	service := fyp.NewService(backend, fyp.Config{
		DefaultLimit: cfg.FeedDefaultLimit,
		Scorer:       ranking.NewScorer(weights),
		Interests:    interests,
		Engagement:   fyp.ActionCounter{},
		Cache:        cache,
		Metrics:      feedMetrics,
		Logger:       logger,
	})

	limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RPS:   cfg.RateLimitRPS,
		Burst: cfg.RateLimitBurst,
	}, httpMetrics)
	if err != nil {
		return nil, err
	}

	// A nil interface disables authentication; a typed nil would not.
	var validator middleware.TokenValidator
	if cfg.JWTSecret != "" {
		validator = auth.NewVerifier(cfg.JWTSecret, "")
	} else {
		logger.Warn("JWT_SECRET not set, serving all feeds anonymously")
	}

	checks := []api.Dependency{
		{Name: "store_breaker", Checker: health.NewBreakerChecker(backend), Critical: true},
	}
	if d.db != nil {
		checks = append(checks, api.Dependency{Name: "database", Checker: health.NewDBChecker(d.db), Critical: true})
	}
	if d.redis != nil {
		checks = append(checks, api.Dependency{Name: "redis", Checker: health.NewRedisChecker(d.redis)})
	}

	tracingService := ""
	if d.tracing {
		tracingService = serviceName
	}

	handler := api.NewRouter(api.RouterConfig{
		Feed:           api.NewFeedHandlers(service, cfg.FeedDefaultLimit, cfg.FeedMaxLimit, logger),
		Health:         api.NewHealthHandlers(checks...),
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		HTTPMetrics:    httpMetrics,
		Validator:      validator,
		RateLimiter:    limiter,
		Logger:         logger,
		TracingService: tracingService,
	})

	return &app{handler: handler, service: service, limiter: limiter, registry: reg}, nil
}
