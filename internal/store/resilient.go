package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/simosa/fyp/internal/content"
)

// Default circuit breaker settings.
const (
	DefaultFailureThreshold = 5
	DefaultBreakerTimeout   = 30 * time.Second
)

// BreakerConfig configures the circuit breaker in front of a Backend.
type BreakerConfig struct {
	// Name labels the breaker in logs and metrics.
	Name string

	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold uint32

	// Timeout is how long the circuit stays open before allowing a probe.
	Timeout time.Duration
}

// Resilient wraps a Backend with a circuit breaker. While the circuit is
// open every call fails fast with an error wrapping ErrUnavailable, so a
// struggling database is not hammered by every feed request.
type Resilient struct {
	next    Backend
	cb      *gobreaker.CircuitBreaker[any]
	name    string
	metrics *BreakerMetrics
	logger  *slog.Logger
}

// NewResilient wraps next with a circuit breaker. metrics may be nil.
func NewResilient(next Backend, cfg BreakerConfig, metrics *BreakerMetrics, logger *slog.Logger) *Resilient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Name == "" {
		cfg.Name = "store"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultBreakerTimeout
	}

	r := &Resilient{
		next:    next,
		name:    cfg.Name,
		metrics: metrics,
		logger:  logger,
	}
	if metrics != nil {
		metrics.setState(cfg.Name, gobreaker.StateClosed)
	}

	r.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// A caller giving up is not a store failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("store circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			if metrics != nil {
				metrics.setState(name, to)
			}
		},
	})
	return r
}

// State returns the current breaker state.
func (r *Resilient) State() gobreaker.State {
	return r.cb.State()
}

// execute runs fn through the breaker and converts its result to T.
func execute[T any](r *Resilient, fn func() (T, error)) (T, error) {
	var zero T
	result, err := r.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			if r.metrics != nil {
				r.metrics.incRejected(r.name)
			}
			return zero, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// Behavior returns behavior rows through the breaker.
func (r *Resilient) Behavior(ctx context.Context, userID string, limit int) ([]content.Behavior, error) {
	return execute(r, func() ([]content.Behavior, error) {
		return r.next.Behavior(ctx, userID, limit)
	})
}

// Follows returns followed creator ids through the breaker.
func (r *Resilient) Follows(ctx context.Context, userID string) ([]string, error) {
	return execute(r, func() ([]string, error) {
		return r.next.Follows(ctx, userID)
	})
}

// Likes returns liked item ids through the breaker.
func (r *Resilient) Likes(ctx context.Context, userID string) ([]string, error) {
	return execute(r, func() ([]string, error) {
		return r.next.Likes(ctx, userID)
	})
}

// ContentByCreators returns items by creators through the breaker.
func (r *Resilient) ContentByCreators(ctx context.Context, creatorIDs []string, limit int) ([]content.Item, error) {
	return execute(r, func() ([]content.Item, error) {
		return r.next.ContentByCreators(ctx, creatorIDs, limit)
	})
}

// ContentNewest returns the newest items through the breaker.
func (r *Resilient) ContentNewest(ctx context.Context, limit int) ([]content.Item, error) {
	return execute(r, func() ([]content.Item, error) {
		return r.next.ContentNewest(ctx, limit)
	})
}

// ContentByTags returns tagged items through the breaker.
func (r *Resilient) ContentByTags(ctx context.Context, tags []string, limit int) ([]content.Item, error) {
	return execute(r, func() ([]content.Item, error) {
		return r.next.ContentByTags(ctx, tags, limit)
	})
}

// ContentByIDs returns items by id through the breaker.
func (r *Resilient) ContentByIDs(ctx context.Context, ids []string) ([]content.Item, error) {
	return execute(r, func() ([]content.Item, error) {
		return r.next.ContentByIDs(ctx, ids)
	})
}

// CreatorsByIDs returns creator profiles through the breaker.
func (r *Resilient) CreatorsByIDs(ctx context.Context, ids []string) (map[string]content.Creator, error) {
	return execute(r, func() (map[string]content.Creator, error) {
		return r.next.CreatorsByIDs(ctx, ids)
	})
}
