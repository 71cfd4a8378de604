package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Rate limiter defaults.
const (
	DefaultRateLimitRPS   = 5.0
	DefaultRateLimitBurst = 20
	DefaultLimiterIdleTTL = 10 * time.Minute
)

// Key types used as metric labels.
const (
	keyTypeUser = "user"
	keyTypeIP   = "ip"
)

// ErrInvalidRateLimit is returned when a RateLimitConfig has a non-positive
// rate or burst.
var ErrInvalidRateLimit = errors.New("invalid rate limit config")

// RateLimitConfig configures a per-key token bucket.
type RateLimitConfig struct {
	// RPS is the refill rate in requests per second.
	RPS float64
	// Burst is the bucket size.
	Burst int
	// IdleTTL is how long an untouched key is kept before Sweep drops it.
	IdleTTL time.Duration
}

// Validate reports whether the config can build a limiter.
func (c RateLimitConfig) Validate() error {
	if c.RPS <= 0 || math.IsNaN(c.RPS) || math.IsInf(c.RPS, 0) {
		return fmt.Errorf("%w: rps must be > 0 (got %v)", ErrInvalidRateLimit, c.RPS)
	}
	if c.Burst <= 0 {
		return fmt.Errorf("%w: burst must be > 0 (got %d)", ErrInvalidRateLimit, c.Burst)
	}
	return nil
}

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds one token bucket per authenticated user, or per client IP
// for anonymous requests.
type RateLimiter struct {
	cfg     RateLimitConfig
	metrics *Metrics
	now     func() time.Time

	mu       sync.Mutex
	limiters map[string]*keyLimiter
}

// NewRateLimiter validates cfg and returns an empty limiter. metrics may be nil.
func NewRateLimiter(cfg RateLimitConfig, metrics *Metrics) (*RateLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultLimiterIdleTTL
	}
	return &RateLimiter{
		cfg:      cfg,
		metrics:  metrics,
		now:      time.Now,
		limiters: make(map[string]*keyLimiter),
	}, nil
}

// Middleware rejects requests over the key's budget with 429 and a
// Retry-After header. It must run after Authenticate to see the user id.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, keyType := rateLimitKey(r)
		path := normalizePath(r.URL.Path)
		if rl.metrics != nil {
			rl.metrics.IncRateLimitRequests(path, keyType)
		}

		if !rl.allow(key) {
			if rl.metrics != nil {
				rl.metrics.IncRateLimitBlocked(path, keyType)
			}
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
			writeError(r.Context(), w, http.StatusTooManyRequests, ErrCodeRateLimited,
				"Too many requests, retry later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	kl, ok := rl.limiters[key]
	if !ok {
		kl = &keyLimiter{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RPS), rl.cfg.Burst)}
		rl.limiters[key] = kl
	}
	kl.lastSeen = now
	n := len(rl.limiters)
	rl.mu.Unlock()

	if !ok && rl.metrics != nil {
		rl.metrics.SetRateLimitKeys(n)
	}
	return kl.limiter.AllowN(now, 1)
}

// retryAfterSeconds is the time for one token to refill, at least 1s.
func (rl *RateLimiter) retryAfterSeconds() int {
	return max(int(math.Ceil(1/rl.cfg.RPS)), 1)
}

// Sweep drops keys idle for longer than IdleTTL and returns how many were removed.
func (rl *RateLimiter) Sweep() int {
	cutoff := rl.now().Add(-rl.cfg.IdleTTL)

	rl.mu.Lock()
	removed := 0
	for key, kl := range rl.limiters {
		if kl.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}
	n := len(rl.limiters)
	rl.mu.Unlock()

	if rl.metrics != nil {
		rl.metrics.SetRateLimitKeys(n)
	}
	return removed
}

// Run sweeps idle keys every interval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// rateLimitKey keys authenticated requests by user id and the rest by IP.
func rateLimitKey(r *http.Request) (key, keyType string) {
	if userID := GetUserID(r.Context()); userID != "" {
		return "user:" + userID, keyTypeUser
	}
	return "ip:" + ClientIP(r), keyTypeIP
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
