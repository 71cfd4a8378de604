// Package feedcache stores the last good unpersonalized feed so it can be
// served when the content store is unreachable.
package feedcache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/simosa/fyp/internal/content"
)

// DefaultKey is the Redis key holding the cached feed.
const DefaultKey = "fyp:fallback:trending"

// DefaultTTL is how long a cached feed stays usable.
const DefaultTTL = 15 * time.Minute

// ErrMiss is returned when no cached feed is available.
var ErrMiss = errors.New("fallback feed not cached")

type entry struct {
	Items   []content.Item `json:"items"`
	SavedAt time.Time      `json:"saved_at"`
}

// Redis is a fallback cache backed by a single Redis key.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedis creates a Redis-backed cache. Empty key and non-positive ttl use defaults.
func NewRedis(client *redis.Client, key string, ttl time.Duration) *Redis {
	if key == "" {
		key = DefaultKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, key: key, ttl: ttl}
}

// Save replaces the cached feed.
func (r *Redis) Save(ctx context.Context, items []content.Item) error {
	data, err := json.Marshal(entry{Items: items, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode fallback feed: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store fallback feed: %w", err)
	}
	return nil
}

// Load returns the cached feed, or ErrMiss when none is stored.
func (r *Redis) Load(ctx context.Context) ([]content.Item, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load fallback feed: %w", err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode fallback feed: %w", err)
	}
	return e.Items, nil
}

// InMemory is a process-local fallback cache used when Redis is not configured.
type InMemory struct {
	mu      sync.RWMutex
	items   []content.Item
	savedAt time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemory creates an in-memory cache. Non-positive ttl uses DefaultTTL.
func NewInMemory(ttl time.Duration) *InMemory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemory{ttl: ttl, now: time.Now}
}

// Save replaces the cached feed.
func (m *InMemory) Save(_ context.Context, items []content.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = slices.Clone(items)
	m.savedAt = m.now()
	return nil
}

// Load returns the cached feed, or ErrMiss when empty or expired.
func (m *InMemory) Load(_ context.Context) ([]content.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.items == nil || m.now().Sub(m.savedAt) > m.ttl {
		return nil, ErrMiss
	}
	return slices.Clone(m.items), nil
}
