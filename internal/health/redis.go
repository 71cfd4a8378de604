package health

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisChecker pings Redis.
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker returns a checker for client.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// HealthCheck sends PING.
func (r *RedisChecker) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
