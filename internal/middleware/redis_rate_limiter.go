package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vidfriends/mediahub/internal/logging"
)

// redisRateLimiter counts requests per key in fixed windows shared across instances.
type redisRateLimiter struct {
	client   redis.Cmdable
	requests int64
	window   time.Duration
	prefix   string
}

// NewRedisRateLimiter allows up to requests+burst events per window for each key, counted in
// Redis so that every replica enforces the same budget.
func NewRedisRateLimiter(client redis.Cmdable, requests int, window time.Duration, burst int) RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if burst < 0 {
		burst = 0
	}
	if window <= 0 {
		window = time.Second
	}
	return &redisRateLimiter{
		client:   client,
		requests: int64(requests + burst),
		window:   window,
		prefix:   "mediahub:ratelimit:",
	}
}

// Allow fails open when Redis is unreachable so an outage does not lock every client out.
func (l *redisRateLimiter) Allow(ctx context.Context, key string) bool {
	if key == "" {
		key = "unknown"
	}
	bucket := l.prefix + key

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, bucket)
		pipe.ExpireNX(ctx, bucket, l.window)
		return nil
	})
	if err != nil {
		logging.FromContext(ctx).Warn("rate limiter unavailable", "key", key, "error", err)
		return true
	}
	return incr.Val() <= l.requests
}
