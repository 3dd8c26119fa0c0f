package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/pkg/logger"
)

// RateLimiter gates whether a provider may send right now. Implementations
// fail open: a counter-store outage must never block a send attempt.
type RateLimiter interface {
	// Allow records one attempt against the provider's current minute
	// bucket and reports whether it is within maxPerMinute. A non-positive
	// limit means unlimited.
	Allow(ctx context.Context, pt domain.ProviderType, maxPerMinute int) bool

	// Peek reports whether the current minute bucket still has room,
	// without recording an attempt. Used by the dispatcher to skip a
	// throttled provider before the send path takes the real token.
	Peek(ctx context.Context, pt domain.ProviderType, maxPerMinute int) bool
}

// RedisRateLimiter counts attempts in Redis, keyed by provider type and
// minute bucket. INCR is atomic, so enforcement is exact even under
// concurrent senders; the bucket resets implicitly as the key rolls over.
type RedisRateLimiter struct {
	client *redis.Client
}

// NewRedisRateLimiter creates a Redis-backed rate limiter.
func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client}
}

func minuteKey(pt domain.ProviderType) string {
	return fmt.Sprintf("ratelimit:%s:%d", pt, time.Now().Unix()/60)
}

func (r *RedisRateLimiter) Allow(ctx context.Context, pt domain.ProviderType, maxPerMinute int) bool {
	if maxPerMinute <= 0 {
		return true
	}

	key := minuteKey(pt)

	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		// Fail open: availability over strict enforcement.
		logger.Warn("rate limiter: counter store error, failing open",
			"provider", string(pt), "error", err.Error())
		return true
	}

	return incr.Val() <= int64(maxPerMinute)
}

func (r *RedisRateLimiter) Peek(ctx context.Context, pt domain.ProviderType, maxPerMinute int) bool {
	if maxPerMinute <= 0 {
		return true
	}

	count, err := r.client.Get(ctx, minuteKey(pt)).Int64()
	if err == redis.Nil {
		return true
	}
	if err != nil {
		logger.Warn("rate limiter: counter store error, failing open",
			"provider", string(pt), "error", err.Error())
		return true
	}
	return count < int64(maxPerMinute)
}

// NoopRateLimiter allows everything. Used when Redis is not configured.
type NoopRateLimiter struct{}

func (NoopRateLimiter) Allow(context.Context, domain.ProviderType, int) bool { return true }
func (NoopRateLimiter) Peek(context.Context, domain.ProviderType, int) bool  { return true }
