package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisLimiter is a fixed-window limiter over a shared redis counter store.
// The counter increment and expiry are pipelined so concurrent submissions
// from the same identity consume quota atomically.
type RedisLimiter struct {
	client   *redis.Client
	limit    int
	interval time.Duration
	now      func() time.Time
}

// NewRedisLimiter creates a redis-backed limiter
func NewRedisLimiter(client *redis.Client, limit int, interval time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, identity string) (Decision, error) {
	now := l.now()
	start := windowStart(now, l.interval)
	key := fmt.Sprintf("ratelimit:%s:%s", identity, strconv.FormatInt(start.Unix(), 32))

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.interval+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		// Fail open: a degraded counter store must not block all submissions
		logrus.Warnf("Rate limiter backend unavailable, allowing request: %v", err)
		return Decision{Allowed: true, Remaining: l.limit}, err
	}

	count := int(incr.Val())
	if count > l.limit {
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: start.Add(l.interval),
		}, nil
	}

	return Decision{Allowed: true, Remaining: l.limit - count}, nil
}
