package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	count int
	start time.Time
}

// MemoryLimiter is a fixed-window limiter keeping counters in process memory.
// It serves deployments without redis and the test suite. Counters are not
// shared across instances.
type MemoryLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	limit    int
	interval time.Duration
	now      func() time.Time
}

// NewMemoryLimiter creates an in-process limiter
func NewMemoryLimiter(limit int, interval time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		buckets:  make(map[string]*bucket),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, identity string) (Decision, error) {
	now := l.now()
	start := windowStart(now, l.interval)

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[identity]
	if !ok || b.start.Before(start) {
		b = &bucket{start: start}
		l.buckets[identity] = b
	}

	b.count++
	if b.count > l.limit {
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: start.Add(l.interval),
		}, nil
	}

	return Decision{Allowed: true, Remaining: l.limit - b.count}, nil
}

// SetNow overrides the clock, for tests
func (l *MemoryLimiter) SetNow(now func() time.Time) {
	l.now = now
}
