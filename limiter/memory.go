package limiter

import (
	"context"
	"sync"
	"time"
)

var _ Limiter = (*MemoryLimiter)(nil)

type bucket struct {
	count        int
	windowStart  time.Time
	blockedUntil time.Time
}

// MemoryLimiter is the in-process fallback backend, used when no shared
// counter store is configured. The budget is per process: behind a load
// balancer each instance counts independently, which is the accepted
// trade-off for running without Redis.
type MemoryLimiter struct {
	policy  Policy
	nowTime func() time.Time

	lock    sync.Mutex
	buckets map[string]*bucket
}

// MemoryLimiterOption modifies a MemoryLimiter instance.
type MemoryLimiterOption func(*MemoryLimiter)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) MemoryLimiterOption {
	return func(l *MemoryLimiter) {
		l.nowTime = nowFunc
	}
}

// NewMemoryLimiter creates an in-process limiter.
func NewMemoryLimiter(policy Policy, options ...MemoryLimiterOption) *MemoryLimiter {
	l := &MemoryLimiter{
		policy:  policy,
		nowTime: time.Now,
		buckets: make(map[string]*bucket),
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// Consume takes one point for key. The increment-and-check runs under the
// lock so concurrent bursts cannot undercount.
func (l *MemoryLimiter) Consume(_ context.Context, key string) (Result, error) {
	now := l.nowTime()

	l.lock.Lock()
	defer l.lock.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{windowStart: now}
		l.buckets[key] = b
	}

	if b.blockedUntil.After(now) {
		return Result{Allowed: false, RetryAfter: b.blockedUntil.Sub(now)}, nil
	}

	if now.Sub(b.windowStart) >= l.policy.Window {
		b.count = 0
		b.windowStart = now
		b.blockedUntil = time.Time{}
	}

	b.count++
	if b.count > l.policy.Points {
		b.blockedUntil = now.Add(l.policy.Block)
		return Result{Allowed: false, RetryAfter: l.policy.Block}, nil
	}

	return Result{Allowed: true}, nil
}

// Reset clears all state for key.
func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	delete(l.buckets, key)
	return nil
}

// Sweep drops buckets whose window and block have both lapsed. Call it
// periodically to keep the map from accumulating one entry per client IP
// ever seen.
func (l *MemoryLimiter) Sweep() {
	now := l.nowTime()

	l.lock.Lock()
	defer l.lock.Unlock()

	for key, b := range l.buckets {
		if now.Sub(b.windowStart) >= l.policy.Window && !b.blockedUntil.After(now) {
			delete(l.buckets, key)
		}
	}
}
