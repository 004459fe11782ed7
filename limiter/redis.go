package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var _ Limiter = (*RedisLimiter)(nil)

// RedisLimiter counts consumed points in a shared Redis store so the budget
// holds across every instance behind the same load balancer.
type RedisLimiter struct {
	client redis.UniversalClient
	policy Policy
	logger zerolog.Logger
}

// NewRedisLimiter creates a limiter backed by the given Redis client.
func NewRedisLimiter(client redis.UniversalClient, policy Policy, logger zerolog.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		policy: policy,
		logger: logger.With().Str("limiter", policy.Prefix).Logger(),
	}
}

// Consume atomically takes one point for key. Once the budget is exceeded a
// block key is written with its own TTL, so further attempts are refused for
// the full block duration rather than just the remainder of the window.
func (l *RedisLimiter) Consume(ctx context.Context, key string) (Result, error) {
	blocked, retryAfter, err := l.blockedFor(ctx, key)
	if err != nil {
		return l.failOpen(err)
	}
	if blocked {
		return Result{Allowed: false, RetryAfter: retryAfter}, nil
	}

	count, err := l.client.Incr(ctx, l.countKey(key)).Result()
	if err != nil {
		return l.failOpen(fmt.Errorf("%w: %v", ErrBackendUnavailable, err))
	}

	// Fixed-window semantics: the TTL is set by the first hit in the window.
	if count == 1 {
		if err := l.client.Expire(ctx, l.countKey(key), l.policy.Window).Err(); err != nil {
			return l.failOpen(fmt.Errorf("%w: %v", ErrBackendUnavailable, err))
		}
	}

	if count > int64(l.policy.Points) {
		if err := l.client.Set(ctx, l.blockKey(key), 1, l.policy.Block).Err(); err != nil {
			return l.failOpen(fmt.Errorf("%w: %v", ErrBackendUnavailable, err))
		}
		return Result{Allowed: false, RetryAfter: l.policy.Block}, nil
	}

	return Result{Allowed: true}, nil
}

// Reset clears the counter and any active block for key.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.countKey(key), l.blockKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (l *RedisLimiter) blockedFor(ctx context.Context, key string) (bool, time.Duration, error) {
	ttl, err := l.client.PTTL(ctx, l.blockKey(key)).Result()
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if ttl > 0 {
		return true, ttl, nil
	}
	return false, 0, nil
}

// failOpen applies the policy when the backend itself fails: allow the
// request with a logged warning, or surface the error for fail-closed
// instances. Never invoked for a legitimate "exceeded" result.
func (l *RedisLimiter) failOpen(err error) (Result, error) {
	if l.policy.FailOpen {
		l.logger.Warn().Err(err).Msg("rate limit backend error, failing open")
		return Result{Allowed: true}, nil
	}
	return Result{}, err
}

func (l *RedisLimiter) countKey(key string) string {
	return fmt.Sprintf("ratelimit:%s:count:%s", l.policy.Prefix, key)
}

func (l *RedisLimiter) blockKey(key string) string {
	return fmt.Sprintf("ratelimit:%s:block:%s", l.policy.Prefix, key)
}
