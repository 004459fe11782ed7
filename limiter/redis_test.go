package limiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/go-session-service/limiter"
)

func newRedisLimiter(t *testing.T, policy limiter.Policy) (*limiter.RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return limiter.NewRedisLimiter(client, policy, zerolog.Nop()), mr
}

func TestRedisLimiterBudget(t *testing.T) {
	l, _ := newRedisLimiter(t, loginPolicy())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := l.Consume(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, res.Allowed, "attempt %d should be allowed", i+1)
	}

	res, err := l.Consume(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, 15*time.Minute, res.RetryAfter)
}

func TestRedisLimiterBlockPersistsAcrossAttempts(t *testing.T) {
	l, mr := newRedisLimiter(t, loginPolicy())
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := l.Consume(ctx, "1.2.3.4")
		require.NoError(t, err)
	}

	// Further attempts during the block never touch the counter
	mr.FastForward(5 * time.Minute)
	res, err := l.Consume(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.LessOrEqual(t, res.RetryAfter, 10*time.Minute)
	require.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestRedisLimiterWindowExpiry(t *testing.T) {
	l, mr := newRedisLimiter(t, loginPolicy())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := l.Consume(ctx, "1.2.3.4")
		require.NoError(t, err)
	}

	// A fresh window restarts the count from zero
	mr.FastForward(16 * time.Minute)
	res, err := l.Consume(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestRedisLimiterReset(t *testing.T) {
	l, _ := newRedisLimiter(t, loginPolicy())
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := l.Consume(ctx, "1.2.3.4")
		require.NoError(t, err)
	}

	require.NoError(t, l.Reset(ctx, "1.2.3.4"))

	res, err := l.Consume(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestRedisLimiterKeysAreIndependent(t *testing.T) {
	l, _ := newRedisLimiter(t, loginPolicy())
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := l.Consume(ctx, "1.2.3.4")
		require.NoError(t, err)
	}

	res, err := l.Consume(ctx, "5.6.7.8")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestRedisLimiterFailsOpenOnBackendError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l := limiter.NewRedisLimiter(client, loginPolicy(), zerolog.Nop())

	// Simulate the shared store going away mid-flight
	mr.Close()

	res, err := l.Consume(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestRedisLimiterFailClosed(t *testing.T) {
	policy := loginPolicy()
	policy.FailOpen = false

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l := limiter.NewRedisLimiter(client, policy, zerolog.Nop())

	mr.Close()

	_, err := l.Consume(context.Background(), "1.2.3.4")
	require.ErrorIs(t, err, limiter.ErrBackendUnavailable)
}
