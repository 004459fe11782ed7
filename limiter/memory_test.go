package limiter_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campusworks/go-session-service/limiter"
)

func loginPolicy() limiter.Policy {
	return limiter.Policy{
		Points:   5,
		Window:   15 * time.Minute,
		Block:    15 * time.Minute,
		FailOpen: true,
		Prefix:   "login",
	}
}

func TestMemoryLimiterBudget(t *testing.T) {
	now := time.Now()
	l := limiter.NewMemoryLimiter(loginPolicy(), limiter.WithNowTime(func() time.Time { return now }))
	ctx := context.Background()

	// Exactly 5 attempts are evaluated
	for i := 0; i < 5; i++ {
		res, err := l.Consume(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, res.Allowed, "attempt %d should be allowed", i+1)
	}

	// The 6th is refused with a positive retry hint
	res, err := l.Consume(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, 15*time.Minute, res.RetryAfter)
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	l := limiter.NewMemoryLimiter(loginPolicy())
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := l.Consume(ctx, "1.2.3.4")
		require.NoError(t, err)
	}

	res, err := l.Consume(ctx, "5.6.7.8")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestMemoryLimiterBlockOutlastsWindow(t *testing.T) {
	now := time.Now()
	var mu sync.Mutex
	current := now
	nowFn := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(d)
	}

	l := limiter.NewMemoryLimiter(loginPolicy(), limiter.WithNowTime(nowFn))
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := l.Consume(ctx, "1.2.3.4")
		require.NoError(t, err)
	}

	// Part way through the block: still refused, retry hint shrinks
	advance(10 * time.Minute)
	res, err := l.Consume(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, 5*time.Minute, res.RetryAfter)

	// Past the block and the window: fresh budget
	advance(10 * time.Minute)
	res, err = l.Consume(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestMemoryLimiterReset(t *testing.T) {
	l := limiter.NewMemoryLimiter(loginPolicy())
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

func TestMemoryLimiterConcurrentConsume(t *testing.T) {
	l := limiter.NewMemoryLimiter(limiter.Policy{
		Points: 50,
		Window: time.Minute,
		Block:  time.Minute,
		Prefix: "login",
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.Consume(ctx, "1.2.3.4")
			require.NoError(t, err)
			if res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Never undercounts under concurrent bursts
	require.Equal(t, 50, allowed)
}

func TestMemoryLimiterSweep(t *testing.T) {
	now := time.Now()
	var mu sync.Mutex
	current := now
	l := limiter.NewMemoryLimiter(loginPolicy(), limiter.WithNowTime(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}))
	ctx := context.Background()

	_, err := l.Consume(ctx, "1.2.3.4")
	require.NoError(t, err)

	mu.Lock()
	current = current.Add(time.Hour)
	mu.Unlock()
	l.Sweep()

	// The swept key starts a fresh window
	res, err := l.Consume(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestClientKey(t *testing.T) {
	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.RemoteAddr = "10.0.0.1:43210"
	require.Equal(t, "10.0.0.1", limiter.ClientKey(r))

	// Left-most forwarded address wins
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.2")
	require.Equal(t, "1.2.3.4", limiter.ClientKey(r))
}
