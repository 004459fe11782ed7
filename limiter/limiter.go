// Package limiter implements a pluggable sliding-window counter used to
// throttle login attempts and general API traffic. Two interchangeable
// backends implement the same contract: a shared Redis counter store and an
// in-process fallback for deployments without one.
package limiter

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"
)

// ErrBackendUnavailable marks limiter failures caused by the counter
// backend itself (connectivity, timeouts), as opposed to a legitimate
// "budget exceeded" result. The two must never be confused: the former may
// fail open, the latter always fails closed.
var ErrBackendUnavailable = errors.New("rate limit backend unavailable")

// Policy tunes one limiter instance. Instances are namespaced by Prefix so
// consuming the login budget never touches the global budget for the same
// client key.
type Policy struct {
	Points   int           // consumable points per window
	Window   time.Duration // trailing window length
	Block    time.Duration // additional hard block once the budget is exceeded
	FailOpen bool          // allow requests when the backend itself errors
	Prefix   string        // key namespace, e.g. "login" or "global"
}

// Result is the outcome of a Consume call. RetryAfter is only meaningful
// when Allowed is false.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter is the abuse-prevention contract shared by both backends.
// Consume must be atomic per key; Reset clears all state for a key
// (used after a successful login).
type Limiter interface {
	Consume(ctx context.Context, key string) (Result, error)
	Reset(ctx context.Context, key string) error
}

// ClientKey derives the limiter key for a request: the left-most address in
// the X-Forwarded-For chain when present, otherwise the socket address.
// Proxy deployments must strip or overwrite the header at the trust
// boundary; this is an operational assumption, not a security guarantee.
func ClientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx >= 0 {
			xff = xff[:idx]
		}
		if addr := strings.TrimSpace(xff); addr != "" {
			return addr
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
