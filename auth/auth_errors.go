package auth

import (
	"errors"
	"fmt"
	"time"
)

// Coarse failure taxonomy surfaced to callers. Credential and token
// verification failures are deliberately not distinguished beyond these
// sentinels, so the API never discloses whether the identity or the
// password was wrong.
var (
	InvalidCredentialsErr = errors.New("invalid credentials")
	UnauthorizedErr       = errors.New("invalid or expired token")
	AccountDeactivatedErr = errors.New("account deactivated")
	EmailUnverifiedErr    = errors.New("email not verified")
	EmailTakenErr         = errors.New("email already registered")
	UserNotFoundErr       = errors.New("user not found")
	PasswordPolicyErr     = errors.New("password does not meet requirements")
)

// RateLimitedError is returned when a budget is exhausted. It carries the
// retry hint the HTTP layer forwards to clients as a Retry-After header.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %ds", e.RetryAfterSeconds())
}

// RetryAfterSeconds returns the retry hint rounded up to whole seconds,
// never less than one.
func (e *RateLimitedError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
