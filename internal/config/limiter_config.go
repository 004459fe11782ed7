package config

import "time"

type LimiterConfig interface {
	GetRedisAddr() string
	GetLoginMaxAttempts() int
	GetLoginWindow() time.Duration
	GetLoginBlock() time.Duration
	GetGlobalMaxRequests() int
	GetGlobalWindow() time.Duration
}

type Limits struct{}

var _ LimiterConfig = Limits{}

// GetRedisAddr returns the shared counter store address. Empty selects the
// in-process fallback backend.
func (Limits) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "")
}

func (Limits) GetLoginMaxAttempts() int {
	return GetEnvInt("LOGIN_MAX_ATTEMPTS", 5)
}

func (Limits) GetLoginWindow() time.Duration {
	return GetEnvDuration("LOGIN_WINDOW", 15*time.Minute)
}

// GetLoginBlock is the hard block applied once the login budget is
// exceeded, on top of the window itself.
func (Limits) GetLoginBlock() time.Duration {
	return GetEnvDuration("LOGIN_BLOCK", 15*time.Minute)
}

func (Limits) GetGlobalMaxRequests() int {
	return GetEnvInt("GLOBAL_MAX_REQUESTS", 100)
}

func (Limits) GetGlobalWindow() time.Duration {
	return GetEnvDuration("GLOBAL_WINDOW", 15*time.Minute)
}
