package config

import "time"

type AuthConfig interface {
	GetAccessTokenSecret() string
	GetRefreshTokenSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRequireVerifiedEmail() bool
}

type Auth struct{}

var _ AuthConfig = Auth{}

// GetAccessTokenSecret returns the HMAC secret for access tokens. There is
// deliberately no default: an empty secret aborts startup.
func (Auth) GetAccessTokenSecret() string {
	return GetEnv("ACCESS_TOKEN_SECRET", "")
}

// GetRefreshTokenSecret returns the HMAC secret for refresh tokens. Must
// differ from the access secret.
func (Auth) GetRefreshTokenSecret() string {
	return GetEnv("REFRESH_TOKEN_SECRET", "")
}

func (Auth) GetAccessTokenExpiry() time.Duration {
	return GetEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute)
}

func (Auth) GetRefreshTokenExpiry() time.Duration {
	return GetEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour) // 7 days
}

// GetRequireVerifiedEmail gates login on a confirmed email address.
// Off by default, matching current application behavior.
func (Auth) GetRequireVerifiedEmail() bool {
	return GetEnv("REQUIRE_VERIFIED_EMAIL", "false") == "true"
}
