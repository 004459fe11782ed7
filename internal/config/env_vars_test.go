package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campusworks/go-session-service/internal/config"
)

func TestGetEnvDuration(t *testing.T) {
	require.Equal(t, 15*time.Minute, config.GetEnvDuration("UNSET_DURATION", 15*time.Minute))

	t.Setenv("TEST_DURATION", "30m")
	require.Equal(t, 30*time.Minute, config.GetEnvDuration("TEST_DURATION", 15*time.Minute))

	t.Setenv("TEST_DURATION", "not-a-duration")
	require.Equal(t, 15*time.Minute, config.GetEnvDuration("TEST_DURATION", 15*time.Minute))
}

func TestGetEnvInt(t *testing.T) {
	require.Equal(t, 5, config.GetEnvInt("UNSET_INT", 5))

	t.Setenv("TEST_INT", "10")
	require.Equal(t, 10, config.GetEnvInt("TEST_INT", 5))

	t.Setenv("TEST_INT", "ten")
	require.Equal(t, 5, config.GetEnvInt("TEST_INT", 5))
}

func TestEnvironmentDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	c := config.New()
	require.Equal(t, "DEV", c.GetEnv())
	require.False(t, c.IsProduction())

	t.Setenv("ENV", "PROD")
	require.Equal(t, "PROD", c.GetEnv())
	require.True(t, c.IsProduction())
}

func TestLimiterDefaults(t *testing.T) {
	c := config.New()
	require.Equal(t, "", c.GetRedisAddr())
	require.Equal(t, 5, c.GetLoginMaxAttempts())
	require.Equal(t, 15*time.Minute, c.GetLoginWindow())
	require.Equal(t, 15*time.Minute, c.GetLoginBlock())
	require.Equal(t, 100, c.GetGlobalMaxRequests())
	require.Equal(t, 15*time.Minute, c.GetGlobalWindow())
}

func TestTokenSecretsHaveNoDefault(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("REFRESH_TOKEN_SECRET", "")
	c := config.New()
	require.Empty(t, c.GetAccessTokenSecret())
	require.Empty(t, c.GetRefreshTokenSecret())
	require.Equal(t, 15*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, 7*24*time.Hour, c.GetRefreshTokenExpiry())
}
