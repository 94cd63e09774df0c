package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/hotel-session/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := config.New()

	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "/open/refresh", c.GetRefreshPath())
	require.Equal(t, config.DefaultSafetyMargin, c.GetSafetyMargin())
	require.Equal(t, 10*time.Second, c.GetRefreshTimeout())
	require.Equal(t, config.StoreFile, c.GetCredentialStore())
	require.Equal(t, ":8080", c.GetPort())
	require.False(t, c.GetRotateRefreshTokens())
}

func TestOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://hotel.example.com/")
	t.Setenv("SAFETY_MARGIN", "30s")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("PORT", ":9090")
	t.Setenv("ROTATE_REFRESH_TOKENS", "true")

	c := config.New()

	require.Equal(t, "https://hotel.example.com", c.GetAPIBaseURL())
	require.Equal(t, 30*time.Second, c.GetSafetyMargin())
	require.Equal(t, 3, c.GetRedisDB())
	require.Equal(t, ":9090", c.GetPort())
	require.True(t, c.GetRotateRefreshTokens())
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("REFRESH_TIMEOUT", "soon")
	require.Equal(t, 10*time.Second, config.New().GetRefreshTimeout())

	t.Setenv("REFRESH_TIMEOUT", "-1s")
	require.Equal(t, 10*time.Second, config.New().GetRefreshTimeout())
}
