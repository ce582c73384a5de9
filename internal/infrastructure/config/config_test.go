package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.HTTPPort)
	require.Equal(t, 25, cfg.DatabaseMaxConns)
	require.Equal(t, int64(250), cfg.PlatformFeeBPS)
	require.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("PLATFORM_FEE_BPS", "500")
	t.Setenv("PLATFORM_ORG_ID", "org-platform")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OUTBOX_INTERVAL", "1s")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.HTTPPort)
	require.Equal(t, int64(500), cfg.PlatformFeeBPS)
	require.Equal(t, "org-platform", cfg.PlatformOrgID)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, time.Second, cfg.OutboxInterval)
}
