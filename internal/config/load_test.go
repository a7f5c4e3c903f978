package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimal required settings without which validation must fail
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("EULER_DATABASE_URL", "postgres://localhost:5432/euler")
	t.Setenv("EULER_AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("EULER_AUTH_ADMIN_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuv")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, 3, cfg.Worker.MaxAttempts)
	assert.Equal(t, 10, cfg.Worker.ClaimBatchSize)
	assert.Equal(t, 5*time.Minute, cfg.Worker.VisibilityTimeout)
	assert.Equal(t, 30*time.Second, cfg.Worker.ShutdownGracePeriod)
	assert.Equal(t, 5*time.Second, cfg.Worker.BackoffBase)
	assert.Equal(t, 2*time.Minute, cfg.Worker.BackoffCap)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EULER_SERVER_PORT", "9999")
	t.Setenv("EULER_SERVER_LOG_LEVEL", "debug")
	t.Setenv("EULER_WORKER_CONCURRENCY", "8")
	t.Setenv("EULER_WORKER_MAX_ATTEMPTS", "5")
	t.Setenv("EULER_WORKER_SHUTDOWN_GRACE_PERIOD", "10s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 8, cfg.Worker.Concurrency)
	assert.Equal(t, 5, cfg.Worker.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Worker.ShutdownGracePeriod)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("EULER_AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("EULER_AUTH_ADMIN_PASSWORD_HASH", "$2a$10$abcdefghijklmnopqrstuv")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoad_RejectsShortJWTSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EULER_AUTH_JWT_SECRET", "too-short")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsInvalidLogLevel(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EULER_SERVER_LOG_LEVEL", "verbose")

	_, err := Load()
	require.Error(t, err)
}
