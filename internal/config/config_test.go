package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"DB_DRIVER", "DATABASE_URL", "HTTP_ADDR", "HTTP_REQUEST_TIMEOUT",
	"LOG_LEVEL", "LOG_FORMAT", "WORKER_POLL_INTERVAL", "WORKER_MAX_IN_FLIGHT",
	"WORKER_STUCK_AFTER", "FOO_SLEEP", "BAR_URL", "BAZ_N",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, DefaultDatabaseURL, cfg.DBURL)
	assert.Equal(t, "127.0.0.1:3000", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 0, cfg.MaxInFlight)
	assert.Equal(t, 5*time.Minute, cfg.StuckAfter)
	assert.Equal(t, 2*time.Second, cfg.FooSleep)
	assert.Equal(t, 30, cfg.BazN)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file:tasks.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "TEXT")
	t.Setenv("WORKER_POLL_INTERVAL", "250ms")
	t.Setenv("WORKER_MAX_IN_FLIGHT", "8")
	t.Setenv("BAZ_N", "92")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "file:tasks.db", cfg.DBURL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 8, cfg.MaxInFlight)
	assert.Equal(t, 92, cfg.BazN)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DB_DRIVER", "mysql"},
		{"LOG_FORMAT", "xml"},
		{"LOG_LEVEL", "loud"},
		{"WORKER_POLL_INTERVAL", "soon"},
		{"WORKER_POLL_INTERVAL", "-1s"},
		{"WORKER_MAX_IN_FLIGHT", "-2"},
		{"BAZ_N", "many"},
		{"BAZ_N", "-1"},
		{"BAZ_N", "93"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("HTTP_ADDR")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=0.0.0.0:9999\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("HTTP_ADDR") })

	require.NoError(t, LoadDotEnv(path))
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", cfg.HTTPAddr)

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
