package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"NEWSRANKER_ENVIRONMENT", "ENVIRONMENT",
		"NEWSRANKER_LOG_LEVEL", "LOG_LEVEL",
		"NEWSRANKER_STATE_DIR", "STATE_DIR",
		"NEWSRANKER_DATABASE_DSN", "DATABASE_DSN",
		"NEWSRANKER_OUTPUT_DIR", "OUTPUT_DIR",
		"NEWSRANKER_BRAVE_API_KEY", "BRAVE_API_KEY",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, StateBackendFile, cfg.State.Backend)
	assert.NotEmpty(t, cfg.State.Dir)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.IntervalDuration())
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
	assert.Len(t, cfg.Verticals, 3)
	assert.Equal(t, 10*time.Minute, cfg.Collector.CacheTTLDuration())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	clearEnv(t)

	p := writeFile(t, "config.yaml", `
environment: production
logging:
  level: debug
state:
  backend: sql
  driver: sqlite
  dsn: file:state.db
scheduler:
  timezone: Europe/Berlin
brave:
  resultsPerQuery: 20
verticals:
  - name: stocks
    path: ./stocks.yaml
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, StateBackendSQL, cfg.State.Backend)
	assert.Equal(t, "sqlite", cfg.State.Driver)
	assert.Equal(t, 20, cfg.Brave.ResultsPerQuery)
	assert.Equal(t, 3, cfg.Brave.MaxRetries, "unset fields keep defaults")
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Location().String())
	require.Len(t, cfg.Verticals, 1)
	assert.True(t, cfg.Verticals[0].IsEnabled())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BRAVE_API_KEY", "plain-key")
	t.Setenv("NEWSRANKER_LOG_LEVEL", "warn")
	stateDir := t.TempDir()
	t.Setenv("NEWSRANKER_STATE_DIR", stateDir)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "plain-key", cfg.Brave.APIKey)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, stateDir, cfg.State.Dir)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeFile(t, "bad.yaml", "state:\n  backend: s3\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = Load(writeFile(t, "broken.yaml", "state: [unterminated\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
