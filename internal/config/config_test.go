package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "md5brute.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, uint64(10000), cfg.Search.Cadence)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
search:
  max_length: 7
  cadence: 500
  strict: false
  progress_interval: 250ms
controller:
  port: 9001
worker:
  metrics_addr: ":9108"
log:
  level: debug
  json: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Search.MaxLength)
	assert.Equal(t, uint64(500), cfg.Search.Cadence)
	assert.False(t, cfg.Search.Strict)
	assert.Equal(t, 250*time.Millisecond, cfg.Search.ProgressInterval)
	assert.Equal(t, "localhost", cfg.Controller.Host, "unset keys keep defaults")
	assert.Equal(t, 9001, cfg.Controller.Port)
	assert.Equal(t, ":9108", cfg.Worker.MetricsAddr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "search:\n  max_length: 7\n")
	t.Setenv("MD5BRUTE_MAX_LENGTH", "3")
	t.Setenv("MD5BRUTE_CADENCE", "42")
	t.Setenv("MD5BRUTE_STRICT", "false")
	t.Setenv("MD5BRUTE_PROGRESS_INTERVAL", "2s")
	t.Setenv("MD5BRUTE_PORT", "8123")
	t.Setenv("MD5BRUTE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Search.MaxLength)
	assert.Equal(t, uint64(42), cfg.Search.Cadence)
	assert.False(t, cfg.Search.Strict)
	assert.Equal(t, 2*time.Second, cfg.Search.ProgressInterval)
	assert.Equal(t, 8123, cfg.Controller.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("MD5BRUTE_PORT", "eighty")
	t.Setenv("MD5BRUTE_STRICT", "maybe")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MD5BRUTE_PORT")
	assert.Contains(t, err.Error(), "MD5BRUTE_STRICT")
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"zero max length": "search:\n  max_length: 0\n",
		"huge max length": "search:\n  max_length: 40\n",
		"zero cadence":    "search:\n  cadence: 0\n",
		"bad port":        "controller:\n  port: 70000\n",
		"bad level":       "log:\n  level: loud\n",
		"not yaml":        "search: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_LogLevelAnyCase(t *testing.T) {
	for _, level := range []string{"DEBUG", "Warning", "error"} {
		t.Setenv("MD5BRUTE_LOG_LEVEL", level)
		cfg, err := Load("")
		require.NoError(t, err, level)
		assert.Equal(t, level, cfg.Log.Level)
	}

	cfg := Default()
	cfg.Log.Level = "Info"
	assert.NoError(t, cfg.Validate())
	cfg.Log.Level = "loud"
	assert.ErrorContains(t, cfg.Validate(), "unknown log level")
}
