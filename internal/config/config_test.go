package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.Port)
	assert.Equal(t, 100, cfg.Database.BatchSize)
	assert.Equal(t, 100, cfg.Steam.PageSize)
	assert.Equal(t, 100, cfg.Steam.RequestsPerMin)
	assert.Equal(t, 1000, cfg.Steam.Backoff.InitialDelayMS)
	assert.Equal(t, 30000, cfg.Steam.Backoff.MaxDelayMS)
	assert.Equal(t, 3, cfg.Steam.Backoff.MaxAttempts)
	assert.Equal(t, 10, cfg.Queue.MaxWorkers)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steamsync.toml")
	content := `
[server]
port = 9999

[steam.backoff]
max_attempts = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Steam.Backoff.MaxAttempts)
	// Untouched keys keep their defaults.
	assert.Equal(t, 100, cfg.Steam.PageSize)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steamsync.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 9999\n"), 0644))

	t.Setenv("STEAMSYNC_SERVER_PORT", "7777")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.Port)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestRetryConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	rc := cfg.RetryConfig()
	assert.Equal(t, time.Second, rc.InitialDelay)
	assert.Equal(t, 30*time.Second, rc.MaxDelay)
	assert.Equal(t, 3, rc.MaxAttempts)
}

func TestValidate(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.NoError(t, Validate(cfg))

	bad := *cfg
	bad.Steam.Backoff.MaxDelayMS = 10
	assert.Error(t, Validate(&bad))

	bad = *cfg
	bad.Server.Port = 0
	assert.Error(t, Validate(&bad))

	bad = *cfg
	bad.Steam.PageSize = 101
	assert.Error(t, Validate(&bad))
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steamsync.toml")
	require.NoError(t, InitConfig(path))

	// Second init must not clobber an existing file.
	assert.Error(t, InitConfig(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.NoError(t, Validate(cfg))
}
