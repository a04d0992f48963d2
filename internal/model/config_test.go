package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeoutSec, cfg.API.TimeoutSec)
	assert.Equal(t, 0, cfg.Display.PollIntervalSec)
	assert.Equal(t, DefaultMaxBackoffSec, cfg.Display.MaxBackoffSec)
	assert.Equal(t, KnownCategories, cfg.Display.CategoryList())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_account: campus
api:
  timeout_sec: 5
display:
  poll_interval_sec: 60
  max_backoff_sec: -1
  categories: [post, mention, thread]
log:
  level: debug
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "campus", cfg.DefaultAccount)
	assert.Equal(t, 5, cfg.API.TimeoutSec)
	assert.Equal(t, 5, cfg.API.BreakerFailures)
	assert.Equal(t, 60, cfg.Display.PollIntervalSec)
	assert.Equal(t, DefaultMaxBackoffSec, cfg.Display.MaxBackoffSec)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t,
		[]Category{CategoryPost, CategoryMention, Category("thread")},
		cfg.Display.CategoryList(),
	)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("STUDYHUB_DISPLAY_POLL_INTERVAL_SEC", "15")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Display.PollIntervalSec)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("display: [oops"), 0o600))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := defaultAppConfig()
	cfg.DefaultAccount = "uni"
	cfg.Display.PollIntervalSec = 45

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "uni", loaded.DefaultAccount)
	assert.Equal(t, 45, loaded.Display.PollIntervalSec)
}
