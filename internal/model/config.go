package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Default values applied when the config file omits a key.
const (
	DefaultTimeoutSec      = 30
	DefaultPollIntervalSec = 0
	DefaultMaxBackoffSec   = 300
	DefaultLogLevel        = "info"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// APIConfig holds settings for the StudyHub HTTP client.
type APIConfig struct {
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// BreakerFailures is the number of consecutive failures after which
	// calls fail fast until BreakerCooldownSec has passed.
	BreakerFailures    int `mapstructure:"breaker_failures" yaml:"breaker_failures"`
	BreakerCooldownSec int `mapstructure:"breaker_cooldown_sec" yaml:"breaker_cooldown_sec"`
}

// DisplayConfig holds UI and refresh preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`

	// PollIntervalSec re-syncs the header counters periodically when
	// positive. Zero means once per session.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// MaxBackoffSec caps the polling delay after consecutive failures.
	MaxBackoffSec int `mapstructure:"max_backoff_sec" yaml:"max_backoff_sec"`

	// Categories lists the panels rendered in the feed, in order.
	Categories []string `mapstructure:"categories" yaml:"categories"`
}

// LogConfig controls the rotating log file.
type LogConfig struct {
	File  string `mapstructure:"file" yaml:"file"`
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// DefaultAccount names or identifies the account used at startup.
	DefaultAccount string        `mapstructure:"default_account" yaml:"default_account"`
	API            APIConfig     `mapstructure:"api" yaml:"api"`
	Display        DisplayConfig `mapstructure:"display" yaml:"display"`
	Log            LogConfig     `mapstructure:"log" yaml:"log"`
}

// CategoryList returns the configured feed categories, or the known
// categories when none are configured.
func (c DisplayConfig) CategoryList() []Category {
	if len(c.Categories) == 0 {
		out := make([]Category, len(KnownCategories))
		copy(out, KnownCategories)
		return out
	}
	out := make([]Category, 0, len(c.Categories))
	for _, name := range c.Categories {
		out = append(out, Category(name))
	}
	return out
}

// DefaultConfigDir returns ~/.config/studyhub-notify.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "studyhub-notify")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/studyhub-notify/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultDBPath returns the default path of the local account database.
func DefaultDBPath() string {
	return filepath.Join(DefaultConfigDir(), "accounts.db")
}

// DefaultLogPath returns ~/.local/state/studyhub-notify/studyhub-notify.log.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "studyhub-notify.log"
	}
	return filepath.Join(home, ".local", "state", "studyhub-notify", "studyhub-notify.log")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			TimeoutSec:         DefaultTimeoutSec,
			BreakerFailures:    5,
			BreakerCooldownSec: 30,
		},
		Display: DisplayConfig{
			Theme:           "default",
			PollIntervalSec: DefaultPollIntervalSec,
			MaxBackoffSec:   DefaultMaxBackoffSec,
		},
		Log: LogConfig{
			File:  DefaultLogPath(),
			Level: DefaultLogLevel,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
// Environment variables prefixed with STUDYHUB_ override file values
// (e.g. STUDYHUB_DISPLAY_POLL_INTERVAL_SEC).
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("studyhub")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	def := defaultAppConfig()
	v.SetDefault("default_account", def.DefaultAccount)
	v.SetDefault("api.timeout_sec", def.API.TimeoutSec)
	v.SetDefault("api.breaker_failures", def.API.BreakerFailures)
	v.SetDefault("api.breaker_cooldown_sec", def.API.BreakerCooldownSec)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("display.poll_interval_sec", def.Display.PollIntervalSec)
	v.SetDefault("display.max_backoff_sec", def.Display.MaxBackoffSec)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.level", def.Log.Level)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.API.TimeoutSec <= 0 {
		cfg.API.TimeoutSec = DefaultTimeoutSec
	}
	if cfg.Display.PollIntervalSec < 0 {
		cfg.Display.PollIntervalSec = 0
	}
	if cfg.Display.MaxBackoffSec <= 0 {
		cfg.Display.MaxBackoffSec = DefaultMaxBackoffSec
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("default_account", cfg.DefaultAccount)
	v.Set("api", cfg.API)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
