// Package config provides configuration management for the reconciliation
// service. All values are loaded once at process start; the resulting Config
// is treated as immutable and passed explicitly to every component.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"ratesync/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Tracking  TrackingConfig  `mapstructure:"tracking"`
	Calendar  CalendarConfig  `mapstructure:"calendar"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Store     StoreConfig     `mapstructure:"store"`
	Server    ServerConfig    `mapstructure:"server"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// TrackingConfig identifies what is reconciled and how changes are detected.
type TrackingConfig struct {
	Symbols   []string `mapstructure:"symbols"`
	Currency  string   `mapstructure:"currency"`
	Epsilon   float64  `mapstructure:"epsilon"`
	Namespace string   `mapstructure:"namespace"`
}

// CalendarConfig selects the trading-day gate.
type CalendarConfig struct {
	Mode     string `mapstructure:"mode"` // "calendar", "always_open"
	Timezone string `mapstructure:"timezone"`
}

// ProviderConfig holds the pricing-provider endpoint.
type ProviderConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StoreConfig holds the record-store boundary configuration. The backend is
// either "remote" (HTTP record store) or "sqlite" (local adapter).
type StoreConfig struct {
	Backend string        `mapstructure:"backend"`
	BaseURL string        `mapstructure:"base_url"`
	Owner   string        `mapstructure:"owner"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
	DBPath  string        `mapstructure:"db_path"`
}

// ServerConfig holds the manual-trigger HTTP surface configuration.
type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	AuthToken string `mapstructure:"auth_token"`
}

// SchedulerConfig holds the scheduled-trigger configuration.
type SchedulerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Console  bool   `mapstructure:"console"`
	File     bool   `mapstructure:"file"`
	FilePath string `mapstructure:"file_path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/ratesync"
	}
	return filepath.Join(home, ".config", "ratesync")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// No config file: defaults plus env overrides still form a
		// usable configuration.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tracking.symbols", []string{"BTC", "EGLD"})
	v.SetDefault("tracking.currency", "EUR")
	v.SetDefault("tracking.epsilon", models.DefaultEpsilon)
	v.SetDefault("tracking.namespace", "rates")
	v.SetDefault("calendar.mode", string(models.GatingCalendar))
	v.SetDefault("calendar.timezone", "Europe/Bucharest")
	v.SetDefault("provider.timeout", 15*time.Second)
	v.SetDefault("store.backend", "remote")
	v.SetDefault("store.timeout", 15*time.Second)
	v.SetDefault("store.db_path", filepath.Join(DefaultConfigDir(), "ratesync.db"))
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval", 24*time.Hour)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", false)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RATESYNC_PROVIDER_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("RATESYNC_STORE_URL"); v != "" {
		cfg.Store.BaseURL = v
	}
	if v := os.Getenv("RATESYNC_STORE_OWNER"); v != "" {
		cfg.Store.Owner = v
	}
	if v := os.Getenv("RATESYNC_STORE_TOKEN"); v != "" {
		cfg.Store.Token = v
	}
	if v := os.Getenv("RATESYNC_AUTH_TOKEN"); v != "" {
		cfg.Server.AuthToken = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Tracking.Symbols) == 0 {
		return fmt.Errorf("tracking.symbols must not be empty")
	}
	if c.Tracking.Currency == "" {
		return fmt.Errorf("tracking.currency must be set")
	}
	if c.Tracking.Epsilon <= 0 {
		return fmt.Errorf("tracking.epsilon must be positive")
	}
	if c.Tracking.Namespace == "" {
		return fmt.Errorf("tracking.namespace must be set")
	}
	switch c.Calendar.Mode {
	case string(models.GatingCalendar), string(models.GatingAlwaysOpen):
	default:
		return fmt.Errorf("invalid calendar mode: %s (must be %q or %q)",
			c.Calendar.Mode, models.GatingCalendar, models.GatingAlwaysOpen)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid calendar timezone %q: %w", c.Calendar.Timezone, err)
	}
	switch c.Store.Backend {
	case "remote", "sqlite":
	default:
		return fmt.Errorf("invalid store backend: %s (must be 'remote' or 'sqlite')", c.Store.Backend)
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be positive")
	}
	return nil
}

// Location resolves the configured calendar timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Calendar.Timezone)
}

// GatingMode returns the configured gating mode.
func (c *Config) GatingMode() models.GatingMode {
	return models.GatingMode(c.Calendar.Mode)
}
