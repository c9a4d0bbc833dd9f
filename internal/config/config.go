// Package config provides configuration management for the desk.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Desk        DeskConfig    `mapstructure:"desk"`
	Feed        FeedConfig    `mapstructure:"feed"`
	Server      ServerConfig  `mapstructure:"server"`
	Logging     LoggingConfig `mapstructure:"logging"`
	Storage     StorageConfig `mapstructure:"storage"`
	Credentials Credentials   `mapstructure:"-"` // Loaded separately
}

// DeskConfig holds position and instrument configuration.
type DeskConfig struct {
	Symbol   string `mapstructure:"symbol"`
	Expiry   string `mapstructure:"expiry"` // YYYY-MM-DD, empty = next Thursday
	LotSize  int    `mapstructure:"lot_size"`
	Autosave bool   `mapstructure:"autosave"`
}

// FeedConfig holds price feed configuration.
type FeedConfig struct {
	Source      string        `mapstructure:"source"` // "kite", "sim"
	Interval    time.Duration `mapstructure:"interval"`
	StrikeCount int           `mapstructure:"strike_count"`
}

// ServerConfig holds dashboard server configuration.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// Credentials holds API credentials.
type Credentials struct {
	Zerodha ZerodhaCredentials `mapstructure:"zerodha"`
}

// ZerodhaCredentials holds Zerodha API credentials.
type ZerodhaCredentials struct {
	APIKey      string `mapstructure:"api_key"`
	APISecret   string `mapstructure:"api_secret"`
	AccessToken string `mapstructure:"access_token"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-desk"
	}
	return filepath.Join(home, ".config", "options-desk")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = filepath.Join(configDir, "desk.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target *Config) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("desk.symbol", "NIFTY")
	v.SetDefault("desk.lot_size", 75)
	v.SetDefault("desk.autosave", true)
	v.SetDefault("feed.source", "sim")
	v.SetDefault("feed.interval", "2s")
	v.SetDefault("feed.strike_count", 10)
	v.SetDefault("server.addr", "127.0.0.1:8787")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("storage.db_path", filepath.Join(configDir, "desk.db"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template
			return createTemplateConfig(configDir, name)
		}
		return err
	}

	return v.Unmarshal(target)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Missing credentials are fine for the simulated feed.
			return nil
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KITE_API_KEY"); v != "" {
		cfg.Credentials.Zerodha.APIKey = v
	}
	if v := os.Getenv("KITE_API_SECRET"); v != "" {
		cfg.Credentials.Zerodha.APISecret = v
	}
	if v := os.Getenv("KITE_ACCESS_TOKEN"); v != "" {
		cfg.Credentials.Zerodha.AccessToken = v
	}
	if v := os.Getenv("DESK_SYMBOL"); v != "" {
		cfg.Desk.Symbol = v
	}
	if v := os.Getenv("FEED_SOURCE"); v != "" {
		cfg.Feed.Source = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Feed.Source != "" && c.Feed.Source != "kite" && c.Feed.Source != "sim" {
		return fmt.Errorf("invalid feed source: %s (must be 'kite' or 'sim')", c.Feed.Source)
	}
	if c.Feed.Interval < 0 {
		return fmt.Errorf("feed interval must be non-negative")
	}
	if c.Feed.StrikeCount < 0 {
		return fmt.Errorf("strike_count must be non-negative")
	}
	if c.Desk.LotSize < 1 {
		return fmt.Errorf("lot_size must be at least 1")
	}
	if c.Desk.Expiry != "" {
		if _, err := time.Parse("2006-01-02", c.Desk.Expiry); err != nil {
			return fmt.Errorf("invalid expiry %q: %w", c.Desk.Expiry, err)
		}
	}
	return nil
}

// ExpiryTime resolves the configured expiry. An empty expiry resolves to the
// next Thursday, the weekly index expiry.
func (c *Config) ExpiryTime(now time.Time) time.Time {
	if c.Desk.Expiry != "" {
		t, err := time.Parse("2006-01-02", c.Desk.Expiry)
		if err == nil {
			return t
		}
	}
	return nextThursday(now)
}

// IsSimulated returns true if the simulated feed is selected.
func (c *Config) IsSimulated() bool {
	return c.Feed.Source != "kite"
}

func nextThursday(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(time.Thursday) - int(day.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return day.AddDate(0, 0, offset)
}
