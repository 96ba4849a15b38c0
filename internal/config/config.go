// Package config provides configuration management for the options scanner.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. Values are loaded once at
// startup; there is no dynamic reconfiguration mid-session.
type Config struct {
	Gateway    GatewayConfig    `mapstructure:"gateway"`
	Collection CollectionConfig `mapstructure:"collection"`
	Exchanges  ExchangeConfig   `mapstructure:"exchanges"`
	Scanner    ScannerConfig    `mapstructure:"scanner"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// GatewayConfig holds connection settings for the market-data gateway.
type GatewayConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	ClientID int    `mapstructure:"client_id"`
}

// CollectionConfig holds option-chain collection settings. BatchSize and
// BatchDelay throttle contract requests below the gateway's per-second
// request ceiling.
type CollectionConfig struct {
	BatchSize      int           `mapstructure:"batch_size"`
	BatchDelay     time.Duration `mapstructure:"batch_delay"`
	MaxExpirations int           `mapstructure:"max_expirations"`
}

// ExchangeConfig holds default exchanges and per-symbol overrides.
type ExchangeConfig struct {
	DefaultStock  string            `mapstructure:"default_stock"`
	DefaultOption string            `mapstructure:"default_option"`
	Overrides     map[string]string `mapstructure:"overrides"`
}

// ScannerConfig holds opportunity-scan settings.
type ScannerConfig struct {
	Workers         int     `mapstructure:"workers"`
	MaxCandidates   int     `mapstructure:"max_candidates"`
	MaxExpirations  int     `mapstructure:"max_expirations"`
	DefaultLimit    int     `mapstructure:"default_limit"`
	PayoffSamples   int     `mapstructure:"payoff_samples"`
	PriceRangeRatio float64 `mapstructure:"price_range_ratio"`
}

// CacheConfig holds the short-TTL option-chain cache settings.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-scanner"
	}
	return filepath.Join(home, ".config", "options-scanner")
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Host:     "127.0.0.1",
			Port:     7497,
			ClientID: 1,
		},
		Collection: CollectionConfig{
			BatchSize:      50,
			BatchDelay:     100 * time.Millisecond,
			MaxExpirations: 4,
		},
		Exchanges: ExchangeConfig{
			DefaultStock:  "SMART",
			DefaultOption: "OPRA",
		},
		Scanner: ScannerConfig{
			Workers:         4,
			MaxCandidates:   5000,
			MaxExpirations:  4,
			DefaultLimit:    10,
			PayoffSamples:   200,
			PriceRangeRatio: 0.5,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    true,
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template and keep defaults
			return createTemplateConfig(configDir, name)
		}
		return err
	}

	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GATEWAY_HOST"); v != "" {
		cfg.Gateway.Host = v
	}
	if v := os.Getenv("GATEWAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if v := os.Getenv("GATEWAY_CLIENT_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.ClientID = id
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway port must be between 1 and 65535")
	}
	if c.Gateway.ClientID < 0 {
		return fmt.Errorf("gateway client_id must be non-negative")
	}
	if c.Collection.BatchSize <= 0 {
		return fmt.Errorf("collection batch_size must be positive")
	}
	if c.Collection.BatchDelay < 0 {
		return fmt.Errorf("collection batch_delay must be non-negative")
	}
	if c.Scanner.Workers <= 0 {
		return fmt.Errorf("scanner workers must be positive")
	}
	if c.Scanner.PayoffSamples < 2 {
		return fmt.Errorf("scanner payoff_samples must be at least 2")
	}
	if c.Scanner.PriceRangeRatio <= 0 || c.Scanner.PriceRangeRatio >= 1 {
		return fmt.Errorf("scanner price_range_ratio must be between 0 and 1")
	}
	return nil
}
