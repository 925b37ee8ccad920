// Package config provides configuration management for the journal.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Journal     JournalConfig     `mapstructure:"journal"`
	Market      MarketConfig      `mapstructure:"market"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
}

// JournalConfig holds journal-related configuration.
type JournalConfig struct {
	DBPath            string  `mapstructure:"db_path"`
	InitialCapital    float64 `mapstructure:"initial_capital"`
	DefaultMultiplier int     `mapstructure:"default_multiplier"` // currency per index point per contract
	PayoffSteps       int     `mapstructure:"payoff_steps"`
}

// MarketConfig holds market-data configuration.
type MarketConfig struct {
	IndexSymbol     string  `mapstructure:"index_symbol"` // e.g. NSE:NIFTY 50
	RiskFreeRatePct float64 `mapstructure:"risk_free_rate_pct"`
	SpotOverride    float64 `mapstructure:"spot_override"` // 0 means fetch live
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  bool   `mapstructure:"file"`
}

// CredentialsConfig holds Kite Connect API credentials.
type CredentialsConfig struct {
	APIKey      string `mapstructure:"api_key"`
	AccessToken string `mapstructure:"access_token"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-journal"
	}
	return filepath.Join(home, ".config", "options-journal")
}

// Load loads configuration from the specified directory. If configDir
// is empty the default directory is used; a missing config file yields
// the defaults rather than an error.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("journal.db_path", filepath.Join(configDir, "journal.db"))
	v.SetDefault("journal.initial_capital", 1000000.0)
	v.SetDefault("journal.default_multiplier", 50)
	v.SetDefault("journal.payoff_steps", 100)
	v.SetDefault("market.index_symbol", "NSE:NIFTY 50")
	v.SetDefault("market.risk_free_rate_pct", 7.0)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", true)
}

func applyEnvOverrides(cfg *Config) {
	if key := os.Getenv("KITE_API_KEY"); key != "" {
		cfg.Credentials.APIKey = key
	}
	if token := os.Getenv("KITE_ACCESS_TOKEN"); token != "" {
		cfg.Credentials.AccessToken = token
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Journal.InitialCapital <= 0 {
		return fmt.Errorf("journal.initial_capital must be positive, got %v", c.Journal.InitialCapital)
	}
	if c.Journal.DefaultMultiplier <= 0 {
		return fmt.Errorf("journal.default_multiplier must be positive, got %d", c.Journal.DefaultMultiplier)
	}
	if c.Journal.PayoffSteps <= 0 {
		return fmt.Errorf("journal.payoff_steps must be positive, got %d", c.Journal.PayoffSteps)
	}
	return nil
}
