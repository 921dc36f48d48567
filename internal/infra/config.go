package infra

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/HackbyRd258/ElectroWallet/internal/domain"
)

// CurrencyPolicy is the per-asset confirmation tuning in the config file.
type CurrencyPolicy struct {
	RequiredConfirmations int `yaml:"required_confirmations"`
	TickIntervalMS        int `yaml:"tick_interval_ms"`
}

// Config holds the full hub configuration.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Hub struct {
		Addr           string `yaml:"addr"`
		Mode           string `yaml:"mode"` // "hub" or "mock"
		NewsIntervalMS int    `yaml:"news_interval_ms"`
	} `yaml:"hub"`

	Market struct {
		TickIntervalMS int    `yaml:"tick_interval_ms"`
		LiveURL        string `yaml:"live_url"` // empty disables live prices
		LivePollSec    int    `yaml:"live_poll_sec"`
	} `yaml:"market"`

	Currencies map[string]CurrencyPolicy `yaml:"currencies"`

	Storage struct {
		Path string `yaml:"path"` // empty keeps state in memory only
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the config file, applies environment variable
// overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Hub.Addr == "" {
		return fmt.Errorf("hub addr is required")
	}
	if c.Market.TickIntervalMS <= 0 {
		return fmt.Errorf("market tick interval must be positive")
	}
	for sym, p := range c.Currencies {
		if !domain.Currency(sym).Valid() {
			return fmt.Errorf("unknown currency in config: %s", sym)
		}
		if p.RequiredConfirmations <= 0 {
			return fmt.Errorf("%s: required_confirmations must be positive", sym)
		}
		if p.TickIntervalMS <= 0 {
			return fmt.Errorf("%s: tick_interval_ms must be positive", sym)
		}
	}
	return nil
}

// Policies converts the currencies section into engine confirmation
// policies. Currencies not configured keep their defaults.
func (c *Config) Policies() map[domain.Currency]domain.ConfirmationPolicy {
	out := make(map[domain.Currency]domain.ConfirmationPolicy, len(c.Currencies))
	for sym, p := range c.Currencies {
		out[domain.Currency(sym)] = domain.ConfirmationPolicy{
			Required:     p.RequiredConfirmations,
			TickInterval: time.Duration(p.TickIntervalMS) * time.Millisecond,
		}
	}
	return out
}

// overrideWithEnv lets environment variables win over the config file.
func overrideWithEnv(cfg *Config) {
	if addr := os.Getenv("ELECTRO_HUB_ADDR"); addr != "" {
		cfg.Hub.Addr = addr
	}
	if mode := os.Getenv("ELECTRO_HUB_MODE"); mode != "" {
		cfg.Hub.Mode = mode
	}
	if path := os.Getenv("ELECTRO_DB_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if level := os.Getenv("ELECTRO_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
