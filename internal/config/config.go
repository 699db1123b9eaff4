package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	envTinkoffToken  = "ALPHASTREAM_TINKOFF_TOKEN"
	envTelegramToken = "ALPHASTREAM_TELEGRAM_TOKEN"
	envAdvisorAPIKey = "ALPHASTREAM_ADVISOR_API_KEY"
)

type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Prices   PricesConfig   `yaml:"prices"`
	Tinkoff  TinkoffConfig  `yaml:"tinkoff"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Telegram TelegramConfig `yaml:"telegram"`
	Advisor  AdvisorConfig  `yaml:"advisor"`
	Web      WebConfig      `yaml:"web"`
	Logging  LoggingConfig  `yaml:"logging"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

type StoreConfig struct {
	// Driver is "sqlite" or "file".
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type PricesConfig struct {
	// Provider is the primary source: yahoo, moex or tinkoff.
	Provider string   `yaml:"provider"`
	Fallback []string `yaml:"fallback"`
	CacheTTL string   `yaml:"cache_ttl"`
	// YahooURL and MOEXURL override the public endpoints.
	YahooURL string `yaml:"yahoo_url"`
	MOEXURL  string `yaml:"moex_url"`
	// YahooConcurrency bounds parallel quote requests; MOEXBoard picks the ISS board.
	YahooConcurrency int    `yaml:"yahoo_concurrency"`
	MOEXBoard        string `yaml:"moex_board"`
}

type TinkoffConfig struct {
	Token       string `yaml:"token"`
	Sandbox     bool   `yaml:"sandbox"`
	AccountID   string `yaml:"account_id"`
	Concurrency int    `yaml:"concurrency"`
}

type MonitorConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Interval      string `yaml:"interval"`
	AlertCooldown string `yaml:"alert_cooldown"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type AdvisorConfig struct {
	Enabled        bool   `yaml:"enabled"`
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type WebConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type DefaultsConfig struct {
	Principal      float64 `yaml:"principal"`
	Currency       string  `yaml:"currency"`
	YearlyGoalPct  float64 `yaml:"yearly_goal_pct"`
	DriftTolerance float64 `yaml:"drift_tolerance"`
}

// Load reads the YAML file at path. An optional .env file next to the
// process is loaded first; secrets in the environment override the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and defaults, and validates.
func Parse(data []byte) (*Config, error) {
	// Defaults where zero is a meaningful value are set before decoding.
	cfg := &Config{Defaults: DefaultsConfig{Principal: 10000, YearlyGoalPct: 10}}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(envTinkoffToken); v != "" {
		cfg.Tinkoff.Token = v
	}
	if v := os.Getenv(envTelegramToken); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv(envAdvisorAPIKey); v != "" {
		cfg.Advisor.APIKey = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Store.Path == "" {
		if cfg.Store.Driver == "file" {
			cfg.Store.Path = "alphastream_wealth.json"
		} else {
			cfg.Store.Path = "alphastream.db"
		}
	}
	if cfg.Prices.Provider == "" {
		cfg.Prices.Provider = "yahoo"
	}
	if cfg.Prices.CacheTTL == "" {
		cfg.Prices.CacheTTL = "5m"
	}
	if cfg.Tinkoff.Concurrency == 0 {
		cfg.Tinkoff.Concurrency = 10
	}
	if cfg.Monitor.Interval == "" {
		cfg.Monitor.Interval = "1h"
	}
	if cfg.Monitor.AlertCooldown == "" {
		cfg.Monitor.AlertCooldown = "24h"
	}
	if cfg.Advisor.Model == "" {
		cfg.Advisor.Model = "deepseek-chat"
	}
	if cfg.Advisor.BaseURL == "" {
		cfg.Advisor.BaseURL = "https://api.deepseek.com"
	}
	if cfg.Advisor.TimeoutSeconds == 0 {
		cfg.Advisor.TimeoutSeconds = 120
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Defaults.Currency == "" {
		cfg.Defaults.Currency = "USD"
	}
	if cfg.Defaults.DriftTolerance == 0 {
		cfg.Defaults.DriftTolerance = 5
	}
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "file":
	default:
		return fmt.Errorf("store.driver must be sqlite or file, got %q", c.Store.Driver)
	}
	for _, p := range c.Providers() {
		switch p {
		case "yahoo", "moex":
		case "tinkoff":
			if c.Tinkoff.Token == "" {
				return fmt.Errorf("tinkoff.token is required when the tinkoff price provider is used")
			}
		default:
			return fmt.Errorf("unknown price provider %q", p)
		}
	}
	if _, err := time.ParseDuration(c.Prices.CacheTTL); err != nil {
		return fmt.Errorf("invalid prices.cache_ttl %q: %w", c.Prices.CacheTTL, err)
	}
	if d, err := time.ParseDuration(c.Monitor.Interval); err != nil || d <= 0 {
		return fmt.Errorf("invalid monitor.interval %q", c.Monitor.Interval)
	}
	if _, err := time.ParseDuration(c.Monitor.AlertCooldown); err != nil {
		return fmt.Errorf("invalid monitor.alert_cooldown %q: %w", c.Monitor.AlertCooldown, err)
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Advisor.Enabled && c.Advisor.APIKey == "" {
		return fmt.Errorf("advisor.api_key is required when the advisor is enabled")
	}
	if c.Defaults.Principal < 0 {
		return fmt.Errorf("defaults.principal must not be negative")
	}
	if c.Defaults.YearlyGoalPct < 0 || c.Defaults.YearlyGoalPct > 100 {
		return fmt.Errorf("defaults.yearly_goal_pct must be within [0, 100], got %.2f", c.Defaults.YearlyGoalPct)
	}
	if c.Defaults.DriftTolerance < 0.5 || c.Defaults.DriftTolerance > 20 {
		return fmt.Errorf("defaults.drift_tolerance must be within [0.5, 20], got %.2f", c.Defaults.DriftTolerance)
	}
	return nil
}

// Providers lists the primary price provider followed by its fallbacks,
// without duplicates.
func (c *Config) Providers() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range append([]string{c.Prices.Provider}, c.Prices.Fallback...) {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func (c *Config) CacheTTL() time.Duration {
	d, _ := time.ParseDuration(c.Prices.CacheTTL)
	return d
}

func (c *Config) MonitorInterval() time.Duration {
	d, _ := time.ParseDuration(c.Monitor.Interval)
	return d
}

func (c *Config) AlertCooldown() time.Duration {
	d, _ := time.ParseDuration(c.Monitor.AlertCooldown)
	return d
}

func (c *Config) AdvisorTimeout() time.Duration {
	return time.Duration(c.Advisor.TimeoutSeconds) * time.Second
}
