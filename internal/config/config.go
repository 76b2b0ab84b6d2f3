package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"RateBoard/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Sources struct {
		BinanceBaseURL string `yaml:"binance_base_url"`
		MOEXBaseURL    string `yaml:"moex_base_url"`
		CBRBaseURL     string `yaml:"cbr_base_url"`
		RatesAPIURL    string `yaml:"rates_api_url"`
		RatesAPIKey    string `yaml:"rates_api_key"`
		SnapshotFile   string `yaml:"snapshot_file"`
	} `yaml:"sources"`
	Currencies struct {
		Crypto []string `yaml:"crypto"`
		Fiat   []string `yaml:"fiat"`
	} `yaml:"currencies"`
	Schedule struct {
		SpotCron    string `yaml:"spot_cron"`
		HistoryCron string `yaml:"history_cron"`
		DigestCron  string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	History struct {
		Days              int   `yaml:"days"`
		SynthesizeMissing *bool `yaml:"synthesize_missing"`
	} `yaml:"history"`
	Settings struct {
		SQLitePath string `yaml:"sqlite_path"`
		FilePath   string `yaml:"file_path"`
	} `yaml:"settings"`
	Proxy string `yaml:"proxy"`
}

// DefaultPath is used when neither a flag nor CONFIG_PATH names a file.
const DefaultPath = "configs/config.yaml"

// ResolvePath picks the config file: explicit flag, then CONFIG_PATH, then DefaultPath.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SNAPSHOT_FILE"); v != "" {
		cfg.Sources.SnapshotFile = v
	}
	if v := os.Getenv("RATES_API_KEY"); v != "" {
		cfg.Sources.RatesAPIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Settings.SQLitePath = v
	}
	if v := os.Getenv("CRON_SPOT"); v != "" {
		cfg.Schedule.SpotCron = v
	}
	if v := os.Getenv("HISTORY_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.History.Days = days
		}
	}

	// Defaults
	if cfg.Sources.BinanceBaseURL == "" {
		cfg.Sources.BinanceBaseURL = "https://api.binance.com"
	}
	if cfg.Sources.MOEXBaseURL == "" {
		cfg.Sources.MOEXBaseURL = "https://iss.moex.com"
	}
	if cfg.Sources.CBRBaseURL == "" {
		cfg.Sources.CBRBaseURL = "https://www.cbr.ru"
	}
	if cfg.Sources.SnapshotFile == "" {
		cfg.Sources.SnapshotFile = "data/exchangerates.json"
	}
	if len(cfg.Currencies.Crypto) == 0 && len(cfg.Currencies.Fiat) == 0 {
		cfg.Currencies.Crypto = []string{"BTC", "ETH", "TON"}
		cfg.Currencies.Fiat = []string{"USD", "EUR", "CNY", "AED"}
	}
	cfg.Currencies.Crypto = upper(cfg.Currencies.Crypto)
	cfg.Currencies.Fiat = upper(cfg.Currencies.Fiat)
	if cfg.Schedule.SpotCron == "" {
		cfg.Schedule.SpotCron = "*/30 * * * * *"
	}
	if cfg.Schedule.HistoryCron == "" {
		cfg.Schedule.HistoryCron = "0 0 6 * * *"
	}
	if cfg.Schedule.DigestCron == "" {
		cfg.Schedule.DigestCron = "0 0 9 * * *"
	}
	if cfg.History.Days == 0 {
		cfg.History.Days = 1825
	}
	if cfg.History.SynthesizeMissing == nil {
		on := true
		cfg.History.SynthesizeMissing = &on
	}
	if cfg.Settings.SQLitePath == "" && cfg.Settings.FilePath == "" {
		cfg.Settings.FilePath = "data/settings.json"
	}

	return cfg, nil
}

func upper(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Synthesize reports whether placeholder data may be generated for missing histories.
func (c *Config) Synthesize() bool {
	return c.History.SynthesizeMissing != nil && *c.History.SynthesizeMissing
}

// Tracked returns every configured currency, crypto first.
func (c *Config) Tracked() []model.Currency {
	out := make([]model.Currency, 0, len(c.Currencies.Crypto)+len(c.Currencies.Fiat))
	for _, code := range c.Currencies.Crypto {
		out = append(out, model.Currency{Code: code, Kind: model.KindCrypto})
	}
	for _, code := range c.Currencies.Fiat {
		out = append(out, model.Currency{Code: code, Kind: model.KindFiat})
	}
	return out
}

// validateData checks the currency list and history window.
func (c *Config) validateData() error {
	if len(c.Tracked()) == 0 {
		return fmt.Errorf("currencies: at least one currency is required")
	}
	seen := make(map[string]bool)
	for _, t := range c.Tracked() {
		if seen[t.Code] {
			return fmt.Errorf("currencies: %s listed twice", t.Code)
		}
		seen[t.Code] = true
	}
	if c.History.Days <= 0 {
		return fmt.Errorf("history.days must be positive")
	}
	return nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if err := c.validateData(); err != nil {
		return err
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"schedule.spot_cron":    c.Schedule.SpotCron,
		"schedule.history_cron": c.Schedule.HistoryCron,
		"schedule.digest_cron":  c.Schedule.DigestCron,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
