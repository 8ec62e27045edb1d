package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	BaseURL     string `yaml:"base_url" env:"BACKSHELF_BASE_URL"`
	DefaultUser string `yaml:"default_user" env:"BACKSHELF_DEFAULT_USER"`
	CachePath   string `yaml:"cache_path" env:"BACKSHELF_CACHE_PATH"`
	Debug       bool   `yaml:"debug" env:"BACKSHELF_DEBUG"`

	Cookie     string `yaml:"cookie" env:"BACKSHELF_COOKIE"`
	CookieFile string `yaml:"cookie_file" env:"BACKSHELF_COOKIE_FILE"`
	UserAgent  string `yaml:"user_agent" env:"BACKSHELF_USER_AGENT"`

	// watch session
	Headless        bool `yaml:"headless" env:"BACKSHELF_HEADLESS"`
	CheckIntervalMs int  `yaml:"check_interval_ms"`
	SettleDelayMs   int  `yaml:"settle_delay_ms"`
	PollIntervalMs  int  `yaml:"poll_interval_ms"`
	PollAttempts    int  `yaml:"poll_attempts"`
}

type Options struct {
	IgnoreConfig bool
	Debug        bool
	BaseURL      string
	DefaultUser  string
	CachePath    string
	Cookie       string
	CookieFile   string
	UserAgent    string
	Headless     bool
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "https://backloggd.com",
		DefaultUser:     "",
		CachePath:       "",
		Debug:           false,
		Cookie:          "",
		CookieFile:      "",
		UserAgent:       "",
		Headless:        false,
		CheckIntervalMs: 300,
		SettleDelayMs:   400,
		PollIntervalMs:  150,
		PollAttempts:    30,
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

// LoadMerged builds the effective config: active YAML profile (or
// defaults), then BACKSHELF_* environment overrides, then CLI options.
func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		if err := applyEnv(cfg); err != nil {
			return nil, "", err
		}
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(ignored config)", nil
	}

	activePath, err := ActiveConfigPath()
	if err == ErrNoConfig || activePath == "" {
		cfg := DefaultConfig()
		if err := applyEnv(cfg); err != nil {
			return nil, "", err
		}
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(default config in memory)\nRun `backshelf config init` to create an actual config\n", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, "", err
	}
	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, activePath, nil
}

func applyEnv(c *Config) error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

func mergeConfig(c *Config, o Options) {
	if o.BaseURL != "" {
		c.BaseURL = o.BaseURL
	}
	if o.DefaultUser != "" {
		c.DefaultUser = o.DefaultUser
	}
	if o.CachePath != "" {
		c.CachePath = o.CachePath
	}
	if o.Debug {
		c.Debug = true
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.Headless {
		c.Headless = true
	}
}

func normalizeDefaults(c *Config) {
	if c.BaseURL == "" {
		c.BaseURL = "https://backloggd.com"
	}
	if c.CheckIntervalMs == 0 {
		c.CheckIntervalMs = 300
	}
	if c.SettleDelayMs == 0 {
		c.SettleDelayMs = 400
	}
	if c.PollIntervalMs == 0 {
		c.PollIntervalMs = 150
	}
	if c.PollAttempts == 0 {
		c.PollAttempts = 30
	}
}

func (c *Config) Print() {
	fmt.Printf(" -base_url: %s\n", c.BaseURL)
	if c.DefaultUser != "" {
		fmt.Printf(" -default_user: %s\n", c.DefaultUser)
	}
	if c.CachePath != "" {
		fmt.Printf(" -cache_path: %s\n", c.CachePath)
	}
	if c.Debug {
		fmt.Printf(" -debug: %t\n", c.Debug)
	}
	if c.CookieFile != "" {
		fmt.Printf(" -cookie_file: %s\n", c.CookieFile)
	}
	if c.UserAgent != "" {
		fmt.Printf(" -user_agent: %s\n", c.UserAgent)
	}
	if c.Headless {
		fmt.Printf(" -headless: %t\n", c.Headless)
	}
	fmt.Printf(" -check_interval_ms: %d\n", c.CheckIntervalMs)
	fmt.Printf(" -settle_delay_ms: %d\n", c.SettleDelayMs)
	fmt.Printf(" -poll_interval_ms: %d\n", c.PollIntervalMs)
	fmt.Printf(" -poll_attempts: %d\n", c.PollAttempts)
}
