package config

import (
	"testing"
)

func TestLoadMerged_IgnoreConfigDefaults(t *testing.T) {
	cfg, used, err := LoadMerged(Options{IgnoreConfig: true})
	if err != nil {
		t.Fatalf("LoadMerged: %v", err)
	}

	if used != "(ignored config)" {
		t.Errorf("used: got %q", used)
	}
	if cfg.BaseURL != "https://backloggd.com" {
		t.Errorf("BaseURL: got %q", cfg.BaseURL)
	}
	if cfg.CheckIntervalMs != 300 || cfg.SettleDelayMs != 400 || cfg.PollIntervalMs != 150 || cfg.PollAttempts != 30 {
		t.Errorf("watch defaults wrong: %+v", cfg)
	}
}

func TestLoadMerged_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("BACKSHELF_BASE_URL", "https://example.test")
	t.Setenv("BACKSHELF_DEFAULT_USER", "alice")
	t.Setenv("BACKSHELF_DEBUG", "true")

	cfg, _, err := LoadMerged(Options{IgnoreConfig: true})
	if err != nil {
		t.Fatalf("LoadMerged: %v", err)
	}

	if cfg.BaseURL != "https://example.test" {
		t.Errorf("BaseURL: got %q, want env value", cfg.BaseURL)
	}
	if cfg.DefaultUser != "alice" {
		t.Errorf("DefaultUser: got %q, want alice", cfg.DefaultUser)
	}
	if !cfg.Debug {
		t.Error("Debug: env override not applied")
	}
}

func TestLoadMerged_FlagsBeatEnv(t *testing.T) {
	t.Setenv("BACKSHELF_DEFAULT_USER", "alice")

	cfg, _, err := LoadMerged(Options{IgnoreConfig: true, DefaultUser: "bob"})
	if err != nil {
		t.Fatalf("LoadMerged: %v", err)
	}

	if cfg.DefaultUser != "bob" {
		t.Errorf("DefaultUser: got %q, want the CLI option to win", cfg.DefaultUser)
	}
}

func TestMergeConfig(t *testing.T) {
	cfg := DefaultConfig()
	mergeConfig(cfg, Options{
		BaseURL:     "https://mirror.test",
		DefaultUser: "carol",
		CachePath:   "/tmp/cache.db",
		UserAgent:   "custom-ua",
	})

	if cfg.BaseURL != "https://mirror.test" {
		t.Errorf("BaseURL: got %q", cfg.BaseURL)
	}
	if cfg.DefaultUser != "carol" {
		t.Errorf("DefaultUser: got %q", cfg.DefaultUser)
	}
	if cfg.CachePath != "/tmp/cache.db" {
		t.Errorf("CachePath: got %q", cfg.CachePath)
	}
	if cfg.UserAgent != "custom-ua" {
		t.Errorf("UserAgent: got %q", cfg.UserAgent)
	}
}

func TestNormalizeDefaults_FillsZeroes(t *testing.T) {
	cfg := &Config{}
	normalizeDefaults(cfg)

	if cfg.BaseURL == "" {
		t.Error("BaseURL left empty")
	}
	if cfg.CheckIntervalMs == 0 || cfg.SettleDelayMs == 0 || cfg.PollIntervalMs == 0 || cfg.PollAttempts == 0 {
		t.Errorf("watch timings not defaulted: %+v", cfg)
	}
}
