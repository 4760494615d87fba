package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestGuideURL(t *testing.T) {
	tests := []struct {
		name        string
		listingURL  string
		useTomorrow bool
		expected    string
	}{
		{
			name:       "today",
			listingURL: "https://www.sportinglife.com/racing/abc-guide",
			expected:   "https://www.sportinglife.com/racing/abc-guide",
		},
		{
			name:        "tomorrow",
			listingURL:  "https://www.sportinglife.com/racing/abc-guide",
			useTomorrow: true,
			expected:    "https://www.sportinglife.com/racing/abc-guide/tomorrow",
		},
		{
			name:        "tomorrow with trailing slash",
			listingURL:  "https://www.sportinglife.com/racing/abc-guide/",
			useTomorrow: true,
			expected:    "https://www.sportinglife.com/racing/abc-guide/tomorrow",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ListingURL = tt.listingURL
			cfg.UseTomorrow = tt.useTomorrow
			if got := cfg.GuideURL(); got != tt.expected {
				t.Fatalf("GuideURL() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty listing URL", mutate: func(c *Config) { c.ListingURL = "" }},
		{name: "listing URL without host", mutate: func(c *Config) { c.ListingURL = "/racing/abc-guide" }},
		{name: "empty site root", mutate: func(c *Config) { c.SiteRoot = "" }},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }},
		{name: "negative retries", mutate: func(c *Config) { c.MaxRetries = -1 }},
		{name: "negative backoff", mutate: func(c *Config) { c.RetryBackoff = -time.Second }},
		{name: "backoff above max", mutate: func(c *Config) {
			c.RetryBackoff = 10 * time.Second
			c.RetryBackoffMax = time.Second
		}},
		{name: "negative delay", mutate: func(c *Config) { c.Delay = -time.Second }},
		{name: "empty watchlist", mutate: func(c *Config) { c.Watchlist = nil }},
		{name: "blank watchlist term", mutate: func(c *Config) { c.Watchlist = []string{"Harry", "  "} }},
		{name: "zero cache size", mutate: func(c *Config) { c.DetailCacheSize = 0 }},
		{name: "zero dedupe size", mutate: func(c *Config) { c.DedupeMaxSize = 0 }},
		{name: "zero batch size", mutate: func(c *Config) { c.BatchSize = 0 }},
		{name: "zero buffer size", mutate: func(c *Config) { c.PipelineBufferSize = 0 }},
		{name: "empty output file", mutate: func(c *Config) { c.OutputFile = "" }},
		{name: "bad output format", mutate: func(c *Config) { c.OutputFormat = "xml" }},
		{name: "empty user agent", mutate: func(c *Config) { c.UserAgent = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestApplyEnvOverlaysCredentials(t *testing.T) {
	t.Setenv("SMTP_SERVER", "smtp.example.test")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SMTP_USERNAME", "alerts@example.test")
	t.Setenv("SMTP_PASSWORD", "secret")
	t.Setenv("EMAIL_RECIPIENT", "punter@example.test")
	t.Setenv("STORE_DSN", "sqlserver://sa@localhost")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.SMTP.Host != "smtp.example.test" {
		t.Fatalf("host = %q", cfg.SMTP.Host)
	}
	if cfg.SMTP.Port != 2525 {
		t.Fatalf("port = %d", cfg.SMTP.Port)
	}
	if cfg.SMTP.Username != "alerts@example.test" {
		t.Fatalf("username = %q", cfg.SMTP.Username)
	}
	if cfg.SMTP.Recipient != "punter@example.test" {
		t.Fatalf("recipient = %q", cfg.SMTP.Recipient)
	}
	if cfg.Store.DSN != "sqlserver://sa@localhost" {
		t.Fatalf("dsn = %q", cfg.Store.DSN)
	}
}

func TestApplyEnvKeepsDefaultsWhenUnset(t *testing.T) {
	t.Setenv("SMTP_SERVER", "")
	t.Setenv("SMTP_PORT", "")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.SMTP.Host != "smtp.mail.me.com" {
		t.Fatalf("host = %q, want default", cfg.SMTP.Host)
	}
	if cfg.SMTP.Port != 587 {
		t.Fatalf("port = %d, want default", cfg.SMTP.Port)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("RACEWATCH_TEST_INT", "42")
	v, ok, err := EnvInt("RACEWATCH_TEST_INT")
	if err != nil || !ok || v != 42 {
		t.Fatalf("EnvInt = (%d, %v, %v), want (42, true, nil)", v, ok, err)
	}

	t.Setenv("RACEWATCH_TEST_INT", "not-a-number")
	if _, _, err := EnvInt("RACEWATCH_TEST_INT"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := strings.Join([]string{
		"use_tomorrow: true",
		"max_retries: 5",
		"watchlist:",
		"  - Harry",
		"  - Mason",
		"output_format: json",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}

	if !cfg.UseTomorrow {
		t.Fatalf("use_tomorrow should be true")
	}
	if cfg.MaxRetries != 5 {
		t.Fatalf("max retries = %d, want 5", cfg.MaxRetries)
	}
	if len(cfg.Watchlist) != 2 || cfg.Watchlist[0] != "Harry" {
		t.Fatalf("watchlist = %v", cfg.Watchlist)
	}
	if cfg.OutputFormat != "json" {
		t.Fatalf("output format = %q", cfg.OutputFormat)
	}
	if cfg.ListingURL != DefaultConfig().ListingURL {
		t.Fatalf("listing URL should keep its default, got %q", cfg.ListingURL)
	}
}

func TestLoadFileRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("no_such_field: true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected unknown-field error")
	}
}

func TestLoadFileMissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected open error")
	}
}
