// Package config holds scraper configuration and loading helpers.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds the full configuration surface for a scrape run.
type Config struct {
	ListingURL  string `yaml:"listing_url"`
	UseTomorrow bool   `yaml:"use_tomorrow"`
	SiteRoot    string `yaml:"site_root"`
	UserAgent   string `yaml:"user_agent"`

	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
	RetryBackoffMax time.Duration `yaml:"retry_backoff_max"`
	Delay           time.Duration `yaml:"delay"`

	Watchlist []string `yaml:"watchlist"`

	DetailCacheSize    int `yaml:"detail_cache_size"`
	DedupeMaxSize      int `yaml:"dedupe_max_size"`
	BatchSize          int `yaml:"batch_size"`
	PipelineBufferSize int `yaml:"pipeline_buffer_size"`

	OutputFile   string `yaml:"output_file"`
	OutputFormat string `yaml:"output_format"` // csv, json, or dual
	MetricsAddr  string `yaml:"metrics_addr"`
	LogFile      string `yaml:"log_file"`
	Verbose      bool   `yaml:"verbose"`

	SMTP  SMTPConfig  `yaml:"smtp"`
	Store StoreConfig `yaml:"store"`
}

// SMTPConfig configures the outbound mail notifier. An empty Username
// disables notification.
type SMTPConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Recipient string `yaml:"recipient"`
}

// StoreConfig configures the SQL Server repository. An empty DSN disables
// persistence.
type StoreConfig struct {
	DSN            string        `yaml:"dsn"`
	Table          string        `yaml:"table"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
}

// DefaultConfig returns conservative defaults for the guide target.
func DefaultConfig() *Config {
	return &Config{
		ListingURL:      "https://www.sportinglife.com/racing/abc-guide",
		SiteRoot:        "https://www.sportinglife.com",
		UserAgent:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		RetryBackoff:    time.Second,
		RetryBackoffMax: 8 * time.Second,
		Delay:           time.Second,
		Watchlist: []string{
			"Harry", "Lilly", "Lily", "Izzey", "Izz", "Izzy",
			"Mason", "Ronnie", "Ronny", "Maddie", "Maddy",
		},
		DetailCacheSize:    64,
		DedupeMaxSize:      4096,
		BatchSize:          16,
		PipelineBufferSize: 128,
		OutputFile:         "output/matches.csv",
		OutputFormat:       "csv",
		SMTP: SMTPConfig{
			Host: "smtp.mail.me.com",
			Port: 587,
		},
		Store: StoreConfig{
			Table:          "WatchlistMatches",
			CommandTimeout: 10 * time.Second,
		},
	}
}

// GuideURL returns the listing address for the configured day.
func (c *Config) GuideURL() string {
	if c.UseTomorrow {
		return strings.TrimSuffix(c.ListingURL, "/") + "/tomorrow"
	}
	return c.ListingURL
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.ListingURL == "" {
		return fmt.Errorf("listing URL cannot be empty")
	}
	parsed, err := url.Parse(c.ListingURL)
	if err != nil {
		return fmt.Errorf("invalid listing URL: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("listing URL must include a host")
	}
	if c.SiteRoot == "" {
		return fmt.Errorf("site root cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("watchlist cannot be empty")
	}
	for _, term := range c.Watchlist {
		if strings.TrimSpace(term) == "" {
			return fmt.Errorf("watchlist terms cannot be blank")
		}
	}
	if c.DetailCacheSize <= 0 {
		return fmt.Errorf("detail cache size must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	return nil
}
