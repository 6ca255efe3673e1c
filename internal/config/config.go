// Package config defines the top-level configuration for the dividend
// tracker and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by DIVTRACKER_* environment variables.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	Scrape    ScrapeConfig    `toml:"scrape"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Cache     CacheConfig     `toml:"cache"`
	S3        S3Config        `toml:"s3"`
	Notify    NotifyConfig    `toml:"notify"`
	LogLevel  string          `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// PostgresConfig holds PostgreSQL connection parameters. When DSN is set it
// takes precedence over the individual host/port/user fields.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// ScrapeConfig holds the parameters for the finance-site scraper.
type ScrapeConfig struct {
	BaseURL    string   `toml:"base_url"`
	UserAgent  string   `toml:"user_agent"`
	Timeout    duration `toml:"timeout"`
	StartEpoch int64    `toml:"start_epoch"`
}

// SchedulerConfig holds the dividend sync scheduler parameters. Cron is a
// standard 5-field expression; Pacing is the pause inserted between companies
// within one sync cycle so the upstream site is not hammered.
type SchedulerConfig struct {
	Cron   string   `toml:"cron"`
	Pacing duration `toml:"pacing"`
}

// CacheConfig holds dividend read-cache parameters.
type CacheConfig struct {
	TTL duration `toml:"ttl"`
}

// S3Config holds S3-compatible object storage parameters for the raw-page
// archive. The archive is optional; it is only wired when Enabled is true.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"*"},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "divtracker",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Scrape: ScrapeConfig{
			BaseURL:    "https://finance.yahoo.com",
			UserAgent:  "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
			Timeout:    duration{10 * time.Second},
			StartEpoch: 86400,
		},
		Scheduler: SchedulerConfig{
			Cron:   "0 0 * * *",
			Pacing: duration{3 * time.Second},
		},
		Cache: CacheConfig{
			TTL: duration{30 * time.Minute},
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "divtracker-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Notify: NotifyConfig{
			Events: []string{"sync_failures"},
		},
		LogLevel: "info",
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for inconsistencies and returns an error
// describing every problem found, or nil if the configuration is usable.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port %d out of range", c.Server.Port))
	}

	if c.Postgres.DSN == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: either dsn or host must be set")
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, fmt.Sprintf("postgres: pool_min_conns (%d) exceeds pool_max_conns (%d)",
			c.Postgres.PoolMinConns, c.Postgres.PoolMaxConns))
	}

	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}

	if c.Scrape.BaseURL == "" {
		errs = append(errs, "scrape: base_url must not be empty")
	} else if !strings.HasPrefix(c.Scrape.BaseURL, "http://") && !strings.HasPrefix(c.Scrape.BaseURL, "https://") {
		errs = append(errs, fmt.Sprintf("scrape: base_url %q must start with http:// or https://", c.Scrape.BaseURL))
	}
	if c.Scrape.Timeout.Duration <= 0 {
		errs = append(errs, "scrape: timeout must be positive")
	}
	if c.Scrape.StartEpoch < 0 {
		errs = append(errs, "scrape: start_epoch must not be negative")
	}

	if c.Scheduler.Cron == "" {
		errs = append(errs, "scheduler: cron must not be empty")
	} else if fields := strings.Fields(c.Scheduler.Cron); len(fields) != 5 {
		errs = append(errs, fmt.Sprintf("scheduler: cron %q must have 5 fields, got %d", c.Scheduler.Cron, len(fields)))
	}
	if c.Scheduler.Pacing.Duration < 0 {
		errs = append(errs, "scheduler: pacing must not be negative")
	}

	if c.Cache.TTL.Duration < 0 {
		errs = append(errs, "cache: ttl must not be negative")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when s3 is enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when s3 is enabled")
		}
	}

	// Telegram token and chat ID must be set together.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must both be set, or both empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
