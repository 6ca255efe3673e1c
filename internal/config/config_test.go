package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults() should validate, got: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.LogLevel = "verbose" },
			want:   "log_level",
		},
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Server.Port = 70000 },
			want:   "port",
		},
		{
			name:   "missing database",
			mutate: func(c *Config) { c.Postgres.Database = "" },
			want:   "database",
		},
		{
			name:   "bad base url scheme",
			mutate: func(c *Config) { c.Scrape.BaseURL = "ftp://example.com" },
			want:   "base_url",
		},
		{
			name:   "cron field count",
			mutate: func(c *Config) { c.Scheduler.Cron = "0 0 * *" },
			want:   "cron",
		},
		{
			name:   "telegram token without chat id",
			mutate: func(c *Config) { c.Notify.TelegramToken = "tok" },
			want:   "telegram",
		},
		{
			name: "s3 enabled without bucket",
			mutate: func(c *Config) {
				c.S3.Enabled = true
				c.S3.Bucket = ""
			},
			want: "bucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DIVTRACKER_SERVER_PORT", "9090")
	t.Setenv("DIVTRACKER_POSTGRES_PASSWORD", "hunter2")
	t.Setenv("DIVTRACKER_SCRAPE_TIMEOUT", "45s")
	t.Setenv("DIVTRACKER_SCHEDULER_CRON", "30 2 * * *")
	t.Setenv("DIVTRACKER_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DIVTRACKER_POSTGRES_RUN_MIGRATIONS", "false")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Postgres.Password != "hunter2" {
		t.Errorf("password override not applied")
	}
	if cfg.Scrape.Timeout.Duration != 45*time.Second {
		t.Errorf("timeout = %v, want 45s", cfg.Scrape.Timeout.Duration)
	}
	if cfg.Scheduler.Cron != "30 2 * * *" {
		t.Errorf("cron = %q", cfg.Scheduler.Cron)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("cors origins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Postgres.RunMigrations {
		t.Error("run_migrations override not applied")
	}
}

func TestEnvOverridesIgnoreInvalid(t *testing.T) {
	t.Setenv("DIVTRACKER_SERVER_PORT", "not-a-number")
	t.Setenv("DIVTRACKER_CACHE_TTL", "soon")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, invalid override should keep the default", cfg.Server.Port)
	}
	if cfg.Cache.TTL.Duration != 30*time.Minute {
		t.Errorf("ttl = %v, invalid override should keep the default", cfg.Cache.TTL.Duration)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Server.APIKey = "secret-key"
	cfg.Postgres.Password = "hunter2"
	cfg.S3.SecretKey = "s3-secret"
	cfg.Notify.TelegramToken = "tg-token"

	red := RedactedConfig(&cfg)

	for name, got := range map[string]string{
		"server api key":    red.Server.APIKey,
		"postgres password": red.Postgres.Password,
		"s3 secret key":     red.S3.SecretKey,
		"telegram token":    red.Notify.TelegramToken,
	} {
		if got != "***" {
			t.Errorf("%s = %q, want redacted", name, got)
		}
	}

	// The original is untouched.
	if cfg.Postgres.Password != "hunter2" {
		t.Error("RedactedConfig mutated the original")
	}
}
