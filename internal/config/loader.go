package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies DIVTRACKER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known DIVTRACKER_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "DIVTRACKER_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "DIVTRACKER_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "DIVTRACKER_SERVER_API_KEY")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "DIVTRACKER_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "DIVTRACKER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "DIVTRACKER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "DIVTRACKER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "DIVTRACKER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "DIVTRACKER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "DIVTRACKER_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "DIVTRACKER_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "DIVTRACKER_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "DIVTRACKER_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "DIVTRACKER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "DIVTRACKER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "DIVTRACKER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "DIVTRACKER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "DIVTRACKER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "DIVTRACKER_REDIS_TLS_ENABLED")

	// ── Scrape ──
	setStr(&cfg.Scrape.BaseURL, "DIVTRACKER_SCRAPE_BASE_URL")
	setStr(&cfg.Scrape.UserAgent, "DIVTRACKER_SCRAPE_USER_AGENT")
	setDuration(&cfg.Scrape.Timeout, "DIVTRACKER_SCRAPE_TIMEOUT")
	setInt64(&cfg.Scrape.StartEpoch, "DIVTRACKER_SCRAPE_START_EPOCH")

	// ── Scheduler ──
	setStr(&cfg.Scheduler.Cron, "DIVTRACKER_SCHEDULER_CRON")
	setDuration(&cfg.Scheduler.Pacing, "DIVTRACKER_SCHEDULER_PACING")

	// ── Cache ──
	setDuration(&cfg.Cache.TTL, "DIVTRACKER_CACHE_TTL")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "DIVTRACKER_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "DIVTRACKER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "DIVTRACKER_S3_REGION")
	setStr(&cfg.S3.Bucket, "DIVTRACKER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "DIVTRACKER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "DIVTRACKER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "DIVTRACKER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "DIVTRACKER_S3_FORCE_PATH_STYLE")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "DIVTRACKER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "DIVTRACKER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "DIVTRACKER_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "DIVTRACKER_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "DIVTRACKER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
