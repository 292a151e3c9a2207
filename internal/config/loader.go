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
// built-in defaults, applies ARBSCOUT_* environment variable overrides, and
// returns the final Config. An empty path skips the file. The returned Config
// has NOT been validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBSCOUT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── eBay ──
	setBool(&cfg.Ebay.Enabled, "ARBSCOUT_EBAY_ENABLED")
	setStr(&cfg.Ebay.ClientID, "ARBSCOUT_EBAY_CLIENT_ID")
	setStr(&cfg.Ebay.ClientID, "ARBSCOUT_EBAY_APP_ID") // compatibility alias
	setStr(&cfg.Ebay.ClientSecret, "ARBSCOUT_EBAY_CLIENT_SECRET")
	setStr(&cfg.Ebay.ClientSecret, "ARBSCOUT_EBAY_CERT_ID") // compatibility alias
	setStr(&cfg.Ebay.BaseURL, "ARBSCOUT_EBAY_BASE_URL")
	setStr(&cfg.Ebay.MarketplaceID, "ARBSCOUT_EBAY_MARKETPLACE_ID")
	setStr(&cfg.Ebay.DeliveryCountry, "ARBSCOUT_EBAY_DELIVERY_COUNTRY")
	setFloat64(&cfg.Ebay.RequestsPerSecond, "ARBSCOUT_EBAY_REQUESTS_PER_SECOND")
	setDuration(&cfg.Ebay.Timeout, "ARBSCOUT_EBAY_TIMEOUT")

	// ── Amazon ──
	setBool(&cfg.Amazon.Enabled, "ARBSCOUT_AMAZON_ENABLED")
	setStr(&cfg.Amazon.AccessKey, "ARBSCOUT_AMAZON_ACCESS_KEY")
	setStr(&cfg.Amazon.SecretKey, "ARBSCOUT_AMAZON_SECRET_KEY")
	setStr(&cfg.Amazon.PartnerTag, "ARBSCOUT_AMAZON_PARTNER_TAG")
	setStr(&cfg.Amazon.Host, "ARBSCOUT_AMAZON_HOST")
	setStr(&cfg.Amazon.Region, "ARBSCOUT_AMAZON_REGION")
	setStr(&cfg.Amazon.Marketplace, "ARBSCOUT_AMAZON_MARKETPLACE")
	setFloat64(&cfg.Amazon.RequestsPerSecond, "ARBSCOUT_AMAZON_REQUESTS_PER_SECOND")
	setDuration(&cfg.Amazon.Timeout, "ARBSCOUT_AMAZON_TIMEOUT")

	// ── Credentials ──
	setStr(&cfg.Credentials.VaultPath, "ARBSCOUT_CREDENTIALS_VAULT_PATH")
	setStr(&cfg.Credentials.VaultPassword, "ARBSCOUT_CREDENTIALS_VAULT_PASSWORD")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ARBSCOUT_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "ARBSCOUT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ARBSCOUT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ARBSCOUT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ARBSCOUT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ARBSCOUT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ARBSCOUT_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ARBSCOUT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ARBSCOUT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ARBSCOUT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ARBSCOUT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBSCOUT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBSCOUT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBSCOUT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBSCOUT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBSCOUT_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.ListingCacheTTL, "ARBSCOUT_REDIS_LISTING_CACHE_TTL")
	setDuration(&cfg.Redis.AlertCooldown, "ARBSCOUT_REDIS_ALERT_COOLDOWN")
	setDuration(&cfg.Redis.ScanLockTTL, "ARBSCOUT_REDIS_SCAN_LOCK_TTL")
	setInt64(&cfg.Redis.StreamMaxLen, "ARBSCOUT_REDIS_STREAM_MAX_LEN")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "ARBSCOUT_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "ARBSCOUT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARBSCOUT_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARBSCOUT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARBSCOUT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARBSCOUT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARBSCOUT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARBSCOUT_S3_FORCE_PATH_STYLE")

	// ── Thresholds ──
	setFloat64(&cfg.Thresholds.MinProfit, "ARBSCOUT_THRESHOLDS_MIN_PROFIT")
	setFloat64(&cfg.Thresholds.MinROIPercentage, "ARBSCOUT_THRESHOLDS_MIN_ROI_PERCENTAGE")
	setFloat64(&cfg.Thresholds.AlertProfit, "ARBSCOUT_THRESHOLDS_ALERT_PROFIT")
	setFloat64(&cfg.Thresholds.MaxRiskScore, "ARBSCOUT_THRESHOLDS_MAX_RISK_SCORE")
	setFloat64(&cfg.Thresholds.MinSellerRating, "ARBSCOUT_THRESHOLDS_MIN_SELLER_RATING")

	// ── Decision ──
	setFloat64(&cfg.Decision.MaxCapital, "ARBSCOUT_DECISION_MAX_CAPITAL")
	setFloat64(&cfg.Decision.MinCompositeScore, "ARBSCOUT_DECISION_MIN_COMPOSITE_SCORE")
	setFloat64(&cfg.Decision.MaxRiskScore, "ARBSCOUT_DECISION_MAX_RISK_SCORE")
	setFloat64(&cfg.Decision.MinProfit, "ARBSCOUT_DECISION_MIN_PROFIT")

	// ── Ranking ──
	setStr(&cfg.Ranking.RiskTolerance, "ARBSCOUT_RANKING_RISK_TOLERANCE")
	setStr(&cfg.Ranking.ProfitPriority, "ARBSCOUT_RANKING_PROFIT_PRIORITY")
	setStr(&cfg.Ranking.TimeHorizon, "ARBSCOUT_RANKING_TIME_HORIZON")
	setFloat64(&cfg.Ranking.CapitalAvailable, "ARBSCOUT_RANKING_CAPITAL_AVAILABLE")

	// ── Search ──
	setStringSlice(&cfg.Search.Keywords, "ARBSCOUT_SEARCH_KEYWORDS")
	setInt(&cfg.Search.MaxResults, "ARBSCOUT_SEARCH_MAX_RESULTS_PER_PLATFORM")
	setInt(&cfg.Search.MatchWorkers, "ARBSCOUT_SEARCH_MATCH_WORKERS")
	setInt(&cfg.Search.TrendDays, "ARBSCOUT_SEARCH_TREND_DAYS")
	setDuration(&cfg.Search.KeywordDelay, "ARBSCOUT_SEARCH_KEYWORD_DELAY")
	setStringSlice(&cfg.Search.BlockedSellers, "ARBSCOUT_SEARCH_BLOCKED_SELLERS")

	// ── Scheduler ──
	setBool(&cfg.Scheduler.Enabled, "ARBSCOUT_SCHEDULER_ENABLED")
	setStr(&cfg.Scheduler.ScanCron, "ARBSCOUT_SCHEDULER_SCAN_CRON")
	setStr(&cfg.Scheduler.ArchiveCron, "ARBSCOUT_SCHEDULER_ARCHIVE_CRON")
	setStr(&cfg.Scheduler.DigestCron, "ARBSCOUT_SCHEDULER_DIGEST_CRON")
	setDuration(&cfg.Scheduler.ScanInterval, "ARBSCOUT_SCHEDULER_SCAN_INTERVAL")
	setInt(&cfg.Scheduler.ArchiveRetentionDays, "ARBSCOUT_SCHEDULER_ARCHIVE_RETENTION_DAYS")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ARBSCOUT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ARBSCOUT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ARBSCOUT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "ARBSCOUT_SERVER_API_KEY")
	setStr(&cfg.Server.ReadAPIKey, "ARBSCOUT_SERVER_READ_API_KEY")
	setInt(&cfg.Server.RateLimit, "ARBSCOUT_SERVER_RATE_LIMIT")
	setInt(&cfg.Server.ScanRateLimit, "ARBSCOUT_SERVER_SCAN_RATE_LIMIT")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBSCOUT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBSCOUT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBSCOUT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARBSCOUT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARBSCOUT_MODE")
	setStr(&cfg.LogLevel, "ARBSCOUT_LOG_LEVEL")
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

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
