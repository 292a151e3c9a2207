// Package config defines the top-level configuration for arbscout and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBSCOUT_* environment variables.
type Config struct {
	Ebay        EbayConfig        `toml:"ebay"`
	Amazon      AmazonConfig      `toml:"amazon"`
	Credentials CredentialsConfig `toml:"credentials"`
	Postgres    PostgresConfig    `toml:"postgres"`
	Redis       RedisConfig       `toml:"redis"`
	S3          S3Config          `toml:"s3"`
	Thresholds  ThresholdsConfig  `toml:"thresholds"`
	Decision    DecisionConfig    `toml:"decision"`
	Ranking     RankingConfig     `toml:"ranking"`
	Search      SearchConfig      `toml:"search"`
	Scheduler   SchedulerConfig   `toml:"scheduler"`
	Server      ServerConfig      `toml:"server"`
	Notify      NotifyConfig      `toml:"notify"`
	Mode        string            `toml:"mode"`
	LogLevel    string            `toml:"log_level"`
}

// EbayConfig holds eBay Browse API credentials and endpoints.
type EbayConfig struct {
	Enabled           bool     `toml:"enabled"`
	ClientID          string   `toml:"client_id"`
	ClientSecret      string   `toml:"client_secret"`
	BaseURL           string   `toml:"base_url"`
	MarketplaceID     string   `toml:"marketplace_id"`
	DeliveryCountry   string   `toml:"delivery_country"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Timeout           duration `toml:"timeout"`
}

// AmazonConfig holds Product Advertising API credentials.
type AmazonConfig struct {
	Enabled           bool     `toml:"enabled"`
	AccessKey         string   `toml:"access_key"`
	SecretKey         string   `toml:"secret_key"`
	PartnerTag        string   `toml:"partner_tag"`
	Host              string   `toml:"host"`
	Region            string   `toml:"region"`
	Marketplace       string   `toml:"marketplace"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Timeout           duration `toml:"timeout"`
}

// CredentialsConfig points at an encrypted vault holding marketplace
// secrets. When VaultPath is set the vault overrides the plain values above.
type CredentialsConfig struct {
	VaultPath     string `toml:"vault_path"`
	VaultPassword string `toml:"vault_password"`
}

// PostgresConfig holds PostgreSQL connection parameters.
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

// RedisConfig holds Redis connection parameters and cache lifetimes.
type RedisConfig struct {
	Addr            string   `toml:"addr"`
	Password        string   `toml:"password"`
	DB              int      `toml:"db"`
	PoolSize        int      `toml:"pool_size"`
	MaxRetries      int      `toml:"max_retries"`
	TLSEnabled      bool     `toml:"tls_enabled"`
	ListingCacheTTL duration `toml:"listing_cache_ttl"`
	AlertCooldown   duration `toml:"alert_cooldown"`
	ScanLockTTL     duration `toml:"scan_lock_ttl"`
	StreamMaxLen    int64    `toml:"stream_max_len"`
}

// S3Config holds S3-compatible object storage parameters.
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

// ThresholdsConfig holds the static opportunity filters.
type ThresholdsConfig struct {
	MinProfit        float64 `toml:"min_profit"`
	MinROIPercentage float64 `toml:"min_roi_percentage"`
	AlertProfit      float64 `toml:"alert_profit"`
	MaxRiskScore     float64 `toml:"max_risk_score"`
	MinSellerRating  float64 `toml:"min_seller_rating"`
}

// ProfitThresholds converts the section into the domain value.
func (t ThresholdsConfig) ProfitThresholds() domain.ProfitThresholds {
	return domain.ProfitThresholds{
		MinProfit:        decimal.NewFromFloat(t.MinProfit),
		MinROIPercentage: t.MinROIPercentage,
		AlertProfit:      decimal.NewFromFloat(t.AlertProfit),
		MaxRiskScore:     t.MaxRiskScore,
		MinSellerRating:  t.MinSellerRating,
	}
}

// DecisionConfig holds the default capital allocator limits.
type DecisionConfig struct {
	MaxCapital        float64 `toml:"max_capital"`
	MinCompositeScore float64 `toml:"min_composite_score"`
	MaxRiskScore      float64 `toml:"max_risk_score"`
	MinProfit         float64 `toml:"min_profit"`
}

// Criteria converts the section into the domain value.
func (d DecisionConfig) Criteria() domain.DecisionCriteria {
	return domain.DecisionCriteria{
		MaxCapital:        decimal.NewFromFloat(d.MaxCapital),
		MinCompositeScore: d.MinCompositeScore,
		MaxRiskScore:      d.MaxRiskScore,
		MinProfit:         decimal.NewFromFloat(d.MinProfit),
	}
}

// RankingConfig holds the default ranking preferences.
type RankingConfig struct {
	RiskTolerance    string  `toml:"risk_tolerance"`
	ProfitPriority   string  `toml:"profit_priority"`
	TimeHorizon      string  `toml:"time_horizon"`
	CapitalAvailable float64 `toml:"capital_available"`
}

// Preferences converts the section into a validated domain value.
func (r RankingConfig) Preferences() (domain.Preferences, error) {
	return domain.NewPreferences(
		domain.RiskTolerance(strings.ToLower(r.RiskTolerance)),
		domain.ProfitPriority(strings.ToLower(r.ProfitPriority)),
		domain.TimeHorizon(strings.ToLower(r.TimeHorizon)),
		r.CapitalAvailable,
	)
}

// SearchConfig holds what to scan for and how wide.
type SearchConfig struct {
	Keywords       []string `toml:"keywords"`
	MaxResults     int      `toml:"max_results_per_platform"`
	MatchWorkers   int      `toml:"match_workers"`
	TrendDays      int      `toml:"trend_days"`
	KeywordDelay   duration `toml:"keyword_delay"`
	BlockedSellers []string `toml:"blocked_sellers"`
}

// SchedulerConfig holds cron specs (with a leading seconds field) for the
// periodic jobs.
type SchedulerConfig struct {
	Enabled              bool     `toml:"enabled"`
	ScanCron             string   `toml:"scan_cron"`
	ArchiveCron          string   `toml:"archive_cron"`
	DigestCron           string   `toml:"digest_cron"`
	ScanInterval         duration `toml:"scan_interval"`
	ArchiveRetentionDays int      `toml:"archive_retention_days"`
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

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	// ReadAPIKey grants GET and HEAD access only.
	ReadAPIKey string `toml:"read_api_key"`
	// RateLimit is requests per minute per client; 0 disables limiting.
	RateLimit int `toml:"rate_limit"`
	// ScanRateLimit is on-demand scans per hour per client; 0 disables it.
	ScanRateLimit int `toml:"scan_rate_limit"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Ebay: EbayConfig{
			Enabled:           true,
			BaseURL:           "https://api.ebay.com",
			MarketplaceID:     "EBAY_GB",
			DeliveryCountry:   "GB",
			RequestsPerSecond: 5,
			Timeout:           duration{30 * time.Second},
		},
		Amazon: AmazonConfig{
			Enabled:           true,
			Host:              "webservices.amazon.co.uk",
			Region:            "eu-west-1",
			Marketplace:       "www.amazon.co.uk",
			RequestsPerSecond: 1,
			Timeout:           duration{30 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "arbscout",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:            "localhost:6379",
			PoolSize:        20,
			MaxRetries:      3,
			ListingCacheTTL: duration{15 * time.Minute},
			AlertCooldown:   duration{5 * time.Minute},
			ScanLockTTL:     duration{20 * time.Minute},
			StreamMaxLen:    10000,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "arbscout-archive",
			ForcePathStyle: true,
		},
		Thresholds: ThresholdsConfig{
			MinProfit:        10,
			MinROIPercentage: 25,
			AlertProfit:      25,
			MaxRiskScore:     7.0,
			MinSellerRating:  3.5,
		},
		Decision: DecisionConfig{
			MaxCapital:        1000,
			MinCompositeScore: 60,
			MaxRiskScore:      15,
			MinProfit:         10,
		},
		Ranking: RankingConfig{
			RiskTolerance:    "medium",
			ProfitPriority:   "balanced",
			TimeHorizon:      "short",
			CapitalAvailable: 1000,
		},
		Search: SearchConfig{
			Keywords: []string{
				"electronics", "phone", "tablet", "laptop",
				"camera", "headphones", "speaker", "watch",
			},
			MaxResults:   50,
			TrendDays:    30,
			KeywordDelay: duration{2 * time.Second},
		},
		Scheduler: SchedulerConfig{
			Enabled:              true,
			ScanCron:             "0 */30 * * * *",
			ArchiveCron:          "0 0 3 1 * *",
			DigestCron:           "0 0 9 * * *",
			ScanInterval:         duration{30 * time.Minute},
			ArchiveRetentionDays: 90,
		},
		Server: ServerConfig{
			Enabled:       true,
			Port:          8000,
			CORSOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:     120,
			ScanRateLimit: 6,
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity", "daily_summary", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":       true,
	"continuous": true,
	"server":     true,
	"report":     true,
	"full":       true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, continuous, server, report, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Marketplaces. Credentials may still arrive from the vault.
	vault := c.Credentials.VaultPath != ""
	if vault && c.Credentials.VaultPassword == "" {
		errs = append(errs, "credentials: vault_password is required when vault_path is set")
	}
	if !c.Ebay.Enabled && !c.Amazon.Enabled && c.needsSources() {
		errs = append(errs, "at least one of ebay or amazon must be enabled for mode "+c.Mode)
	}
	if c.Ebay.Enabled {
		if !vault && (c.Ebay.ClientID == "" || c.Ebay.ClientSecret == "") {
			errs = append(errs, "ebay: client_id and client_secret must be set")
		}
		if c.Ebay.BaseURL == "" {
			errs = append(errs, "ebay: base_url must not be empty")
		}
		if c.Ebay.RequestsPerSecond <= 0 {
			errs = append(errs, "ebay: requests_per_second must be > 0")
		}
	}
	if c.Amazon.Enabled {
		if !vault && (c.Amazon.AccessKey == "" || c.Amazon.SecretKey == "") {
			errs = append(errs, "amazon: access_key and secret_key must be set")
		}
		if c.Amazon.Host == "" || c.Amazon.Region == "" {
			errs = append(errs, "amazon: host and region must not be empty")
		}
		if c.Amazon.RequestsPerSecond <= 0 {
			errs = append(errs, "amazon: requests_per_second must be > 0")
		}
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}
	if c.Redis.ScanLockTTL.Duration <= 0 {
		errs = append(errs, "redis: scan_lock_ttl must be > 0")
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	// Analysis
	if err := c.Thresholds.ProfitThresholds().Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.Decision.Criteria().Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if _, err := c.Ranking.Preferences(); err != nil {
		errs = append(errs, err.Error())
	}

	// Search
	if len(c.Search.Keywords) == 0 && c.needsSources() {
		errs = append(errs, "search: keywords must not be empty")
	}
	if c.Search.MaxResults < 1 {
		errs = append(errs, "search: max_results_per_platform must be >= 1")
	}
	if c.Search.TrendDays < 1 {
		errs = append(errs, "search: trend_days must be >= 1")
	}

	// Scheduler
	if c.Scheduler.Enabled {
		if c.Scheduler.ScanCron == "" {
			errs = append(errs, "scheduler: scan_cron must not be empty when enabled")
		}
		if c.Scheduler.ArchiveRetentionDays < 1 {
			errs = append(errs, "scheduler: archive_retention_days must be >= 1")
		}
	}
	if strings.EqualFold(c.Mode, "continuous") && c.Scheduler.ScanInterval.Duration <= 0 {
		errs = append(errs, "scheduler: scan_interval must be > 0 for continuous mode")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
		if c.Server.ScanRateLimit < 0 {
			errs = append(errs, "server: scan_rate_limit must be >= 0")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (c *Config) needsSources() bool {
	switch strings.ToLower(c.Mode) {
	case "scan", "continuous", "full":
		return true
	}
	return false
}
