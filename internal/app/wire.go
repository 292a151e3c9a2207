package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/alanyoungcy/arbscout/internal/blob/s3"
	"github.com/alanyoungcy/arbscout/internal/cache/redis"
	"github.com/alanyoungcy/arbscout/internal/config"
	"github.com/alanyoungcy/arbscout/internal/crypto"
	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/notify"
	"github.com/alanyoungcy/arbscout/internal/platform/amazon"
	"github.com/alanyoungcy/arbscout/internal/platform/ebay"
	"github.com/alanyoungcy/arbscout/internal/store/postgres"
)

// Dependencies bundles every infrastructure dependency the application modes
// need. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	// Stores
	Postgres *postgres.Client
	Stores   postgres.Stores

	// Caches and messaging
	Redis        *redis.Client
	ListingCache domain.ListingCache
	Cooldown     domain.CooldownGate
	LockManager  domain.LockManager
	RateLimiter  domain.RateLimiter
	SignalBus    domain.SignalBus

	// Blob storage; nil unless s3 is enabled for the mode.
	Blob     *s3blob.Client
	Archiver *s3blob.Archiver

	// Marketplaces
	Sources []domain.ListingSource

	// Notifications
	Notifier *notify.Notifier
}

// needsSources returns true for modes that search the marketplaces.
func needsSources(mode string) bool {
	switch mode {
	case "scan", "continuous", "server", "full":
		return true
	default:
		return false
	}
}

// needsS3 returns true for modes that run the archive job or serve the
// archive index.
func needsS3(mode string) bool {
	switch mode {
	case "continuous", "server", "full":
		return true
	default:
		return false
	}
}

// applyVault returns a copy of cfg with every non-empty secret from the
// credentials vault written over the plain configuration values.
func applyVault(cfg *config.Config) (*config.Config, error) {
	out := *cfg
	if cfg.Credentials.VaultPath == "" {
		return &out, nil
	}
	creds, err := crypto.LoadVault(cfg.Credentials.VaultPath, cfg.Credentials.VaultPassword)
	if err != nil {
		return nil, fmt.Errorf("wire: credentials vault: %w", err)
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&out.Ebay.ClientID, creds.EbayClientID)
	override(&out.Ebay.ClientSecret, creds.EbayClientSecret)
	override(&out.Amazon.AccessKey, creds.AmazonAccessKey)
	override(&out.Amazon.SecretKey, creds.AmazonSecretKey)
	override(&out.Amazon.PartnerTag, creds.AmazonPartnerTag)
	override(&out.Notify.TelegramToken, creds.TelegramToken)
	override(&out.Notify.DiscordWebhookURL, creds.DiscordWebhookURL)
	override(&out.Server.APIKey, creds.APIKey)
	return &out, nil
}

// newSources builds a listing source for every enabled marketplace.
// shared is the Redis limiter that keeps every replica inside one
// marketplace quota; nil paces each process on its own.
func newSources(cfg *config.Config, shared domain.RateLimiter, logger *slog.Logger) []domain.ListingSource {
	var sources []domain.ListingSource
	if cfg.Ebay.Enabled {
		sources = append(sources, ebay.New(ebay.Config{
			BaseURL:           cfg.Ebay.BaseURL,
			ClientID:          cfg.Ebay.ClientID,
			ClientSecret:      cfg.Ebay.ClientSecret,
			MarketplaceID:     cfg.Ebay.MarketplaceID,
			DeliveryCountry:   cfg.Ebay.DeliveryCountry,
			RequestsPerSecond: cfg.Ebay.RequestsPerSecond,
			Timeout:           cfg.Ebay.Timeout.Duration,
			Shared:            shared,
		}, logger))
	}
	if cfg.Amazon.Enabled {
		sources = append(sources, amazon.New(amazon.Config{
			AccessKey:         cfg.Amazon.AccessKey,
			SecretKey:         cfg.Amazon.SecretKey,
			PartnerTag:        cfg.Amazon.PartnerTag,
			Host:              cfg.Amazon.Host,
			Region:            cfg.Amazon.Region,
			Marketplace:       cfg.Amazon.Marketplace,
			RequestsPerSecond: cfg.Amazon.RequestsPerSecond,
			Timeout:           cfg.Amazon.Timeout.Duration,
			Shared:            shared,
		}, logger))
	}
	return sources
}

// newNotifier builds a notifier over every configured channel. With no
// channel it is disabled and drops events.
func newNotifier(cfg config.NotifyConfig, logger *slog.Logger) *notify.Notifier {
	var senders []notify.Sender
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.TelegramToken, cfg.TelegramChatID))
	}
	if cfg.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.DiscordWebhookURL))
	}
	return notify.NewNotifier(senders, cfg.Events, logger)
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources. Vault credentials are already
// applied to cfg.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	mode := strings.ToLower(cfg.Mode)
	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)
	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}
	deps.Postgres = pgClient
	deps.Stores = pgClient.Stores()

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })
	deps.Redis = redisClient
	deps.ListingCache = redis.NewListingCache(redisClient, cfg.Redis.ListingCacheTTL.Duration)
	deps.Cooldown = redis.NewCooldownGate(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient, cfg.Redis.StreamMaxLen)

	// --- S3 (archive job and archive index) ---
	if cfg.S3.Enabled && needsS3(mode) {
		blob, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Blob = blob
		deps.Archiver = s3blob.NewArchiver(
			s3blob.NewWriter(blob),
			s3blob.NewReader(blob),
			deps.Stores.Opportunities,
			deps.Stores.PriceHistory,
			deps.Stores.Audit,
			logger,
		)
	}

	if needsSources(mode) {
		deps.Sources = newSources(cfg, deps.RateLimiter, logger)
	}
	deps.Notifier = newNotifier(cfg.Notify, logger)

	logger.InfoContext(ctx, "dependencies wired",
		slog.Int("sources", len(deps.Sources)),
		slog.Bool("s3", deps.Blob != nil),
		slog.Bool("notify", deps.Notifier.Enabled()),
	)
	return deps, cleanup, nil
}
