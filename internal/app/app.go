// Package app provides the top-level application lifecycle management for
// arbscout. It wires together all dependencies (stores, caches, blob storage,
// marketplaces, services and notifications) and starts the appropriate
// goroutines based on the configured operating mode.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alanyoungcy/arbscout/internal/arbitrage"
	"github.com/alanyoungcy/arbscout/internal/config"
	"github.com/alanyoungcy/arbscout/internal/fees"
	"github.com/alanyoungcy/arbscout/internal/matching"
	"github.com/alanyoungcy/arbscout/internal/ranking"
	"github.com/alanyoungcy/arbscout/internal/risk"
	"github.com/alanyoungcy/arbscout/internal/service"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	out     io.Writer
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
		out:    os.Stdout,
	}
}

// Services holds the use-case layer shared by the pipeline, the HTTP API
// and the one-shot modes.
type Services struct {
	Scan          *service.ScanService
	Opportunities *service.OpportunityService
	Decisions     *service.DecisionService
	Reports       *service.ReportService
	Blacklist     *service.BlacklistService
}

// Run is the main entry point. It wires all dependencies, selects the
// operating mode, starts the corresponding goroutines, and blocks until the
// context is cancelled or a one-shot mode finishes.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	cfg, err := applyVault(a.cfg)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.cfg = cfg

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	svcs, err := a.buildServices(deps)
	if err != nil {
		return fmt.Errorf("app: build services: %w", err)
	}

	switch strings.ToLower(a.cfg.Mode) {
	case "scan":
		return a.ScanMode(ctx, svcs)
	case "continuous":
		return a.ContinuousMode(ctx, deps, svcs)
	case "server":
		return a.ServerMode(ctx, deps, svcs)
	case "report":
		return a.ReportMode(ctx, svcs)
	case "full":
		return a.FullMode(ctx, deps, svcs)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}
}

// buildServices assembles the analysis stack and the services on top of the
// wired dependencies.
func (a *App) buildServices(deps *Dependencies) (*Services, error) {
	model, err := fees.NewModel()
	if err != nil {
		return nil, err
	}
	analyzer, err := arbitrage.NewAnalyzer(
		a.cfg.Thresholds.ProfitThresholds(),
		arbitrage.NewBuilder(model),
		matching.NewMatcher(matching.WithWorkers(a.cfg.Search.MatchWorkers)),
	)
	if err != nil {
		return nil, err
	}
	ranker := ranking.NewRanker(risk.NewAssessor(a.logger))
	alertProfit := a.cfg.Thresholds.ProfitThresholds().AlertProfit
	stores := deps.Stores

	scan := service.NewScanService(service.ScanDeps{
		Sources:   deps.Sources,
		Analyzer:  analyzer,
		Opps:      stores.Opportunities,
		Prices:    stores.PriceHistory,
		Blacklist: stores.Blacklist,
		Keywords:  stores.Keywords,
		Perf:      stores.Performance,
		Cache:     deps.ListingCache,
		Lock:      deps.LockManager,
		Cooldown:  deps.Cooldown,
		Bus:       deps.SignalBus,
		Audit:     stores.Audit,
		Notifier:  deps.Notifier,
	}, service.ScanConfig{
		MaxResults:     a.cfg.Search.MaxResults,
		KeywordDelay:   a.cfg.Search.KeywordDelay.Duration,
		AlertCooldown:  a.cfg.Redis.AlertCooldown.Duration,
		LockTTL:        a.cfg.Redis.ScanLockTTL.Duration,
		BlockedSellers: a.cfg.Search.BlockedSellers,
	}, a.logger)

	return &Services{
		Scan:          scan,
		Opportunities: service.NewOpportunityService(stores.Opportunities, stores.Audit, deps.SignalBus, alertProfit, a.logger),
		Decisions: service.NewDecisionService(
			stores.Opportunities, stores.PriceHistory, ranker, deps.SignalBus, stores.Audit,
			a.cfg.Search.TrendDays, a.logger,
		),
		Reports:   service.NewReportService(stores.Performance, stores.Keywords, stores.Opportunities, deps.Notifier, alertProfit, a.logger),
		Blacklist: service.NewBlacklistService(stores.Blacklist, stores.Audit, a.logger),
	}, nil
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
