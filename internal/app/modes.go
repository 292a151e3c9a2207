package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbscout/internal/pipeline"
	"github.com/alanyoungcy/arbscout/internal/server"
	"github.com/alanyoungcy/arbscout/internal/server/handler"
	"github.com/alanyoungcy/arbscout/internal/server/ws"
)

// reportDays is the window of the report printed by report mode.
const reportDays = 30

// pingFunc adapts a health function to handler.Pinger.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// ScanMode scans every configured keyword once and exits.
func (a *App) ScanMode(ctx context.Context, svcs *Services) error {
	a.logger.InfoContext(ctx, "starting scan mode",
		slog.Int("keywords", len(a.cfg.Search.Keywords)),
	)
	report, err := svcs.Scan.ScanAll(ctx, a.cfg.Search.Keywords)
	if err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}
	a.logger.InfoContext(ctx, "scan mode finished",
		slog.Int("opportunities", report.Summary.TotalOpportunities),
		slog.String("total_profit", report.Summary.TotalProfit.StringFixed(2)),
		slog.Int("high_profit", report.Summary.HighProfitCount),
		slog.Any("failed_keywords", report.FailedKeyword),
		slog.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return nil
}

// ReportMode builds the performance report and writes it as JSON to the
// application's output.
func (a *App) ReportMode(ctx context.Context, svcs *Services) error {
	a.logger.InfoContext(ctx, "starting report mode", slog.Int("days", reportDays))
	report, err := svcs.Reports.Build(ctx, reportDays)
	if err != nil {
		return fmt.Errorf("report mode: %w", err)
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("report mode: encode: %w", err)
	}
	return nil
}

// ContinuousMode scans on a fixed interval and runs the maintenance jobs,
// plus the HTTP server when enabled.
func (a *App) ContinuousMode(ctx context.Context, deps *Dependencies, svcs *Services) error {
	a.logger.InfoContext(ctx, "starting continuous mode",
		slog.Duration("interval", a.cfg.Scheduler.ScanInterval.Duration),
	)

	g, ctx := errgroup.WithContext(ctx)

	orch := a.newOrchestrator(deps, svcs)
	g.Go(func() error {
		return orch.RunContinuous(ctx)
	})

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, svcs)
	}

	return g.Wait()
}

// ServerMode serves the HTTP and WebSocket API only. Scans run on request.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies, svcs *Services) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, svcs)
	return g.Wait()
}

// FullMode starts the cron scheduler and the HTTP server.
func (a *App) FullMode(ctx context.Context, deps *Dependencies, svcs *Services) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.Scheduler.Enabled {
		orch := a.newOrchestrator(deps, svcs)
		g.Go(func() error {
			return orch.RunScheduled(ctx)
		})
	} else {
		a.logger.WarnContext(ctx, "scheduler.enabled is false, full mode will only serve the API")
	}

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, svcs)
	}

	return g.Wait()
}

func (a *App) newOrchestrator(deps *Dependencies, svcs *Services) *pipeline.Orchestrator {
	sched := a.cfg.Scheduler
	var cold pipeline.ColdStorage
	if deps.Archiver != nil {
		cold = deps.Archiver
	}
	return pipeline.NewOrchestrator(
		pipeline.NewScanner(svcs.Scan, a.cfg.Search.Keywords, a.logger),
		pipeline.NewArchiver(cold, svcs.Opportunities, sched.ArchiveRetentionDays, 0, a.logger),
		svcs.Reports,
		pipeline.Schedule{
			ScanCron:     sched.ScanCron,
			ArchiveCron:  sched.ArchiveCron,
			DigestCron:   sched.DigestCron,
			ScanInterval: sched.ScanInterval.Duration,
		},
		a.logger,
	)
}

// healthChecks lists the dependencies probed by GET /api/health.
func healthChecks(deps *Dependencies) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{}
	if deps.Postgres != nil {
		checks["postgres"] = deps.Postgres
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	if deps.Blob != nil {
		checks["s3"] = pingFunc(deps.Blob.Health)
	}
	return checks
}

// startHTTPServer registers the WebSocket hub and the HTTP server on g. The
// server shuts down gracefully once ctx is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *Services) {
	// Validated at startup.
	prefs, _ := a.cfg.Ranking.Preferences()

	handlers := server.Handlers{
		Health:        handler.NewHealthHandler(healthChecks(deps), a.logger),
		Opportunities: handler.NewOpportunityHandler(svcs.Opportunities, a.logger),
		Scan:          handler.NewScanHandler(svcs.Scan, a.cfg.Search.Keywords, a.logger),
		Decisions:     handler.NewDecisionHandler(svcs.Decisions, prefs, a.cfg.Decision.Criteria(), a.logger),
		Reports:       handler.NewReportHandler(svcs.Reports, a.logger),
		Blacklist:     handler.NewBlacklistHandler(svcs.Blacklist, a.logger),
		Audit:         handler.NewAuditHandler(deps.Stores.Audit, a.logger),
	}
	if deps.Archiver != nil {
		handlers.Archives = handler.NewArchiveHandler(deps.Archiver, a.logger)
	}

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(server.Config{
		Port:          a.cfg.Server.Port,
		CORSOrigins:   a.cfg.Server.CORSOrigins,
		APIKey:        a.cfg.Server.APIKey,
		ReadAPIKey:    a.cfg.Server.ReadAPIKey,
		RateLimit:     a.cfg.Server.RateLimit,
		ScanRateLimit: a.cfg.Server.ScanRateLimit,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.Int("port", a.cfg.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)),
		)
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
