package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Digester sends the daily summary notification.
type Digester interface {
	SendDailyDigest(ctx context.Context) error
}

// Schedule holds the cron specs of the periodic jobs. An empty spec
// disables that job.
type Schedule struct {
	ScanCron     string
	ArchiveCron  string
	DigestCron   string
	ScanInterval time.Duration
}

// Orchestrator runs the background jobs of the scanner.
type Orchestrator struct {
	scanner  *Scanner
	archiver *Archiver
	digest   Digester
	schedule Schedule
	base     *slog.Logger
	logger   *slog.Logger
}

// NewOrchestrator creates an Orchestrator. archiver and digest may be nil.
func NewOrchestrator(scanner *Scanner, archiver *Archiver, digest Digester, schedule Schedule, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		scanner:  scanner,
		archiver: archiver,
		digest:   digest,
		schedule: schedule,
		base:     logger,
		logger:   logger.With(slog.String("component", "orchestrator")),
	}
}

// RunScheduled runs the scan, archive and digest jobs on their cron specs
// until ctx is cancelled.
func (o *Orchestrator) RunScheduled(ctx context.Context) error {
	s := NewScheduler(o.base)
	if o.schedule.ScanCron != "" {
		if err := s.Add("scan", o.schedule.ScanCron, o.scanner.Run); err != nil {
			return err
		}
	}
	if err := o.addMaintenance(s); err != nil {
		return err
	}
	return cleanStop(ctx, s.Run(ctx))
}

// RunContinuous scans back to back every ScanInterval while the archive and
// digest jobs keep their cron specs.
func (o *Orchestrator) RunContinuous(ctx context.Context) error {
	if o.schedule.ScanInterval <= 0 {
		return fmt.Errorf("orchestrator: scan interval must be > 0")
	}
	s := NewScheduler(o.base)
	if err := o.addMaintenance(s); err != nil {
		return err
	}

	o.logger.InfoContext(ctx, "continuous scanning started",
		slog.Duration("scan_interval", o.schedule.ScanInterval),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cleanStop(ctx, o.scanner.RunLoop(ctx, o.schedule.ScanInterval))
	})
	g.Go(func() error {
		return cleanStop(ctx, s.Run(ctx))
	})
	if err := g.Wait(); err != nil {
		o.logger.Error("orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}
	o.logger.Info("orchestrator stopped cleanly")
	return nil
}

func (o *Orchestrator) addMaintenance(s *Scheduler) error {
	if o.archiver != nil && o.schedule.ArchiveCron != "" {
		if err := s.Add("archive", o.schedule.ArchiveCron, o.archiver.Run); err != nil {
			return err
		}
	}
	if o.digest != nil && o.schedule.DigestCron != "" {
		if err := s.Add("daily_digest", o.schedule.DigestCron, o.digest.SendDailyDigest); err != nil {
			return err
		}
	}
	return nil
}

// cleanStop hides the error a loop returns when ctx was cancelled.
func cleanStop(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}
