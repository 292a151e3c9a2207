package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ColdStorage moves rows older than a cutoff out of the database.
type ColdStorage interface {
	ArchiveOpportunities(ctx context.Context, before time.Time) (int64, error)
	ArchivePriceHistory(ctx context.Context, before time.Time) (int64, error)
}

// Expirer marks stale new opportunities as expired.
type Expirer interface {
	ExpireBefore(ctx context.Context, before time.Time) (int, error)
}

// Archiver expires stale opportunities and moves old data to cold storage.
type Archiver struct {
	storage       ColdStorage
	expirer       Expirer
	retentionDays int
	expireAfter   time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// NewArchiver creates an Archiver. storage or expirer may be nil to skip
// that step.
func NewArchiver(storage ColdStorage, expirer Expirer, retentionDays int, expireAfter time.Duration, logger *slog.Logger) *Archiver {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	if expireAfter <= 0 {
		expireAfter = 7 * 24 * time.Hour
	}
	return &Archiver{
		storage:       storage,
		expirer:       expirer,
		retentionDays: retentionDays,
		expireAfter:   expireAfter,
		logger:        logger.With(slog.String("component", "archiver")),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Run executes a single archive run.
func (a *Archiver) Run(ctx context.Context) error {
	now := a.now()

	if a.expirer != nil {
		expired, err := a.expirer.ExpireBefore(ctx, now.Add(-a.expireAfter))
		if err != nil {
			return fmt.Errorf("expiring opportunities: %w", err)
		}
		a.logger.InfoContext(ctx, "expired stale opportunities", slog.Int("count", expired))
	}

	if a.storage == nil {
		return nil
	}

	cutoff := now.AddDate(0, 0, -a.retentionDays)
	a.logger.InfoContext(ctx, "starting archive run",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", a.retentionDays),
	)

	opps, err := a.storage.ArchiveOpportunities(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiving opportunities before %v: %w", cutoff, err)
	}
	prices, err := a.storage.ArchivePriceHistory(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiving price history before %v: %w", cutoff, err)
	}

	a.logger.InfoContext(ctx, "archive run complete",
		slog.Int64("opportunities_archived", opps),
		slog.Int64("prices_archived", prices),
	)
	return nil
}
