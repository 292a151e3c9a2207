package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/service"
)

// KeywordScanner runs a scan over a keyword list.
type KeywordScanner interface {
	ScanAll(ctx context.Context, keywords []string) (service.ScanReport, error)
}

// Scanner runs the configured keyword scan once or on an interval.
type Scanner struct {
	svc      KeywordScanner
	keywords []string
	logger   *slog.Logger
}

// NewScanner creates a Scanner.
func NewScanner(svc KeywordScanner, keywords []string, logger *slog.Logger) *Scanner {
	return &Scanner{
		svc:      svc,
		keywords: keywords,
		logger:   logger.With(slog.String("component", "scanner")),
	}
}

// Run executes one scan. A scan already running elsewhere is not an error.
func (s *Scanner) Run(ctx context.Context) error {
	report, err := s.svc.ScanAll(ctx, s.keywords)
	if errors.Is(err, domain.ErrLockHeld) {
		s.logger.InfoContext(ctx, "scan skipped, another scan holds the lock")
		return nil
	}
	if err != nil {
		return fmt.Errorf("scanner: %w", err)
	}
	s.logger.InfoContext(ctx, "scan run complete",
		slog.Int("keywords", len(report.Keywords)),
		slog.Int("failed_keywords", len(report.FailedKeyword)),
		slog.Int("opportunities", report.Summary.TotalOpportunities),
	)
	return nil
}

// RunLoop scans immediately and then on every interval until ctx is
// cancelled.
func (s *Scanner) RunLoop(ctx context.Context, interval time.Duration) error {
	if err := s.Run(ctx); err != nil {
		s.logger.ErrorContext(ctx, "scan failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scanner loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Run(ctx); err != nil {
				s.logger.ErrorContext(ctx, "scan failed", slog.String("error", err.Error()))
			}
		}
	}
}
