package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscout/internal/arbitrage"
	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/notify"
)

// Report is the operator-facing performance view.
type Report struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	Performance domain.PerformanceSummary `json:"performance"`
	Current     domain.OpportunitySummary `json:"current_opportunities"`
	TopKeywords []domain.KeywordStats     `json:"top_keywords"`
}

// ReportService builds performance reports and the daily digest.
type ReportService struct {
	perf        domain.PerformanceStore
	keywords    domain.KeywordStore
	opps        domain.OpportunityStore
	notifier    Notifier
	alertProfit decimal.Decimal
	logger      *slog.Logger
	now         func() time.Time
}

// NewReportService creates a ReportService. notifier may be nil.
func NewReportService(
	perf domain.PerformanceStore,
	keywords domain.KeywordStore,
	opps domain.OpportunityStore,
	notifier Notifier,
	alertProfit decimal.Decimal,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		perf:        perf,
		keywords:    keywords,
		opps:        opps,
		notifier:    notifier,
		alertProfit: alertProfit,
		logger:      discardIfNil(logger).With(slog.String("component", "report_service")),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Performance summarises scan outcomes over the last days days.
func (s *ReportService) Performance(ctx context.Context, days int) (domain.PerformanceSummary, error) {
	if days <= 0 {
		days = 30
	}
	sum, err := s.perf.Summary(ctx, s.now().AddDate(0, 0, -days))
	if err != nil {
		return domain.PerformanceSummary{}, fmt.Errorf("report_service: performance: %w", err)
	}
	sum.Days = days
	return sum, nil
}

// TopKeywords returns the most productive search keywords.
func (s *ReportService) TopKeywords(ctx context.Context, limit int) ([]domain.KeywordStats, error) {
	stats, err := s.keywords.Top(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("report_service: top keywords: %w", err)
	}
	return stats, nil
}

// Build assembles the full report.
func (s *ReportService) Build(ctx context.Context, days int) (Report, error) {
	perf, err := s.Performance(ctx, days)
	if err != nil {
		return Report{}, err
	}
	top, err := s.TopKeywords(ctx, 10)
	if err != nil {
		return Report{}, err
	}
	open, err := s.opps.ListByStatus(ctx, domain.StatusNew, domain.ListOpts{})
	if err != nil {
		return Report{}, fmt.Errorf("report_service: open opportunities: %w", err)
	}
	return Report{
		GeneratedAt: s.now(),
		Performance: perf,
		Current:     arbitrage.Summarize(open, s.alertProfit),
		TopKeywords: top,
	}, nil
}

// SendDailyDigest notifies the day's opportunity summary and the five most
// profitable finds.
func (s *ReportService) SendDailyDigest(ctx context.Context) error {
	if s.notifier == nil || !s.notifier.Enabled() {
		return nil
	}
	since := s.now().Add(-24 * time.Hour)
	opps, err := s.opps.ListByStatus(ctx, "", domain.ListOpts{Since: &since})
	if err != nil {
		return fmt.Errorf("report_service: digest: %w", err)
	}
	arbitrage.SortByProfit(opps)

	title, msg := notify.DailyDigest(arbitrage.Summarize(opps, s.alertProfit), opps)
	if err := s.notifier.Notify(ctx, notify.EventDailySummary, title, msg); err != nil {
		return fmt.Errorf("report_service: digest: %w", err)
	}
	s.logger.InfoContext(ctx, "daily digest sent", slog.Int("opportunities", len(opps)))
	return nil
}
