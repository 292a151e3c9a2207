package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbscout/internal/arbitrage"
	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/notify"
)

const scanLockName = "scan"

// ScanConfig tunes a ScanService.
type ScanConfig struct {
	MaxResults     int
	KeywordDelay   time.Duration
	AlertCooldown  time.Duration
	LockTTL        time.Duration
	BlockedSellers []string
}

// ScanDeps are the collaborators of a ScanService. Cache, Lock, Cooldown,
// Bus, Audit and Notifier may be nil.
type ScanDeps struct {
	Sources   []domain.ListingSource
	Analyzer  *arbitrage.Analyzer
	Opps      domain.OpportunityStore
	Prices    domain.PriceHistoryStore
	Blacklist domain.BlacklistStore
	Keywords  domain.KeywordStore
	Perf      domain.PerformanceStore
	Cache     domain.ListingCache
	Lock      domain.LockManager
	Cooldown  domain.CooldownGate
	Bus       domain.SignalBus
	Audit     domain.AuditStore
	Notifier  Notifier
}

// KeywordResult is the outcome of scanning one keyword.
type KeywordResult struct {
	Keyword       string                  `json:"keyword"`
	Listings      map[domain.Platform]int `json:"listings"`
	Failed        []domain.Platform       `json:"failed_platforms,omitempty"`
	Opportunities []domain.Opportunity    `json:"opportunities"`
	Saved         int                     `json:"saved"`
}

// ScanReport aggregates a multi-keyword scan.
type ScanReport struct {
	StartedAt     time.Time                 `json:"started_at"`
	FinishedAt    time.Time                 `json:"finished_at"`
	Keywords      []KeywordResult           `json:"keywords"`
	Summary       domain.OpportunitySummary `json:"summary"`
	FailedKeyword []string                  `json:"failed_keywords,omitempty"`
}

// Opportunities flattens every keyword's opportunities.
func (r ScanReport) Opportunities() []domain.Opportunity {
	var out []domain.Opportunity
	for _, k := range r.Keywords {
		out = append(out, k.Opportunities...)
	}
	return out
}

// ScanService searches every marketplace for a keyword, matches listings
// across each platform pair and persists the opportunities that clear the
// thresholds.
type ScanService struct {
	deps   ScanDeps
	cfg    ScanConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewScanService creates a ScanService.
func NewScanService(deps ScanDeps, cfg ScanConfig, logger *slog.Logger) *ScanService {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 50
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 20 * time.Minute
	}
	if cfg.AlertCooldown <= 0 {
		cfg.AlertCooldown = 5 * time.Minute
	}
	return &ScanService{
		deps:   deps,
		cfg:    cfg,
		logger: discardIfNil(logger).With(slog.String("component", "scan_service")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ScanAll scans each keyword in turn under the distributed scan lock and
// records a performance row. It returns domain.ErrLockHeld (wrapped) when
// another scan is running.
func (s *ScanService) ScanAll(ctx context.Context, keywords []string) (ScanReport, error) {
	report := ScanReport{StartedAt: s.now()}

	if s.deps.Lock != nil {
		unlock, err := s.deps.Lock.Acquire(ctx, scanLockName, s.cfg.LockTTL)
		if err != nil {
			return report, fmt.Errorf("scan_service: %w", err)
		}
		defer unlock()
	}

	for i, kw := range keywords {
		if i > 0 && s.cfg.KeywordDelay > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(s.cfg.KeywordDelay):
			}
		}

		res, err := s.ScanKeyword(ctx, kw)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			s.logger.ErrorContext(ctx, "keyword scan failed",
				slog.String("keyword", kw),
				slog.String("error", err.Error()),
			)
			report.FailedKeyword = append(report.FailedKeyword, kw)
			s.alertError(ctx, err)
			continue
		}
		report.Keywords = append(report.Keywords, res)
	}

	report.FinishedAt = s.now()
	all := report.Opportunities()
	arbitrage.SortByProfit(all)
	report.Summary = arbitrage.Summarize(all, s.deps.Analyzer.Thresholds().AlertProfit)

	s.recordPerformance(ctx, report, all)
	publish(ctx, s.deps.Bus, s.logger, domain.ChannelScan, map[string]any{
		"event":         "scan_completed",
		"keywords":      len(keywords),
		"opportunities": report.Summary.TotalOpportunities,
		"total_profit":  report.Summary.TotalProfit,
		"finished_at":   report.FinishedAt,
	})
	audit(ctx, s.deps.Audit, s.logger, "scan.completed", map[string]any{
		"keywords":        len(keywords),
		"failed_keywords": report.FailedKeyword,
		"opportunities":   report.Summary.TotalOpportunities,
		"duration_ms":     report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	})

	s.logger.InfoContext(ctx, "scan complete",
		slog.Int("keywords", len(keywords)),
		slog.Int("opportunities", report.Summary.TotalOpportunities),
		slog.String("total_profit", report.Summary.TotalProfit.StringFixed(2)),
	)
	return report, nil
}

// ScanKeyword fetches listings from every source concurrently and evaluates
// each ordered platform pair. A platform that fails contributes no listings.
func (s *ScanService) ScanKeyword(ctx context.Context, keyword string) (KeywordResult, error) {
	keyword = strings.TrimSpace(keyword)
	res := KeywordResult{Keyword: keyword, Listings: make(map[domain.Platform]int)}
	if keyword == "" {
		return res, errors.New("scan_service: empty keyword")
	}

	catalogs := make([][]domain.Listing, len(s.deps.Sources))
	failed := make([]bool, len(s.deps.Sources))
	var g errgroup.Group
	for i, src := range s.deps.Sources {
		g.Go(func() error {
			listings, err := s.fetch(ctx, src, keyword)
			if err != nil {
				s.logger.WarnContext(ctx, "platform search failed",
					slog.String("platform", string(src.Platform())),
					slog.String("keyword", keyword),
					slog.String("error", err.Error()),
				)
				failed[i] = true
				return nil
			}
			catalogs[i] = listings
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return res, err
	}

	blocked, err := s.blockedSellers(ctx)
	if err != nil {
		return res, err
	}

	var observed []domain.Listing
	for i, src := range s.deps.Sources {
		if failed[i] {
			res.Failed = append(res.Failed, src.Platform())
		}
		catalogs[i] = filterBlocked(catalogs[i], blocked)
		res.Listings[src.Platform()] = len(catalogs[i])
		observed = append(observed, catalogs[i]...)
	}

	if len(observed) > 0 && s.deps.Prices != nil {
		if err := s.deps.Prices.Record(ctx, observed); err != nil {
			s.logger.WarnContext(ctx, "record price history failed", slog.String("error", err.Error()))
		}
	}

	for i := range s.deps.Sources {
		for j := range s.deps.Sources {
			if i == j {
				continue
			}
			res.Opportunities = append(res.Opportunities,
				s.deps.Analyzer.FindOpportunities(catalogs[i], catalogs[j])...)
		}
	}
	arbitrage.SortByProfit(res.Opportunities)

	if len(res.Opportunities) > 0 {
		saved, err := s.deps.Opps.SaveBatch(ctx, res.Opportunities)
		if err != nil {
			return res, fmt.Errorf("scan_service: save opportunities for %q: %w", keyword, err)
		}
		res.Saved = saved
	}

	for _, opp := range res.Opportunities {
		s.announce(ctx, opp)
	}
	s.recordKeyword(ctx, keyword, res)

	s.logger.InfoContext(ctx, "keyword scanned",
		slog.String("keyword", keyword),
		slog.Int("opportunities", len(res.Opportunities)),
		slog.Int("saved", res.Saved),
	)
	return res, nil
}

// fetch returns cached listings when present, otherwise searches and fills
// the cache.
func (s *ScanService) fetch(ctx context.Context, src domain.ListingSource, keyword string) ([]domain.Listing, error) {
	if s.deps.Cache != nil {
		cached, err := s.deps.Cache.Get(ctx, src.Platform(), keyword)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "listing cache read failed", slog.String("error", err.Error()))
		}
	}

	listings, err := src.Search(ctx, keyword, s.cfg.MaxResults)
	if err != nil {
		return nil, err
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.Put(ctx, src.Platform(), keyword, listings); err != nil {
			s.logger.WarnContext(ctx, "listing cache write failed", slog.String("error", err.Error()))
		}
	}
	return listings, nil
}

// blockedSellers merges the persistent blacklist with configured sellers.
// Configured entries apply to every platform.
func (s *ScanService) blockedSellers(ctx context.Context) (map[string]bool, error) {
	blocked := make(map[string]bool, len(s.cfg.BlockedSellers))
	for _, id := range s.cfg.BlockedSellers {
		blocked[sellerKey("*", id)] = true
	}
	if s.deps.Blacklist == nil {
		return blocked, nil
	}
	entries, err := s.deps.Blacklist.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan_service: load blacklist: %w", err)
	}
	for _, e := range entries {
		blocked[sellerKey(e.Platform, e.SellerID)] = true
	}
	return blocked, nil
}

func sellerKey(p domain.Platform, sellerID string) string {
	return string(p) + ":" + strings.ToLower(strings.TrimSpace(sellerID))
}

func filterBlocked(listings []domain.Listing, blocked map[string]bool) []domain.Listing {
	if len(blocked) == 0 {
		return listings
	}
	out := listings[:0:0]
	for _, l := range listings {
		if l.SellerID != "" && (blocked[sellerKey(l.Platform, l.SellerID)] || blocked[sellerKey("*", l.SellerID)]) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// announce publishes the opportunity and alerts on it when it clears the
// alert threshold and the platform pair is out of cooldown.
func (s *ScanService) announce(ctx context.Context, opp domain.Opportunity) {
	if s.deps.Bus != nil {
		payload, err := json.Marshal(opp)
		if err == nil {
			if err := s.deps.Bus.Publish(ctx, domain.ChannelOpportunity, payload); err != nil {
				s.logger.WarnContext(ctx, "publish opportunity failed", slog.String("error", err.Error()))
			}
			if err := s.deps.Bus.StreamAppend(ctx, domain.StreamOpportunity, payload); err != nil {
				s.logger.WarnContext(ctx, "stream append failed", slog.String("error", err.Error()))
			}
		}
	}

	if s.deps.Notifier == nil || !s.deps.Notifier.Enabled() {
		return
	}
	if opp.NetProfit.LessThan(s.deps.Analyzer.Thresholds().AlertProfit) {
		return
	}
	if s.deps.Cooldown != nil {
		pair := fmt.Sprintf("alert:%s-%s", opp.SourcePlatform, opp.TargetPlatform)
		ok, err := s.deps.Cooldown.Admit(ctx, pair, s.cfg.AlertCooldown)
		if err != nil {
			s.logger.WarnContext(ctx, "alert cooldown check failed", slog.String("error", err.Error()))
			return
		}
		if !ok {
			s.logger.DebugContext(ctx, "alert suppressed by cooldown", slog.String("pair", pair))
			return
		}
	}

	title, msg := notify.OpportunityAlert(opp)
	if err := s.deps.Notifier.Notify(ctx, notify.EventOpportunity, title, msg); err != nil {
		s.logger.WarnContext(ctx, "opportunity alert failed",
			slog.String("opportunity_id", opp.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ScanService) alertError(ctx context.Context, scanErr error) {
	if s.deps.Notifier == nil || !s.deps.Notifier.Enabled() {
		return
	}
	title, msg := notify.ErrorAlert("scanner", scanErr, s.now())
	if err := s.deps.Notifier.Notify(ctx, notify.EventError, title, msg); err != nil {
		s.logger.WarnContext(ctx, "error alert failed", slog.String("error", err.Error()))
	}
}

// recordKeyword stores per-platform keyword statistics, attributing each
// opportunity to its source platform.
func (s *ScanService) recordKeyword(ctx context.Context, keyword string, res KeywordResult) {
	if s.deps.Keywords == nil {
		return
	}
	for _, src := range s.deps.Sources {
		p := src.Platform()
		var found int
		sum := decimal.Zero
		for _, o := range res.Opportunities {
			if o.SourcePlatform == p {
				found++
				sum = sum.Add(o.NetProfit)
			}
		}
		var avg float64
		if found > 0 {
			avg = sum.Div(decimal.NewFromInt(int64(found))).InexactFloat64()
		}
		if err := s.deps.Keywords.RecordSearch(ctx, keyword, string(p), res.Listings[p], found, avg); err != nil {
			s.logger.WarnContext(ctx, "record keyword stats failed",
				slog.String("keyword", keyword),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *ScanService) recordPerformance(ctx context.Context, report ScanReport, opps []domain.Opportunity) {
	if s.deps.Perf == nil {
		return
	}
	investment := decimal.Zero
	for _, o := range opps {
		investment = investment.Add(o.TotalCost())
	}
	var roi float64
	if investment.IsPositive() {
		roi = report.Summary.TotalProfit.Div(investment).InexactFloat64() * 100
	}
	rec := domain.PerformanceRecord{
		Date:               report.StartedAt,
		OpportunitiesFound: report.Summary.TotalOpportunities,
		TotalProfit:        report.Summary.TotalProfit,
		TotalInvestment:    investment,
		ROIPercentage:      roi,
	}
	if err := s.deps.Perf.Insert(ctx, rec); err != nil {
		s.logger.WarnContext(ctx, "record performance failed", slog.String("error", err.Error()))
	}
}
