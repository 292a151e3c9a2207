package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbscout/internal/decision"
	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/ranking"
	"github.com/alanyoungcy/arbscout/internal/risk"
)

const (
	defaultPlanCandidates = 500
	trendWorkers          = 8
)

// Plan is a ranked set of opportunities with a buy or skip verdict for each.
type Plan struct {
	GeneratedAt      time.Time                  `json:"generated_at"`
	Ranked           []domain.RankedOpportunity `json:"ranked"`
	Decisions        []domain.Decision          `json:"decisions"`
	Buys             int                        `json:"buys"`
	CapitalAllocated decimal.Decimal            `json:"capital_allocated"`
	ExpectedProfit   decimal.Decimal            `json:"expected_profit"`
}

// DecisionService ranks open opportunities and allocates capital to them.
type DecisionService struct {
	opps      domain.OpportunityStore
	prices    domain.PriceHistoryStore
	ranker    *ranking.Ranker
	bus       domain.SignalBus
	audit     domain.AuditStore
	trendDays int
	logger    *slog.Logger
	now       func() time.Time
}

// NewDecisionService creates a DecisionService. Price trends are built from
// trendDays of history; prices may be nil, in which case every opportunity
// is ranked with the default volatility.
func NewDecisionService(
	opps domain.OpportunityStore,
	prices domain.PriceHistoryStore,
	ranker *ranking.Ranker,
	bus domain.SignalBus,
	auditStore domain.AuditStore,
	trendDays int,
	logger *slog.Logger,
) *DecisionService {
	if trendDays <= 0 {
		trendDays = 30
	}
	return &DecisionService{
		opps:      opps,
		prices:    prices,
		ranker:    ranker,
		bus:       bus,
		audit:     auditStore,
		trendDays: trendDays,
		logger:    discardIfNil(logger).With(slog.String("component", "decision_service")),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Plan ranks every new opportunity under prefs and runs the capital
// allocator with criteria.
func (s *DecisionService) Plan(ctx context.Context, prefs domain.Preferences, criteria domain.DecisionCriteria) (Plan, error) {
	engine, err := decision.NewEngine(criteria)
	if err != nil {
		return Plan{}, fmt.Errorf("decision_service: %w", err)
	}

	opps, err := s.opps.ListByStatus(ctx, domain.StatusNew, domain.ListOpts{Limit: defaultPlanCandidates})
	if err != nil {
		return Plan{}, fmt.Errorf("decision_service: load opportunities: %w", err)
	}

	trends, err := s.trends(ctx, opps)
	if err != nil {
		return Plan{}, err
	}

	ranked := s.ranker.Rank(opps, prefs, trends)
	decisions := engine.Decide(ranked)
	capital, profit := decision.Totals(decisions)

	plan := Plan{
		GeneratedAt:      s.now(),
		Ranked:           ranked,
		Decisions:        decisions,
		CapitalAllocated: capital,
		ExpectedProfit:   profit,
	}
	for _, d := range decisions {
		if d.Action == domain.ActionBuy {
			plan.Buys++
		}
	}

	publish(ctx, s.bus, s.logger, domain.ChannelDecision, plan)
	audit(ctx, s.audit, s.logger, "decision.plan", map[string]any{
		"candidates":        len(opps),
		"buys":              plan.Buys,
		"capital_allocated": capital.StringFixed(2),
		"expected_profit":   profit.StringFixed(2),
		"max_capital":       criteria.MaxCapital.StringFixed(2),
	})
	s.logger.InfoContext(ctx, "plan built",
		slog.Int("candidates", len(opps)),
		slog.Int("buys", plan.Buys),
		slog.String("capital_allocated", capital.StringFixed(2)),
	)
	return plan, nil
}

// trends builds a price trend per distinct source listing, querying history
// with bounded concurrency.
func (s *DecisionService) trends(ctx context.Context, opps []domain.Opportunity) (ranking.TrendMap, error) {
	out := make(ranking.TrendMap)
	if s.prices == nil {
		return out, nil
	}

	keys := make(map[ranking.TrendKey]struct{})
	for _, o := range opps {
		keys[ranking.TrendKey{Platform: o.SourcePlatform, ProductID: o.SourceProductID}] = struct{}{}
	}

	since := s.now().AddDate(0, 0, -s.trendDays)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(trendWorkers)
	for k := range keys {
		g.Go(func() error {
			points, err := s.prices.History(gctx, k.Platform, k.ProductID, since)
			if err != nil {
				return fmt.Errorf("decision_service: price history %s/%s: %w", k.Platform, k.ProductID, err)
			}
			trend := risk.AnalyzeTrend(points)
			mu.Lock()
			out[k] = trend
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
