// Package ranking scores opportunities into a single preference-weighted
// utility and orders them by it.
package ranking

import (
	"maps"
	"slices"
	"time"

	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/risk"
)

// TrendKey identifies the price series of one listing.
type TrendKey struct {
	Platform  domain.Platform
	ProductID string
}

// TrendLookup supplies previously computed price trends to the ranker.
type TrendLookup interface {
	Trend(platform domain.Platform, productID string) (domain.PriceTrend, bool)
}

// TrendMap is an in-memory TrendLookup.
type TrendMap map[TrendKey]domain.PriceTrend

// Trend implements TrendLookup.
func (m TrendMap) Trend(platform domain.Platform, productID string) (domain.PriceTrend, bool) {
	t, ok := m[TrendKey{Platform: platform, ProductID: productID}]
	return t, ok
}

// Ranker computes composite scores.
type Ranker struct {
	assessor *risk.Assessor
	now      func() time.Time
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithClock sets the date used for seasonality.
func WithClock(now func() time.Time) Option {
	return func(r *Ranker) { r.now = now }
}

// NewRanker creates a Ranker backed by assessor.
func NewRanker(assessor *risk.Assessor, opts ...Option) *Ranker {
	if assessor == nil {
		assessor = risk.NewAssessor(nil)
	}
	r := &Ranker{assessor: assessor, now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Rank scores every opportunity and returns them by composite score,
// highest first; ties keep input order. trends may be nil, in which case
// every opportunity is assessed without price history.
func (r *Ranker) Rank(opps []domain.Opportunity, prefs domain.Preferences, trends TrendLookup) []domain.RankedOpportunity {
	weights := Weights(prefs)
	// Seasons are UTC calendar months.
	now := r.now().UTC()

	out := make([]domain.RankedOpportunity, 0, len(opps))
	for _, opp := range opps {
		var trend *domain.PriceTrend
		if trends != nil {
			if t, ok := trends.Trend(opp.SourcePlatform, opp.SourceProductID); ok {
				trend = &t
			}
		}
		assessment := r.assessor.Assess(opp, trend)

		scores := domain.ScoreBreakdown{
			domain.ScoreProfit:   min(opp.NetProfit.InexactFloat64()*2, 100),
			domain.ScoreROI:      min(opp.ROIPercentage, 100),
			domain.ScoreRisk:     max(0, 100-assessment.Total*4),
			domain.ScoreSeasonal: clamp((SeasonalMultiplier(opp.ProductTitle, now)-0.5)*100, 0, 100),
			domain.ScoreVelocity: VelocityScore(opp),
		}

		out = append(out, domain.RankedOpportunity{
			Opportunity:    opp,
			CompositeScore: composite(scores, weights),
			Scores:         scores,
			Weights:        maps.Clone(weights),
			Risk:           assessment,
		})
	}

	slices.SortStableFunc(out, func(a, b domain.RankedOpportunity) int {
		switch {
		case a.CompositeScore > b.CompositeScore:
			return -1
		case a.CompositeScore < b.CompositeScore:
			return 1
		}
		return 0
	})
	return out
}

// Weights derives component weights from preferences. Risk tolerance is
// applied first and profit priority may then override the profit weight.
// The weights are not normalised.
func Weights(prefs domain.Preferences) domain.ScoreBreakdown {
	w := domain.ScoreBreakdown{
		domain.ScoreProfit:   0.3,
		domain.ScoreROI:      0.25,
		domain.ScoreRisk:     0.25,
		domain.ScoreSeasonal: 0.1,
		domain.ScoreVelocity: 0.1,
	}

	switch prefs.RiskTolerance() {
	case domain.ToleranceLow:
		w[domain.ScoreRisk] = 0.4
		w[domain.ScoreProfit] = 0.2
	case domain.ToleranceHigh:
		w[domain.ScoreRisk] = 0.1
		w[domain.ScoreProfit] = 0.4
	}

	switch prefs.ProfitPriority() {
	case domain.PriorityProfit:
		w[domain.ScoreProfit] = 0.5
		w[domain.ScoreROI] = 0.15
	case domain.PriorityROI:
		w[domain.ScoreROI] = 0.45
		w[domain.ScoreProfit] = 0.2
	}
	return w
}

// VelocityScore estimates how quickly the purchase can be executed, 0-100.
func VelocityScore(opp domain.Opportunity) float64 {
	score := 50.0

	switch {
	case opp.SourceStock > 10:
		score += 20
	case opp.SourceStock > 5:
		score += 10
	case opp.SourceStock <= 1:
		score -= 20
	}

	switch {
	case opp.SourceRating >= 4.5:
		score += 15
	case opp.SourceRating >= 4.0:
		score += 10
	case opp.SourceRating < 3.5:
		score -= 15
	}

	return clamp(score, 0, 100)
}

var componentOrder = []string{
	domain.ScoreProfit,
	domain.ScoreROI,
	domain.ScoreRisk,
	domain.ScoreSeasonal,
	domain.ScoreVelocity,
}

func composite(scores, weights domain.ScoreBreakdown) float64 {
	var total float64
	for _, k := range componentOrder {
		total += scores[k] * weights[k]
	}
	return total
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
