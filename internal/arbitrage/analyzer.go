package arbitrage

import (
	"fmt"
	"slices"

	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/matching"
)

// SkipReason explains why a matched pair did not become a reported
// opportunity. The empty reason means the candidate was accepted.
type SkipReason string

const (
	SkipNone            SkipReason = ""
	SkipLowSimilarity   SkipReason = "low_similarity"
	SkipBelowMinProfit  SkipReason = "below_min_profit"
	SkipBelowMinROI     SkipReason = "below_min_roi"
	SkipAboveMaxRisk    SkipReason = "above_max_risk"
	SkipLowSellerRating SkipReason = "low_seller_rating"
)

// Evaluation is the outcome of pricing one matched pair.
type Evaluation struct {
	Opportunity domain.Opportunity
	Similarity  float64
	Skip        SkipReason
}

// Accepted reports whether the candidate passed every threshold.
func (e Evaluation) Accepted() bool { return e.Skip == SkipNone }

// Analyzer runs match -> build -> filter -> sort over two listing sets.
type Analyzer struct {
	matcher    *matching.Matcher
	builder    *Builder
	thresholds domain.ProfitThresholds
}

// NewAnalyzer validates thresholds and returns an Analyzer.
func NewAnalyzer(thresholds domain.ProfitThresholds, builder *Builder, matcher *matching.Matcher) (*Analyzer, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("arbitrage: new analyzer: %w", err)
	}
	if builder == nil {
		return nil, fmt.Errorf("arbitrage: new analyzer: builder is required")
	}
	if matcher == nil {
		matcher = matching.NewMatcher()
	}
	return &Analyzer{matcher: matcher, builder: builder, thresholds: thresholds}, nil
}

// Thresholds returns the filters the analyzer applies.
func (a *Analyzer) Thresholds() domain.ProfitThresholds { return a.thresholds }

// Evaluate matches sources against targets and prices every selected pair.
// Pairs below matching.OpportunityFloor are reported as low_similarity
// without being priced. Results follow match selection order.
func (a *Analyzer) Evaluate(sources, targets []domain.Listing) []Evaluation {
	matches := a.matcher.Match(sources, targets)
	out := make([]Evaluation, 0, len(matches))
	for _, m := range matches {
		if m.Similarity < matching.OpportunityFloor {
			out = append(out, Evaluation{Similarity: m.Similarity, Skip: SkipLowSimilarity})
			continue
		}
		opp := a.builder.Build(m.Source, m.Target)
		out = append(out, Evaluation{
			Opportunity: opp,
			Similarity:  m.Similarity,
			Skip:        a.check(opp),
		})
	}
	return out
}

// FindOpportunities returns the accepted opportunities sorted by net profit,
// highest first. Equal profits keep match order.
func (a *Analyzer) FindOpportunities(sources, targets []domain.Listing) []domain.Opportunity {
	var opps []domain.Opportunity
	for _, ev := range a.Evaluate(sources, targets) {
		if ev.Accepted() {
			opps = append(opps, ev.Opportunity)
		}
	}
	SortByProfit(opps)
	return opps
}

func (a *Analyzer) check(opp domain.Opportunity) SkipReason {
	t := a.thresholds
	switch {
	case opp.NetProfit.LessThan(t.MinProfit):
		return SkipBelowMinProfit
	case opp.ROIPercentage < t.MinROIPercentage:
		return SkipBelowMinROI
	case opp.RiskScore > t.MaxRiskScore:
		return SkipAboveMaxRisk
	case opp.SourceRating < t.MinSellerRating:
		return SkipLowSellerRating
	}
	return SkipNone
}

// SortByProfit stable-sorts opportunities by net profit descending.
func SortByProfit(opps []domain.Opportunity) {
	slices.SortStableFunc(opps, func(x, y domain.Opportunity) int {
		return y.NetProfit.Cmp(x.NetProfit)
	})
}
