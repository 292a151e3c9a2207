// Package risk computes the history-aware risk assessment used for ranking
// and decisions, and the price trends it draws on.
package risk

import (
	"log/slog"
	"math"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// defaultVolatility stands in when no usable price history exists.
const defaultVolatility = 20.0

var platformRisk = map[domain.Platform]float64{
	domain.PlatformEbay:   2.5,
	domain.PlatformAmazon: 1.5,
}

// Assessor scores five independent risk components and sums them.
type Assessor struct {
	logger *slog.Logger
}

// NewAssessor creates an Assessor. A nil logger discards output.
func NewAssessor(logger *slog.Logger) *Assessor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Assessor{logger: logger.With(slog.String("component", "risk_assessor"))}
}

// Assess returns the comprehensive risk of opp. trend may be nil. The total
// is not clamped; an assessment that cannot be computed from finite inputs
// degrades to a total of 10 with level unknown.
func (a *Assessor) Assess(opp domain.Opportunity, trend *domain.PriceTrend) domain.RiskAssessment {
	volatility := defaultVolatility
	if trend != nil && trend.Sufficient() {
		volatility = trend.Volatility
	}
	if !finite(opp.ROIPercentage) || !finite(volatility) {
		a.logger.Warn("non-finite risk input",
			slog.String("opportunity_id", opp.ID),
			slog.Float64("roi", opp.ROIPercentage),
			slog.Float64("volatility", volatility),
		)
		return domain.RiskAssessment{Total: 10, Level: domain.RiskUnknown}
	}

	vol := min(volatility/10, 5.0)
	sat := saturation(opp.ROIPercentage)
	plat := (platformScore(opp.SourcePlatform) + platformScore(opp.TargetPlatform)) / 2
	liq := liquidity(opp.TargetPrice.InexactFloat64())
	ts := timeSensitivity(opp.ROIPercentage)

	// Summed in a fixed order so equal inputs give bit-identical totals.
	total := vol + sat + plat + liq + ts
	breakdown := domain.RiskBreakdown{
		domain.RiskPriceVolatility:  vol,
		domain.RiskMarketSaturation: sat,
		domain.RiskPlatform:         plat,
		domain.RiskLiquidity:        liq,
		domain.RiskTimeSensitivity:  ts,
	}
	level := Level(total)

	return domain.RiskAssessment{
		Total:           total,
		Level:           level,
		Breakdown:       breakdown,
		Recommendations: recommendations(breakdown, level),
	}
}

// Level buckets a risk total.
func Level(total float64) domain.RiskLevel {
	switch {
	case total <= 8:
		return domain.RiskLow
	case total <= 15:
		return domain.RiskMedium
	case total <= 22:
		return domain.RiskHigh
	}
	return domain.RiskVeryHigh
}

func saturation(roi float64) float64 {
	switch {
	case roi > 100:
		return 4.0
	case roi < 25:
		return 1.5
	}
	return 2.0
}

func platformScore(p domain.Platform) float64 {
	if v, ok := platformRisk[p]; ok {
		return v
	}
	return 2.0
}

func liquidity(targetPrice float64) float64 {
	switch {
	case targetPrice < 50:
		return 1.5
	case targetPrice > 500:
		return 3.5
	}
	return 2.0
}

func timeSensitivity(roi float64) float64 {
	switch {
	case roi > 75:
		return 2.5
	case roi < 30:
		return 1.0
	}
	return 1.5
}

func recommendations(b domain.RiskBreakdown, level domain.RiskLevel) []string {
	var out []string
	if b[domain.RiskPriceVolatility] > 3 {
		out = append(out, "Monitor price closely: high volatility detected")
	}
	if b[domain.RiskMarketSaturation] > 3 {
		out = append(out, "Act quickly: high market competition")
	}
	if b[domain.RiskLiquidity] > 3 {
		out = append(out, "Consider lower quantities: potential selling difficulty")
	}
	if b[domain.RiskTimeSensitivity] > 2.5 {
		out = append(out, "Time-sensitive opportunity: prioritize execution")
	}
	switch level {
	case domain.RiskVeryHigh:
		out = append(out, "CAUTION: very high risk, consider skipping")
	case domain.RiskHigh:
		out = append(out, "High risk: ensure thorough due diligence")
	}
	return out
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
