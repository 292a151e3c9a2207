package risk

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

func series(prices ...float64) []domain.PricePoint {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = domain.PricePoint{Price: p, RecordedAt: start.Add(time.Duration(i) * 24 * time.Hour)}
	}
	return out
}

func TestAnalyzeTrend_InsufficientData(t *testing.T) {
	got := AnalyzeTrend(series(10, 11))

	assert.Equal(t, domain.TrendInsufficientData, got.Direction)
	assert.False(t, got.Sufficient())
}

func TestAnalyzeTrend_PerfectLine(t *testing.T) {
	// Arrange: out of order on purpose
	pts := series(100, 102, 104, 106)
	pts[0], pts[3] = pts[3], pts[0]

	// Act
	got := AnalyzeTrend(pts)

	// Assert
	assert.Equal(t, domain.TrendIncreasing, got.Direction)
	assert.InDelta(t, 2.0, got.Slope, 1e-9)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
	assert.Equal(t, 106.0, got.CurrentPrice)
	assert.Equal(t, 100.0, got.MinPrice)
	assert.Equal(t, 106.0, got.MaxPrice)
	assert.InDelta(t, 103.0, got.AvgPrice, 1e-9)
	assert.InDelta(t, math.Sqrt(5)/103*100, got.Volatility, 1e-9)
}

func TestAnalyzeTrend_Directions(t *testing.T) {
	assert.Equal(t, domain.TrendStable, AnalyzeTrend(series(50, 50, 50)).Direction)
	assert.Equal(t, domain.TrendStable, AnalyzeTrend(series(50, 50.2, 50.4)).Direction)
	assert.Equal(t, domain.TrendDecreasing, AnalyzeTrend(series(90, 80, 70)).Direction)

	flat := AnalyzeTrend(series(50, 50, 50))
	assert.Zero(t, flat.Confidence)
	assert.Zero(t, flat.Volatility)
}

func opportunity(roi float64, target string) domain.Opportunity {
	return domain.Opportunity{
		ID:             "o1",
		SourcePlatform: domain.PlatformEbay,
		TargetPlatform: domain.PlatformAmazon,
		TargetPrice:    decimal.RequireFromString(target),
		ROIPercentage:  roi,
	}
}

func TestAssess_NoTrendUsesDefaultVolatility(t *testing.T) {
	a := NewAssessor(nil)

	got := a.Assess(opportunity(40, "100"), nil)

	assert.InDelta(t, 2.0, got.Breakdown[domain.RiskPriceVolatility], 1e-9)
	assert.InDelta(t, 2.0, got.Breakdown[domain.RiskMarketSaturation], 1e-9)
	assert.InDelta(t, 2.0, got.Breakdown[domain.RiskPlatform], 1e-9)
	assert.InDelta(t, 2.0, got.Breakdown[domain.RiskLiquidity], 1e-9)
	assert.InDelta(t, 1.5, got.Breakdown[domain.RiskTimeSensitivity], 1e-9)
	assert.InDelta(t, 9.5, got.Total, 1e-9)
	assert.Equal(t, domain.RiskMedium, got.Level)
}

func TestAssess_InsufficientTrendIgnored(t *testing.T) {
	a := NewAssessor(nil)
	trend := &domain.PriceTrend{Direction: domain.TrendInsufficientData, Volatility: 99}

	got := a.Assess(opportunity(40, "100"), trend)

	assert.InDelta(t, 2.0, got.Breakdown[domain.RiskPriceVolatility], 1e-9)
}

func TestAssess_HighRiskExtremes(t *testing.T) {
	a := NewAssessor(nil)
	trend := &domain.PriceTrend{Direction: domain.TrendStable, Volatility: 80}

	got := a.Assess(opportunity(150, "900"), trend)

	// 5 + 4 + 2 + 3.5 + 2.5
	assert.InDelta(t, 17.0, got.Total, 1e-9)
	assert.Equal(t, domain.RiskHigh, got.Level)
	assert.Contains(t, got.Recommendations, "Monitor price closely: high volatility detected")
	assert.Contains(t, got.Recommendations, "Act quickly: high market competition")
	assert.Contains(t, got.Recommendations, "Consider lower quantities: potential selling difficulty")
	assert.Contains(t, got.Recommendations, "High risk: ensure thorough due diligence")
}

func TestAssess_LowRisk(t *testing.T) {
	a := NewAssessor(nil)
	trend := &domain.PriceTrend{Direction: domain.TrendStable, Volatility: 5}
	opp := opportunity(10, "20")
	opp.SourcePlatform = domain.PlatformAmazon

	got := a.Assess(opp, trend)

	// 0.5 + 1.5 + 1.5 + 1.5 + 1.0
	assert.InDelta(t, 6.0, got.Total, 1e-9)
	assert.Equal(t, domain.RiskLow, got.Level)
	assert.Empty(t, got.Recommendations)
}

func TestAssess_NonFiniteFallsBack(t *testing.T) {
	a := NewAssessor(nil)

	got := a.Assess(opportunity(math.Inf(1), "100"), nil)
	require.Equal(t, domain.RiskUnknown, got.Level)
	assert.Equal(t, 10.0, got.Total)

	got = a.Assess(opportunity(40, "100"), &domain.PriceTrend{Direction: domain.TrendStable, Volatility: math.NaN()})
	assert.Equal(t, domain.RiskUnknown, got.Level)
}

func TestLevel_Boundaries(t *testing.T) {
	assert.Equal(t, domain.RiskLow, Level(8))
	assert.Equal(t, domain.RiskMedium, Level(8.01))
	assert.Equal(t, domain.RiskMedium, Level(15))
	assert.Equal(t, domain.RiskHigh, Level(22))
	assert.Equal(t, domain.RiskVeryHigh, Level(22.5))
}
