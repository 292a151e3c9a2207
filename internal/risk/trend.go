package risk

import (
	"math"
	"slices"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

const (
	// MinTrendPoints is the smallest series AnalyzeTrend will fit.
	MinTrendPoints = 3
	// stableSlope is the per-observation price change below which a series
	// counts as flat.
	stableSlope = 0.5
)

// AnalyzeTrend fits a least-squares line through the series in
// chronological order. Confidence is the coefficient of determination and
// Volatility the population coefficient of variation in percent.
func AnalyzeTrend(points []domain.PricePoint) domain.PriceTrend {
	if len(points) < MinTrendPoints {
		return domain.PriceTrend{Direction: domain.TrendInsufficientData}
	}

	sorted := slices.Clone(points)
	slices.SortStableFunc(sorted, func(a, b domain.PricePoint) int {
		return a.RecordedAt.Compare(b.RecordedAt)
	})

	n := float64(len(sorted))
	var sumX, sumY float64
	minP, maxP := math.Inf(1), math.Inf(-1)
	for i, p := range sorted {
		sumX += float64(i)
		sumY += p.Price
		minP = min(minP, p.Price)
		maxP = max(maxP, p.Price)
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, syy, sxy float64
	for i, p := range sorted {
		dx, dy := float64(i)-meanX, p.Price-meanY
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}

	slope := sxy / sxx
	var confidence float64
	if syy > 0 {
		r := sxy / math.Sqrt(sxx*syy)
		confidence = r * r
	}
	var volatility float64
	if meanY != 0 {
		volatility = math.Sqrt(syy/n) / meanY * 100
	}

	dir := domain.TrendStable
	switch {
	case math.Abs(slope) < stableSlope:
	case slope > 0:
		dir = domain.TrendIncreasing
	default:
		dir = domain.TrendDecreasing
	}

	return domain.PriceTrend{
		Direction:    dir,
		Slope:        slope,
		Confidence:   confidence,
		Volatility:   volatility,
		CurrentPrice: sorted[len(sorted)-1].Price,
		AvgPrice:     meanY,
		MinPrice:     minP,
		MaxPrice:     maxP,
	}
}
