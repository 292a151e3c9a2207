package domain

import "time"

// RiskLevel buckets a comprehensive risk total.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
	RiskUnknown  RiskLevel = "unknown"
)

// Risk component names used as RiskBreakdown keys.
const (
	RiskPriceVolatility  = "price_volatility"
	RiskMarketSaturation = "market_saturation"
	RiskPlatform         = "platform_risk"
	RiskLiquidity        = "liquidity_risk"
	RiskTimeSensitivity  = "time_sensitivity"
)

// RiskBreakdown maps a risk component to its contribution.
type RiskBreakdown map[string]float64

// RiskAssessment is the comprehensive, history-aware risk view of one
// opportunity. Total is the unclamped sum of the breakdown.
type RiskAssessment struct {
	Total           float64       `json:"total_risk_score"`
	Level           RiskLevel     `json:"risk_level"`
	Breakdown       RiskBreakdown `json:"risk_breakdown,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

// TrendDirection classifies the slope of a price series.
type TrendDirection string

const (
	TrendStable           TrendDirection = "stable"
	TrendIncreasing       TrendDirection = "increasing"
	TrendDecreasing       TrendDirection = "decreasing"
	TrendInsufficientData TrendDirection = "insufficient_data"
)

// PricePoint is one observed price of a listing.
type PricePoint struct {
	ProductID  string    `json:"product_id"`
	Platform   Platform  `json:"platform"`
	Price      float64   `json:"price"`
	RecordedAt time.Time `json:"recorded_at"`
}

// PriceTrend summarises a price series.
type PriceTrend struct {
	Direction    TrendDirection `json:"trend"`
	Slope        float64        `json:"slope"`
	Confidence   float64        `json:"confidence"`
	Volatility   float64        `json:"volatility"`
	CurrentPrice float64        `json:"current_price"`
	AvgPrice     float64        `json:"avg_price"`
	MinPrice     float64        `json:"min_price"`
	MaxPrice     float64        `json:"max_price"`
}

// Sufficient reports whether the trend was computed from enough data.
func (t PriceTrend) Sufficient() bool {
	return t.Direction != TrendInsufficientData && t.Direction != ""
}
