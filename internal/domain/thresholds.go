package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ProfitThresholds are the static filters an opportunity must pass to be
// reported.
type ProfitThresholds struct {
	MinProfit        decimal.Decimal
	MinROIPercentage float64
	AlertProfit      decimal.Decimal
	MaxRiskScore     float64
	MinSellerRating  float64
}

// DefaultProfitThresholds returns the stock filter values.
func DefaultProfitThresholds() ProfitThresholds {
	return ProfitThresholds{
		MinProfit:        decimal.NewFromInt(10),
		MinROIPercentage: 25,
		AlertProfit:      decimal.NewFromInt(25),
		MaxRiskScore:     7.0,
		MinSellerRating:  3.5,
	}
}

// Validate reports every out-of-range value.
func (t ProfitThresholds) Validate() error {
	var errs []string
	if t.MinProfit.IsNegative() {
		errs = append(errs, "min_profit must be >= 0")
	}
	if t.AlertProfit.IsNegative() {
		errs = append(errs, "alert_profit must be >= 0")
	}
	if t.MaxRiskScore < 0 || t.MaxRiskScore > 10 {
		errs = append(errs, fmt.Sprintf("max_risk_score must be within 0-10, got %g", t.MaxRiskScore))
	}
	if t.MinSellerRating < 0 || t.MinSellerRating > 5 {
		errs = append(errs, fmt.Sprintf("min_seller_rating must be within 0-5, got %g", t.MinSellerRating))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: thresholds: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}
