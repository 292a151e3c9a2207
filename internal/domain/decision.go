package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DecisionAction is the outcome of evaluating one ranked opportunity.
type DecisionAction string

const (
	ActionBuy  DecisionAction = "buy"
	ActionSkip DecisionAction = "skip"
)

// ReasonCode explains a decision.
type ReasonCode string

const (
	ReasonMeetsCriteria       ReasonCode = "meets_criteria"
	ReasonInsufficientCapital ReasonCode = "insufficient_capital"
	ReasonLowScore            ReasonCode = "low_score"
	ReasonTooRisky            ReasonCode = "too_risky"
	ReasonInsufficientProfit  ReasonCode = "insufficient_profit"
)

// Decision is a buy or skip verdict for one opportunity. ExpectedProfit and
// ExpectedROI are only set for buys.
type Decision struct {
	OpportunityID   string          `json:"opportunity_id"`
	Action          DecisionAction  `json:"action"`
	Reason          ReasonCode      `json:"reason"`
	CapitalRequired decimal.Decimal `json:"capital_required"`
	Confidence      float64         `json:"confidence"`
	CompositeScore  float64         `json:"composite_score"`
	ExpectedProfit  decimal.Decimal `json:"expected_profit,omitzero"`
	ExpectedROI     float64         `json:"expected_roi,omitempty"`
}

// DecisionCriteria bounds the capital allocator.
type DecisionCriteria struct {
	MaxCapital        decimal.Decimal
	MinCompositeScore float64
	MaxRiskScore      float64
	MinProfit         decimal.Decimal
}

// DefaultDecisionCriteria returns the stock criteria for the given budget.
func DefaultDecisionCriteria(maxCapital decimal.Decimal) DecisionCriteria {
	return DecisionCriteria{
		MaxCapital:        maxCapital,
		MinCompositeScore: 60,
		MaxRiskScore:      15,
		MinProfit:         decimal.NewFromInt(10),
	}
}

// Validate reports every out-of-range value.
func (c DecisionCriteria) Validate() error {
	var errs []string
	if !c.MaxCapital.IsPositive() {
		errs = append(errs, "max_capital must be > 0")
	}
	if c.MinCompositeScore < 0 || c.MinCompositeScore > 100 {
		errs = append(errs, fmt.Sprintf("min_composite_score must be within 0-100, got %g", c.MinCompositeScore))
	}
	if c.MaxRiskScore < 0 {
		errs = append(errs, "max_risk_score must be >= 0")
	}
	if c.MinProfit.IsNegative() {
		errs = append(errs, "min_profit must be >= 0")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: decision criteria: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}
