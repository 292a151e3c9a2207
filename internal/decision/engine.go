// Package decision allocates a capital budget over ranked opportunities.
package decision

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// stopFraction of the budget used ends allocation early.
var stopFraction = decimal.RequireFromString("0.95")

const (
	confidenceInsufficientCapital = 0.0
	confidenceLowScore            = 0.2
	confidenceTooRisky            = 0.3
	confidenceInsufficientProfit  = 0.1
	maxBuyConfidence              = 0.95
)

// Engine makes greedy buy/skip decisions in rank order.
type Engine struct {
	criteria domain.DecisionCriteria
}

// NewEngine validates criteria and returns an Engine.
func NewEngine(criteria domain.DecisionCriteria) (*Engine, error) {
	if err := criteria.Validate(); err != nil {
		return nil, fmt.Errorf("decision: new engine: %w", err)
	}
	return &Engine{criteria: criteria}, nil
}

// Criteria returns the engine's limits.
func (e *Engine) Criteria() domain.DecisionCriteria { return e.criteria }

// Decide walks ranked in order, buying whatever fits the remaining budget
// and passes every gate. It stops after the decision that brings capital
// used to 95% of the budget or more, so the result may be shorter than
// ranked. The sum of CapitalRequired over buys never exceeds MaxCapital.
func (e *Engine) Decide(ranked []domain.RankedOpportunity) []domain.Decision {
	c := e.criteria
	threshold := c.MaxCapital.Mul(stopFraction)
	used := decimal.Zero

	out := make([]domain.Decision, 0, len(ranked))
	for _, r := range ranked {
		d := e.evaluate(r, c.MaxCapital.Sub(used))
		if d.Action == domain.ActionBuy {
			used = used.Add(d.CapitalRequired)
		}
		out = append(out, d)
		if used.GreaterThanOrEqual(threshold) {
			break
		}
	}
	return out
}

func (e *Engine) evaluate(r domain.RankedOpportunity, available decimal.Decimal) domain.Decision {
	c := e.criteria
	opp := r.Opportunity
	d := domain.Decision{
		OpportunityID:   opp.ID,
		Action:          domain.ActionSkip,
		CapitalRequired: opp.CapitalRequired(),
		CompositeScore:  r.CompositeScore,
	}

	switch {
	case d.CapitalRequired.GreaterThan(available):
		d.Reason, d.Confidence = domain.ReasonInsufficientCapital, confidenceInsufficientCapital
	case r.CompositeScore < c.MinCompositeScore:
		d.Reason, d.Confidence = domain.ReasonLowScore, confidenceLowScore
	case r.Risk.Total > c.MaxRiskScore:
		d.Reason, d.Confidence = domain.ReasonTooRisky, confidenceTooRisky
	case opp.NetProfit.LessThan(c.MinProfit):
		d.Reason, d.Confidence = domain.ReasonInsufficientProfit, confidenceInsufficientProfit
	default:
		d.Action = domain.ActionBuy
		d.Reason = domain.ReasonMeetsCriteria
		d.Confidence = min(r.CompositeScore/100, maxBuyConfidence)
		d.ExpectedProfit = opp.NetProfit
		d.ExpectedROI = opp.ROIPercentage
	}
	return d
}

// Totals sums the capital committed and profit expected by buy decisions.
func Totals(decisions []domain.Decision) (capital, profit decimal.Decimal) {
	capital, profit = decimal.Zero, decimal.Zero
	for _, d := range decisions {
		if d.Action != domain.ActionBuy {
			continue
		}
		capital = capital.Add(d.CapitalRequired)
		profit = profit.Add(d.ExpectedProfit)
	}
	return capital, profit
}
