package domain

import (
	"fmt"
	"strings"
)

// RiskTolerance shifts ranking weight between risk and profit.
type RiskTolerance string

const (
	ToleranceLow    RiskTolerance = "low"
	ToleranceMedium RiskTolerance = "medium"
	ToleranceHigh   RiskTolerance = "high"
)

// ProfitPriority shifts ranking weight between profit and ROI.
type ProfitPriority string

const (
	PriorityProfit   ProfitPriority = "profit"
	PriorityROI      ProfitPriority = "roi"
	PriorityBalanced ProfitPriority = "balanced"
)

// TimeHorizon is recorded with the preferences but not used for scoring.
type TimeHorizon string

const (
	HorizonShort  TimeHorizon = "short"
	HorizonMedium TimeHorizon = "medium"
	HorizonLong   TimeHorizon = "long"
)

// Preferences is the operator's ranking profile. Build it with
// NewPreferences; the zero value is not valid.
type Preferences struct {
	riskTolerance    RiskTolerance
	profitPriority   ProfitPriority
	timeHorizon      TimeHorizon
	capitalAvailable float64
}

// NewPreferences validates and returns a Preferences value.
func NewPreferences(tol RiskTolerance, prio ProfitPriority, horizon TimeHorizon, capital float64) (Preferences, error) {
	var errs []string
	switch tol {
	case ToleranceLow, ToleranceMedium, ToleranceHigh:
	default:
		errs = append(errs, fmt.Sprintf("risk_tolerance %q (valid: low, medium, high)", tol))
	}
	switch prio {
	case PriorityProfit, PriorityROI, PriorityBalanced:
	default:
		errs = append(errs, fmt.Sprintf("profit_priority %q (valid: profit, roi, balanced)", prio))
	}
	switch horizon {
	case HorizonShort, HorizonMedium, HorizonLong:
	default:
		errs = append(errs, fmt.Sprintf("time_horizon %q (valid: short, medium, long)", horizon))
	}
	if capital <= 0 {
		errs = append(errs, "capital_available must be > 0")
	}
	if len(errs) > 0 {
		return Preferences{}, fmt.Errorf("%w: preferences: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return Preferences{
		riskTolerance:    tol,
		profitPriority:   prio,
		timeHorizon:      horizon,
		capitalAvailable: capital,
	}, nil
}

// DefaultPreferences is the balanced profile with 1000 of capital.
func DefaultPreferences() Preferences {
	return Preferences{
		riskTolerance:    ToleranceMedium,
		profitPriority:   PriorityBalanced,
		timeHorizon:      HorizonShort,
		capitalAvailable: 1000,
	}
}

func (p Preferences) RiskTolerance() RiskTolerance   { return p.riskTolerance }
func (p Preferences) ProfitPriority() ProfitPriority { return p.profitPriority }
func (p Preferences) TimeHorizon() TimeHorizon       { return p.timeHorizon }
func (p Preferences) CapitalAvailable() float64      { return p.capitalAvailable }

// Score component names used as ScoreBreakdown keys.
const (
	ScoreProfit   = "profit"
	ScoreROI      = "roi"
	ScoreRisk     = "risk"
	ScoreSeasonal = "seasonal"
	ScoreVelocity = "velocity"
)

// ScoreBreakdown maps a ranking component to its value.
type ScoreBreakdown map[string]float64

// RankedOpportunity is an opportunity with its composite utility and the
// data that produced it.
type RankedOpportunity struct {
	Opportunity    Opportunity    `json:"opportunity"`
	CompositeScore float64        `json:"composite_score"`
	Scores         ScoreBreakdown `json:"individual_scores"`
	Weights        ScoreBreakdown `json:"weights_used"`
	Risk           RiskAssessment `json:"risk_assessment"`
}
