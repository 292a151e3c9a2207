package decision

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ranked(id, capital, profit string, score, risk float64) domain.RankedOpportunity {
	return domain.RankedOpportunity{
		Opportunity: domain.Opportunity{
			ID:            id,
			SourcePrice:   d(capital),
			NetProfit:     d(profit),
			ROIPercentage: 30,
		},
		CompositeScore: score,
		Risk:           domain.RiskAssessment{Total: risk},
	}
}

func newEngine(t *testing.T, maxCapital string) *Engine {
	t.Helper()
	e, err := NewEngine(domain.DefaultDecisionCriteria(d(maxCapital)))
	require.NoError(t, err)
	return e
}

func TestDecide_ScenarioC_CapitalExhausted(t *testing.T) {
	// Arrange
	e := newEngine(t, "100")
	in := []domain.RankedOpportunity{
		ranked("a", "60", "20", 80, 9),
		ranked("b", "60", "20", 75, 9),
	}

	// Act
	out := e.Decide(in)

	// Assert
	require.Len(t, out, 2)
	assert.Equal(t, domain.ActionBuy, out[0].Action)
	assert.Equal(t, domain.ReasonMeetsCriteria, out[0].Reason)
	assert.InDelta(t, 0.8, out[0].Confidence, 1e-9)
	assert.True(t, d("20").Equal(out[0].ExpectedProfit))
	assert.Equal(t, domain.ActionSkip, out[1].Action)
	assert.Equal(t, domain.ReasonInsufficientCapital, out[1].Reason)
	assert.Zero(t, out[1].Confidence)
}

func TestDecide_ScenarioD_LowScore(t *testing.T) {
	e := newEngine(t, "1000")

	out := e.Decide([]domain.RankedOpportunity{ranked("a", "50", "20", 50, 9)})

	require.Len(t, out, 1)
	assert.Equal(t, domain.ActionSkip, out[0].Action)
	assert.Equal(t, domain.ReasonLowScore, out[0].Reason)
	assert.Equal(t, 0.2, out[0].Confidence)
	assert.True(t, out[0].ExpectedProfit.IsZero())
}

func TestDecide_ReasonPrecedence(t *testing.T) {
	e := newEngine(t, "1000")
	cases := []struct {
		name       string
		in         domain.RankedOpportunity
		reason     domain.ReasonCode
		confidence float64
	}{
		{"capital before score", ranked("a", "2000", "1", 10, 99), domain.ReasonInsufficientCapital, 0},
		{"score before risk", ranked("a", "10", "1", 59.9, 99), domain.ReasonLowScore, 0.2},
		{"risk before profit", ranked("a", "10", "1", 70, 15.1), domain.ReasonTooRisky, 0.3},
		{"profit", ranked("a", "10", "9.99", 70, 15), domain.ReasonInsufficientProfit, 0.1},
		{"buy capped confidence", ranked("a", "10", "10", 99, 15), domain.ReasonMeetsCriteria, 0.95},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := e.Decide([]domain.RankedOpportunity{tc.in})

			require.Len(t, out, 1)
			assert.Equal(t, tc.reason, out[0].Reason)
			assert.InDelta(t, tc.confidence, out[0].Confidence, 1e-9)
		})
	}
}

func TestDecide_StopsNearBudget(t *testing.T) {
	e := newEngine(t, "100")
	in := []domain.RankedOpportunity{
		ranked("a", "50", "20", 90, 5),
		ranked("b", "46", "20", 85, 5),
		ranked("c", "1", "20", 80, 5),
	}

	out := e.Decide(in)

	// 96 used after b, so c is never evaluated
	require.Len(t, out, 2)
	capital, profit := Totals(out)
	assert.True(t, d("96").Equal(capital))
	assert.True(t, d("40").Equal(profit))
}

func TestDecide_NeverExceedsBudget(t *testing.T) {
	e := newEngine(t, "500")
	var in []domain.RankedOpportunity
	for i := range 40 {
		in = append(in, ranked(fmt.Sprintf("o%d", i), fmt.Sprintf("%d", 13+i*7%90), "25", 70, 5))
	}

	out := e.Decide(in)

	capital, _ := Totals(out)
	assert.True(t, capital.LessThanOrEqual(d("500")), "committed %s", capital)
}

func TestNewEngine_RejectsNonPositiveCapital(t *testing.T) {
	_, err := NewEngine(domain.DefaultDecisionCriteria(decimal.Zero))

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
