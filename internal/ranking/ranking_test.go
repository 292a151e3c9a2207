package ranking

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/risk"
)

func day(m time.Month) time.Time { return time.Date(2025, m, 15, 0, 0, 0, 0, time.UTC) }

func TestSeasonalMultiplier(t *testing.T) {
	cases := []struct {
		title string
		month time.Month
		want  float64
	}{
		{"PlayStation 5 Console", time.December, 1.3},
		{"iPhone 15", time.November, 1.3},
		{"Treadmill", time.November, 1.0},
		{"Adjustable Weights Set", time.January, 1.4},
		{"Laptop Backpack", time.September, 1.2},
		{"Bluetooth Speaker", time.August, 1.0},
		{"Bluetooth Speaker", time.July, 1.1},
		{"Phone case", time.June, 1.1},
		{"Garden hose", time.March, 1.0},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s/%s", tc.title, tc.month), func(t *testing.T) {
			assert.Equal(t, tc.want, SeasonalMultiplier(tc.title, day(tc.month)))
		})
	}
}

func prefs(t *testing.T, tol domain.RiskTolerance, prio domain.ProfitPriority) domain.Preferences {
	t.Helper()
	p, err := domain.NewPreferences(tol, prio, domain.HorizonShort, 1000)
	require.NoError(t, err)
	return p
}

func TestWeights(t *testing.T) {
	def := Weights(domain.DefaultPreferences())
	assert.Equal(t, 0.3, def[domain.ScoreProfit])
	assert.Equal(t, 0.25, def[domain.ScoreROI])
	assert.Equal(t, 0.25, def[domain.ScoreRisk])

	low := Weights(prefs(t, domain.ToleranceLow, domain.PriorityBalanced))
	assert.Equal(t, 0.4, low[domain.ScoreRisk])
	assert.Equal(t, 0.2, low[domain.ScoreProfit])

	// profit priority overrides the tolerance's profit weight
	hp := Weights(prefs(t, domain.ToleranceHigh, domain.PriorityProfit))
	assert.Equal(t, 0.1, hp[domain.ScoreRisk])
	assert.Equal(t, 0.5, hp[domain.ScoreProfit])
	assert.Equal(t, 0.15, hp[domain.ScoreROI])

	roi := Weights(prefs(t, domain.ToleranceMedium, domain.PriorityROI))
	assert.Equal(t, 0.45, roi[domain.ScoreROI])
	assert.Equal(t, 0.2, roi[domain.ScoreProfit])
}

func TestVelocityScore(t *testing.T) {
	assert.Equal(t, 85.0, VelocityScore(domain.Opportunity{SourceStock: 20, SourceRating: 4.8}))
	assert.Equal(t, 70.0, VelocityScore(domain.Opportunity{SourceStock: 6, SourceRating: 4.1}))
	assert.Equal(t, 15.0, VelocityScore(domain.Opportunity{SourceStock: 0, SourceRating: 2}))
	assert.Equal(t, 50.0, VelocityScore(domain.Opportunity{SourceStock: 3, SourceRating: 3.7}))
}

func opp(id string, profit string, roi float64) domain.Opportunity {
	return domain.Opportunity{
		ID:              id,
		SourcePlatform:  domain.PlatformEbay,
		TargetPlatform:  domain.PlatformAmazon,
		SourceProductID: "p-" + id,
		ProductTitle:    "Garden hose",
		TargetPrice:     decimal.NewFromInt(100),
		NetProfit:       decimal.RequireFromString(profit),
		ROIPercentage:   roi,
		SourceStock:     20,
		SourceRating:    4.8,
	}
}

func newRanker() *Ranker {
	return NewRanker(risk.NewAssessor(nil), WithClock(func() time.Time { return day(time.March) }))
}

func TestRank_CompositeScore(t *testing.T) {
	// Arrange
	r := newRanker()

	// Act
	ranked := r.Rank([]domain.Opportunity{opp("a", "50", 40)}, domain.DefaultPreferences(), nil)

	// Assert
	require.Len(t, ranked, 1)
	got := ranked[0]
	assert.Equal(t, 100.0, got.Scores[domain.ScoreProfit])
	assert.Equal(t, 40.0, got.Scores[domain.ScoreROI])
	assert.InDelta(t, 62.0, got.Scores[domain.ScoreRisk], 1e-9)
	assert.InDelta(t, 50.0, got.Scores[domain.ScoreSeasonal], 1e-9)
	assert.Equal(t, 85.0, got.Scores[domain.ScoreVelocity])
	assert.InDelta(t, 69.0, got.CompositeScore, 1e-9)
	assert.Equal(t, domain.RiskMedium, got.Risk.Level)
}

func TestRank_SeasonUsesUTCMonth(t *testing.T) {
	// 05:00 on 1 November in UTC+10 is still 31 October in UTC.
	sydney := time.FixedZone("AEST", 10*60*60)
	r := NewRanker(risk.NewAssessor(nil), WithClock(func() time.Time {
		return time.Date(2025, time.November, 1, 5, 0, 0, 0, sydney)
	}))
	o := opp("a", "50", 40)
	o.ProductTitle = "Nintendo Switch OLED"

	ranked := r.Rank([]domain.Opportunity{o}, domain.DefaultPreferences(), nil)

	require.Len(t, ranked, 1)
	assert.InDelta(t, 50.0, ranked[0].Scores[domain.ScoreSeasonal], 1e-9)
}

func TestRank_UsesTrendLookup(t *testing.T) {
	r := newRanker()
	o := opp("a", "50", 40)
	trends := TrendMap{
		{Platform: domain.PlatformEbay, ProductID: "p-a"}: {Direction: domain.TrendStable, Volatility: 50},
	}

	without := r.Rank([]domain.Opportunity{o}, domain.DefaultPreferences(), nil)[0]
	with := r.Rank([]domain.Opportunity{o}, domain.DefaultPreferences(), trends)[0]

	assert.InDelta(t, 5.0, with.Risk.Breakdown[domain.RiskPriceVolatility], 1e-9)
	assert.Less(t, with.CompositeScore, without.CompositeScore)
}

func TestRank_SortedDescendingAndStable(t *testing.T) {
	r := newRanker()
	opps := []domain.Opportunity{
		opp("low", "5", 10),
		opp("tie-1", "30", 40),
		opp("high", "60", 90),
		opp("tie-2", "30", 40),
	}

	ranked := r.Rank(opps, domain.DefaultPreferences(), nil)

	ids := make([]string, len(ranked))
	for i, ro := range ranked {
		ids[i] = ro.Opportunity.ID
	}
	assert.Equal(t, []string{"high", "tie-1", "tie-2", "low"}, ids)
}

func TestRank_Deterministic(t *testing.T) {
	r := newRanker()
	var opps []domain.Opportunity
	for i := range 50 {
		opps = append(opps, opp(fmt.Sprintf("o%d", i), fmt.Sprintf("%d", i%7*9), float64(i%5*20)))
	}

	first := r.Rank(opps, domain.DefaultPreferences(), nil)
	for range 5 {
		assert.Equal(t, first, r.Rank(opps, domain.DefaultPreferences(), nil))
	}
}

func TestRank_EmptyInput(t *testing.T) {
	assert.Empty(t, newRanker().Rank(nil, domain.DefaultPreferences(), nil))
}
