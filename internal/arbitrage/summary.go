package arbitrage

import (
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// Summarize aggregates a batch of opportunities. HighProfitCount counts
// opportunities whose net profit reaches alertProfit.
func Summarize(opps []domain.Opportunity, alertProfit decimal.Decimal) domain.OpportunitySummary {
	s := domain.OpportunitySummary{TotalProfit: decimal.Zero}
	if len(opps) == 0 {
		return s
	}

	var roi, risk float64
	for _, o := range opps {
		s.TotalProfit = s.TotalProfit.Add(o.NetProfit)
		roi += o.ROIPercentage
		risk += o.RiskScore
		if o.NetProfit.GreaterThanOrEqual(alertProfit) {
			s.HighProfitCount++
		}
	}
	n := float64(len(opps))
	s.TotalOpportunities = len(opps)
	s.AverageROI = roi / n
	s.AverageRisk = risk / n
	return s
}
