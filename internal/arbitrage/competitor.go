package arbitrage

import (
	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/matching"
)

// SimilarTo returns the opportunities in pool whose normalized titles are
// at least matching.OpportunityFloor similar to opp's. opp itself is
// excluded by id.
func SimilarTo(opp domain.Opportunity, pool []domain.Opportunity) []domain.Opportunity {
	title := matching.Normalize(opp.ProductTitle)
	var out []domain.Opportunity
	for _, o := range pool {
		if o.ID == opp.ID {
			continue
		}
		if matching.Similarity(title, matching.Normalize(o.ProductTitle)) >= matching.OpportunityFloor {
			out = append(out, o)
		}
	}
	return out
}

// AnalyzeCompetition ranks opp by net profit among similar opportunities.
// Rank 1 is the most profitable; ties share the better rank.
func AnalyzeCompetition(opp domain.Opportunity, similar []domain.Opportunity) domain.CompetitorAnalysis {
	if len(similar) == 0 {
		return domain.CompetitorAnalysis{
			Position:         domain.PositionUnique,
			CompetitionLevel: domain.CompetitionLow,
		}
	}

	rank := 1
	var sum float64
	for _, o := range similar {
		if o.NetProfit.GreaterThan(opp.NetProfit) {
			rank++
		}
		sum += o.NetProfit.InexactFloat64()
	}
	total := len(similar) + 1

	var pos domain.MarketPosition
	switch pct := float64(rank) / float64(total); {
	case rank == 1:
		pos = domain.PositionBest
	case pct <= 0.3:
		pos = domain.PositionTop
	case pct <= 0.7:
		pos = domain.PositionMiddle
	default:
		pos = domain.PositionBottom
	}

	level := domain.CompetitionLow
	switch {
	case total > 8:
		level = domain.CompetitionHigh
	case total > 3:
		level = domain.CompetitionMedium
	}

	return domain.CompetitorAnalysis{
		Position:            pos,
		ProfitRank:          rank,
		TotalCompetitors:    total,
		CompetitionLevel:    level,
		AvgCompetitorProfit: sum / float64(len(similar)),
	}
}
