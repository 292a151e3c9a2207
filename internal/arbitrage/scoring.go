package arbitrage

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

const maxScore = 10.0

var (
	thinProfit  = decimal.NewFromInt(5)
	lowProfit   = decimal.NewFromInt(15)
	sweetSpotLo = decimal.NewFromInt(20)
	sweetSpotHi = decimal.NewFromInt(200)
)

// platformRiskOffset is added once per opportunity for the source platform.
var platformRiskOffset = map[domain.Platform]float64{
	domain.PlatformEbay:   1.0,
	domain.PlatformAmazon: 0.5,
}

var highDemandKeywords = []string{
	"iphone", "samsung", "apple", "sony", "nintendo",
	"playstation", "xbox", "airpods", "macbook",
}

// InlineRisk is the quick 0-10 risk estimate stored on every opportunity.
func InlineRisk(source, target domain.Listing, netProfit decimal.Decimal) float64 {
	risk := 0.0

	if source.Price.IsPositive() {
		ratio := target.Price.Div(source.Price).InexactFloat64()
		switch {
		case ratio > 3:
			risk += 3.0
		case ratio > 2:
			risk += 1.5
		}
	}

	if source.SellerRating < 4.0 {
		risk += 2.0
	}
	if target.SellerRating < 4.0 {
		risk += 1.0
	}

	if source.Stock < 5 {
		risk += 1.5
	}
	if source.Stock <= 0 {
		risk += 3.0
	}

	switch {
	case netProfit.LessThan(thinProfit):
		risk += 2.0
	case netProfit.LessThan(lowProfit):
		risk += 1.0
	}

	offset, ok := platformRiskOffset[source.Platform]
	if !ok {
		offset = 1.0
	}
	risk += offset

	return clamp(risk, 0, maxScore)
}

// DemandScore estimates how readily the target listing will sell.
func DemandScore(target domain.Listing) float64 {
	score := 5.0

	title := strings.ToLower(target.Title)
	for _, kw := range highDemandKeywords {
		if strings.Contains(title, kw) {
			score += 2.0
			break
		}
	}

	if target.Price.GreaterThanOrEqual(sweetSpotLo) && target.Price.LessThanOrEqual(sweetSpotHi) {
		score += 1.0
	}

	return clamp(score, 0, maxScore)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
