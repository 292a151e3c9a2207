package fees

import "github.com/shopspring/decimal"

var (
	amazonDefaultReferral = decimal.RequireFromString("0.15")
	amazonStorageFee      = decimal.RequireFromString("0.75")
	amazonClosingFee      = decimal.RequireFromString("0.50")

	amazonReferralRates = map[string]decimal.Decimal{
		"electronics": decimal.RequireFromString("0.07"),
		"computers":   decimal.RequireFromString("0.07"),
		"books":       amazonDefaultReferral,
		"media":       amazonDefaultReferral,
		"video_games": amazonDefaultReferral,
	}

	// closing fee applies to media categories only
	amazonClosingCategories = map[string]bool{
		"books":       true,
		"media":       true,
		"music":       true,
		"dvd":         true,
		"video_games": true,
	}
)

// fulfilment bands: upper bound (exclusive) and flat fee; the last band is
// open-ended.
var amazonFulfilmentBands = []struct {
	below decimal.Decimal
	fee   decimal.Decimal
}{
	{decimal.NewFromInt(10), decimal.RequireFromString("1.80")},
	{decimal.NewFromInt(50), decimal.RequireFromString("2.50")},
	{decimal.Zero, decimal.RequireFromString("3.50")},
}

// Amazon charges a referral percentage, a price-banded fulfilment fee,
// monthly storage and, for media, a closing fee.
type Amazon struct{}

func (Amazon) Fee(price decimal.Decimal, category string, side Side) decimal.Decimal {
	if side != Sell {
		return decimal.Zero
	}
	cat := normCategory(category)

	rate, ok := amazonReferralRates[cat]
	if !ok {
		rate = amazonDefaultReferral
	}
	fee := price.Mul(rate).Add(fulfilmentFee(price)).Add(amazonStorageFee)
	if amazonClosingCategories[cat] {
		fee = fee.Add(amazonClosingFee)
	}
	return fee
}

func fulfilmentFee(price decimal.Decimal) decimal.Decimal {
	last := len(amazonFulfilmentBands) - 1
	for _, b := range amazonFulfilmentBands[:last] {
		if price.LessThan(b.below) {
			return b.fee
		}
	}
	return amazonFulfilmentBands[last].fee
}
