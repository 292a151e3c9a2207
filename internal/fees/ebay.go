package fees

import "github.com/shopspring/decimal"

var (
	ebayListingFee     = decimal.RequireFromString("0.35")
	ebayPaymentRate    = decimal.RequireFromString("0.03")
	ebayPaymentFixed   = decimal.RequireFromString("0.30")
	ebayDefaultFVFRate = decimal.RequireFromString("0.129")

	ebayFinalValueRates = map[string]decimal.Decimal{
		"motors":     decimal.RequireFromString("0.069"),
		"business":   decimal.RequireFromString("0.119"),
		"technology": decimal.RequireFromString("0.109"),
		"general":    ebayDefaultFVFRate,
	}
)

// Ebay charges a listing fee, a category final-value fee and payment
// processing on every sale.
type Ebay struct{}

func (Ebay) Fee(price decimal.Decimal, category string, side Side) decimal.Decimal {
	if side != Sell {
		return decimal.Zero
	}
	rate, ok := ebayFinalValueRates[normCategory(category)]
	if !ok {
		rate = ebayDefaultFVFRate
	}
	finalValue := price.Mul(rate)
	payment := price.Mul(ebayPaymentRate).Add(ebayPaymentFixed)
	return ebayListingFee.Add(finalValue).Add(payment)
}
