// Package fees models the marketplace charges applied when a listing is
// bought or sold on each supported platform.
package fees

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// Side is the direction of a transaction from the reseller's view.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "sell"
	}
	return "buy"
}

// Calculator prices the fee for one platform. Implementations never return
// a negative amount.
type Calculator interface {
	Fee(price decimal.Decimal, category string, side Side) decimal.Decimal
}

// Model maps each configured platform to its calculator.
type Model struct {
	calculators map[domain.Platform]Calculator
}

// NewModel builds a Model for the given platforms. An unsupported platform
// is a configuration error.
func NewModel(platforms ...domain.Platform) (*Model, error) {
	if len(platforms) == 0 {
		platforms = domain.Platforms
	}
	m := &Model{calculators: make(map[domain.Platform]Calculator, len(platforms))}
	for _, p := range platforms {
		switch p {
		case domain.PlatformEbay:
			m.calculators[p] = Ebay{}
		case domain.PlatformAmazon:
			m.calculators[p] = Amazon{}
		default:
			return nil, fmt.Errorf("fees: %w: %q", domain.ErrUnknownPlatform, p)
		}
	}
	return m, nil
}

// Supports reports whether the platform has a calculator.
func (m *Model) Supports(p domain.Platform) bool {
	_, ok := m.calculators[p]
	return ok
}

// Fee prices a transaction. Unsupported platforms and non-positive prices
// cost nothing.
func (m *Model) Fee(p domain.Platform, price decimal.Decimal, category string, side Side) decimal.Decimal {
	c, ok := m.calculators[p]
	if !ok || !price.IsPositive() {
		return decimal.Zero
	}
	fee := c.Fee(price, category, side)
	if fee.IsNegative() {
		return decimal.Zero
	}
	return fee
}

func normCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	c = strings.ReplaceAll(c, " ", "_")
	return strings.ReplaceAll(c, "-", "_")
}
