package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Platform identifies a supported marketplace.
type Platform string

const (
	PlatformEbay   Platform = "ebay"
	PlatformAmazon Platform = "amazon"
)

// Platforms lists every supported marketplace in a fixed order.
var Platforms = []Platform{PlatformEbay, PlatformAmazon}

// ParsePlatform resolves a case-insensitive platform name.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformEbay:
		return PlatformEbay, nil
	case PlatformAmazon:
		return PlatformAmazon, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}

// Title returns the display name of the platform.
func (p Platform) Title() string {
	switch p {
	case PlatformEbay:
		return "eBay"
	case PlatformAmazon:
		return "Amazon"
	}
	return string(p)
}

// Listing is a single marketplace offer as returned by a platform client.
// Listings are treated as immutable once fetched.
type Listing struct {
	Platform     Platform        `json:"platform"`
	ProductID    string          `json:"product_id"`
	Title        string          `json:"title"`
	Price        decimal.Decimal `json:"price"`
	Shipping     decimal.Decimal `json:"shipping"`
	Currency     string          `json:"currency"`
	SellerID     string          `json:"seller_id,omitempty"`
	SellerRating float64         `json:"seller_rating"` // 0-5
	Stock        int             `json:"stock"`
	Condition    string          `json:"condition"`
	Category     string          `json:"category"`
	URL          string          `json:"url"`
	ImageURL     string          `json:"image_url,omitempty"`
}

// Valid reports whether the listing carries enough data to be compared and
// priced: a product id, a non-blank title and a positive price.
func (l Listing) Valid() bool {
	return l.ProductID != "" &&
		strings.TrimSpace(l.Title) != "" &&
		l.Price.IsPositive()
}

// TotalCost is the price plus shipping paid by a buyer.
func (l Listing) TotalCost() decimal.Decimal {
	return l.Price.Add(l.Shipping)
}
