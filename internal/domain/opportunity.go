package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OpportunityStatus is the lifecycle state of an opportunity.
type OpportunityStatus string

const (
	StatusNew       OpportunityStatus = "new"
	StatusActed     OpportunityStatus = "acted"
	StatusPurchased OpportunityStatus = "purchased"
	StatusSkipped   OpportunityStatus = "skipped"
	StatusExpired   OpportunityStatus = "expired"
)

// ParseOpportunityStatus validates a status string.
func ParseOpportunityStatus(s string) (OpportunityStatus, error) {
	switch st := OpportunityStatus(s); st {
	case StatusNew, StatusActed, StatusPurchased, StatusSkipped, StatusExpired:
		return st, nil
	}
	return "", fmt.Errorf("unknown opportunity status %q", s)
}

// Terminal reports whether no further transition is allowed from s.
func (s OpportunityStatus) Terminal() bool {
	return s != StatusNew
}

// CanTransition reports whether an opportunity may move from one status to
// another. Only "new" opportunities move, and only to a terminal status.
func CanTransition(from, to OpportunityStatus) bool {
	if from != StatusNew {
		return false
	}
	switch to {
	case StatusActed, StatusPurchased, StatusSkipped, StatusExpired:
		return true
	}
	return false
}

// Opportunity is a priced, scored proposal to buy a listing on one platform
// and resell the matched listing on another. Everything except Status and
// Notes is fixed at construction.
type Opportunity struct {
	ID              string            `json:"id"`
	SourcePlatform  Platform          `json:"source_platform"`
	TargetPlatform  Platform          `json:"target_platform"`
	SourceProductID string            `json:"source_product_id"`
	TargetProductID string            `json:"target_product_id"`
	ProductTitle    string            `json:"product_title"`
	SourcePrice     decimal.Decimal   `json:"source_price"`
	TargetPrice     decimal.Decimal   `json:"target_price"`
	SourceShipping  decimal.Decimal   `json:"source_shipping"`
	TargetShipping  decimal.Decimal   `json:"target_shipping"`
	SourceFee       decimal.Decimal   `json:"source_fee"`
	TargetFee       decimal.Decimal   `json:"target_fee"`
	SourceURL       string            `json:"source_url"`
	TargetURL       string            `json:"target_url"`
	NetProfit       decimal.Decimal   `json:"net_profit"`
	ROIPercentage   float64           `json:"roi_percentage"`
	SourceRating    float64           `json:"source_seller_rating"`
	TargetRating    float64           `json:"target_seller_rating"`
	SourceStock     int               `json:"source_stock"`
	DemandScore     float64           `json:"demand_score"`
	RiskScore       float64           `json:"risk_score"`
	CreatedAt       time.Time         `json:"created_at"`
	Status          OpportunityStatus `json:"status"`
	Notes           string            `json:"notes"`
}

// OpportunityParams carries the derived values an Opportunity is built from.
type OpportunityParams struct {
	ID            string
	Source        Listing
	Target        Listing
	SourceFee     decimal.Decimal
	TargetFee     decimal.Decimal
	NetProfit     decimal.Decimal
	ROIPercentage float64
	DemandScore   float64
	RiskScore     float64
}

// NewOpportunity assembles a fully initialised opportunity in status "new",
// stamped with createdAt.
func NewOpportunity(p OpportunityParams, createdAt time.Time) Opportunity {
	return Opportunity{
		ID:              p.ID,
		SourcePlatform:  p.Source.Platform,
		TargetPlatform:  p.Target.Platform,
		SourceProductID: p.Source.ProductID,
		TargetProductID: p.Target.ProductID,
		ProductTitle:    p.Target.Title,
		SourcePrice:     p.Source.Price,
		TargetPrice:     p.Target.Price,
		SourceShipping:  p.Source.Shipping,
		TargetShipping:  p.Target.Shipping,
		SourceFee:       p.SourceFee,
		TargetFee:       p.TargetFee,
		SourceURL:       p.Source.URL,
		TargetURL:       p.Target.URL,
		NetProfit:       p.NetProfit,
		ROIPercentage:   p.ROIPercentage,
		SourceRating:    p.Source.SellerRating,
		TargetRating:    p.Target.SellerRating,
		SourceStock:     p.Source.Stock,
		DemandScore:     p.DemandScore,
		RiskScore:       p.RiskScore,
		CreatedAt:       createdAt,
		Status:          StatusNew,
	}
}

// CapitalRequired is the cash needed to acquire the source listing.
func (o Opportunity) CapitalRequired() decimal.Decimal {
	return o.SourcePrice.Add(o.SourceShipping)
}

// TotalCost is the acquisition cost plus fees on both sides.
func (o Opportunity) TotalCost() decimal.Decimal {
	return o.CapitalRequired().Add(o.SourceFee).Add(o.TargetFee)
}

// Transition moves the opportunity to a new status.
func (o *Opportunity) Transition(to OpportunityStatus) error {
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	o.Status = to
	return nil
}
