// Package arbitrage prices matched cross-platform listing pairs into
// opportunities, filters them against profit thresholds and summarises the
// results.
package arbitrage

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscout/internal/domain"
	"github.com/alanyoungcy/arbscout/internal/fees"
)

var hundred = decimal.NewFromInt(100)

// Builder turns a source/target listing pair into a priced opportunity.
type Builder struct {
	fees  *fees.Model
	now   func() time.Time
	newID func() string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// WithIDGenerator overrides the opportunity id source.
func WithIDGenerator(gen func() string) BuilderOption {
	return func(b *Builder) { b.newID = gen }
}

// NewBuilder creates a Builder that prices fees with model.
func NewBuilder(model *fees.Model, opts ...BuilderOption) *Builder {
	b := &Builder{
		fees:  model,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build prices buying source and reselling at the target listing's price.
//
//	total_cost = source.price + source.shipping + source_fee + target_fee
//	net_profit = target.price - total_cost
//	roi        = net_profit / total_cost * 100  (0 when total_cost is 0)
func (b *Builder) Build(source, target domain.Listing) domain.Opportunity {
	sourceFee := b.fees.Fee(source.Platform, source.Price, source.Category, fees.Buy)
	targetFee := b.fees.Fee(target.Platform, target.Price, target.Category, fees.Sell)

	totalCost := source.TotalCost().Add(sourceFee).Add(targetFee)
	netProfit := target.Price.Sub(totalCost)

	return domain.NewOpportunity(domain.OpportunityParams{
		ID:            b.newID(),
		Source:        source,
		Target:        target,
		SourceFee:     sourceFee,
		TargetFee:     targetFee,
		NetProfit:     netProfit,
		ROIPercentage: roi(netProfit, totalCost),
		DemandScore:   DemandScore(target),
		RiskScore:     InlineRisk(source, target, netProfit),
	}, b.now())
}

func roi(netProfit, totalCost decimal.Decimal) float64 {
	if !totalCost.IsPositive() {
		return 0
	}
	return netProfit.Div(totalCost).Mul(hundred).InexactFloat64()
}
