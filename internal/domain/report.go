package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpportunitySummary aggregates a batch of opportunities.
type OpportunitySummary struct {
	TotalOpportunities int             `json:"total_opportunities"`
	TotalProfit        decimal.Decimal `json:"total_potential_profit"`
	AverageROI         float64         `json:"average_roi"`
	AverageRisk        float64         `json:"average_risk_score"`
	HighProfitCount    int             `json:"high_profit_opportunities"`
}

// MarketPosition places an opportunity among similar ones by net profit.
type MarketPosition string

const (
	PositionUnique MarketPosition = "unique"
	PositionBest   MarketPosition = "best"
	PositionTop    MarketPosition = "top"
	PositionMiddle MarketPosition = "middle"
	PositionBottom MarketPosition = "bottom"
)

// CompetitionLevel buckets the number of similar opportunities.
type CompetitionLevel string

const (
	CompetitionLow    CompetitionLevel = "low"
	CompetitionMedium CompetitionLevel = "medium"
	CompetitionHigh   CompetitionLevel = "high"
)

// CompetitorAnalysis is the result of comparing one opportunity with
// similar ones.
type CompetitorAnalysis struct {
	Position            MarketPosition   `json:"position"`
	ProfitRank          int              `json:"profit_rank,omitempty"`
	TotalCompetitors    int              `json:"total_competitors,omitempty"`
	CompetitionLevel    CompetitionLevel `json:"competition_level"`
	AvgCompetitorProfit float64          `json:"avg_competitor_profit,omitempty"`
}

// KeywordStats tracks how productive a search keyword has been.
type KeywordStats struct {
	Keyword            string    `json:"keyword"`
	Platform           string    `json:"platform"`
	SearchCount        int       `json:"search_count"`
	TotalResults       int       `json:"total_results"`
	OpportunitiesFound int       `json:"opportunities_found"`
	AvgProfit          float64   `json:"avg_profit"`
	LastSearched       time.Time `json:"last_searched"`
}

// PerformanceRecord is one scan run's outcome.
type PerformanceRecord struct {
	ID                 int64           `json:"id"`
	Date               time.Time       `json:"date"`
	OpportunitiesFound int             `json:"opportunities_found"`
	OpportunitiesActed int             `json:"opportunities_acted"`
	TotalProfit        decimal.Decimal `json:"total_profit"`
	TotalInvestment    decimal.Decimal `json:"total_investment"`
	ROIPercentage      float64         `json:"roi_percentage"`
	CreatedAt          time.Time       `json:"created_at"`
}

// PerformanceSummary aggregates performance records over a window.
type PerformanceSummary struct {
	Days               int             `json:"days"`
	Scans              int             `json:"scans"`
	TotalOpportunities int             `json:"total_opportunities"`
	TotalProfit        decimal.Decimal `json:"total_potential_profit"`
	AverageROI         float64         `json:"avg_roi"`
}

// BlacklistEntry excludes a seller from scans.
type BlacklistEntry struct {
	SellerID string    `json:"seller_id"`
	Platform Platform  `json:"platform"`
	Reason   string    `json:"reason"`
	AddedAt  time.Time `json:"added_at"`
}
