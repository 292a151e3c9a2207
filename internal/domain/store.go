package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// OpportunityStore persists opportunities.
type OpportunityStore interface {
	SaveBatch(ctx context.Context, opps []Opportunity) (int, error)
	GetByID(ctx context.Context, id string) (Opportunity, error)
	ListByStatus(ctx context.Context, status OpportunityStatus, opts ListOpts) ([]Opportunity, error)
	UpdateStatus(ctx context.Context, id string, from, to OpportunityStatus) error
	UpdateNotes(ctx context.Context, id, notes string) error
	ListBefore(ctx context.Context, before time.Time) ([]Opportunity, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// PriceHistoryStore records observed listing prices.
type PriceHistoryStore interface {
	Record(ctx context.Context, listings []Listing) error
	History(ctx context.Context, platform Platform, productID string, since time.Time) ([]PricePoint, error)
	ListBefore(ctx context.Context, before time.Time) ([]PricePoint, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// BlacklistStore holds sellers excluded from scans.
type BlacklistStore interface {
	Add(ctx context.Context, entry BlacklistEntry) error
	Remove(ctx context.Context, platform Platform, sellerID string) error
	List(ctx context.Context) ([]BlacklistEntry, error)
}

// PerformanceStore records per-scan outcomes.
type PerformanceStore interface {
	Insert(ctx context.Context, rec PerformanceRecord) error
	Summary(ctx context.Context, since time.Time) (PerformanceSummary, error)
}

// KeywordStore tracks search keyword statistics.
type KeywordStore interface {
	RecordSearch(ctx context.Context, keyword, platform string, results, found int, avgProfit float64) error
	Top(ctx context.Context, limit int) ([]KeywordStats, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Event     string         `json:"event"`
	Detail    map[string]any `json:"detail"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	// List returns entries newest first. A non-empty eventPrefix keeps only
	// events starting with it ("archive." matches every archive event).
	List(ctx context.Context, eventPrefix string, opts ListOpts) ([]AuditEntry, error)
}
