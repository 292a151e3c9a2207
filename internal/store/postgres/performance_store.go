package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// PerformanceStore implements domain.PerformanceStore using PostgreSQL.
type PerformanceStore struct {
	pool *pgxpool.Pool
}

// NewPerformanceStore creates a new PerformanceStore backed by the given connection pool.
func NewPerformanceStore(pool *pgxpool.Pool) *PerformanceStore {
	return &PerformanceStore{pool: pool}
}

// Insert records one scan run.
func (s *PerformanceStore) Insert(ctx context.Context, r domain.PerformanceRecord) error {
	const query = `
		INSERT INTO performance (
			date, opportunities_found, opportunities_acted,
			total_profit, total_investment, roi_percentage
		) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query,
		r.Date, r.OpportunitiesFound, r.OpportunitiesActed,
		numeric(r.TotalProfit), numeric(r.TotalInvestment), r.ROIPercentage,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert performance: %w", err)
	}
	return nil
}

// Summary aggregates runs recorded on or after since.
func (s *PerformanceStore) Summary(ctx context.Context, since time.Time) (domain.PerformanceSummary, error) {
	const query = `
		SELECT COUNT(*),
		       COALESCE(SUM(opportunities_found), 0),
		       COALESCE(SUM(total_profit), 0),
		       COALESCE(AVG(roi_percentage), 0)
		FROM performance
		WHERE date >= $1`

	var (
		out    domain.PerformanceSummary
		profit decimal.Decimal
	)
	if err := s.pool.QueryRow(ctx, query, since).Scan(
		&out.Scans, &out.TotalOpportunities, &profit, &out.AverageROI,
	); err != nil {
		return domain.PerformanceSummary{}, fmt.Errorf("postgres: performance summary: %w", err)
	}
	out.TotalProfit = profit
	return out, nil
}

var _ domain.PerformanceStore = (*PerformanceStore)(nil)
