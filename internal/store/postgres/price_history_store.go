package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// PriceHistoryStore implements domain.PriceHistoryStore using PostgreSQL.
type PriceHistoryStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPriceHistoryStore creates a new PriceHistoryStore backed by the given connection pool.
func NewPriceHistoryStore(pool *pgxpool.Pool) *PriceHistoryStore {
	return &PriceHistoryStore{pool: pool, now: time.Now}
}

// Record stores the current price of every listing using COPY.
func (s *PriceHistoryStore) Record(ctx context.Context, listings []domain.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	at := s.now().UTC()
	rows := make([][]any, 0, len(listings))
	for _, l := range listings {
		if l.ProductID == "" {
			continue
		}
		rows = append(rows, []any{l.ProductID, string(l.Platform), numeric(l.Price), at})
	}

	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"price_history"},
		[]string{"product_id", "platform", "price", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("postgres: record price history: %w", err)
	}
	return nil
}

// History returns the price series of one listing since the given time,
// oldest first.
func (s *PriceHistoryStore) History(ctx context.Context, platform domain.Platform, productID string, since time.Time) ([]domain.PricePoint, error) {
	const query = `
		SELECT product_id, platform, price, recorded_at
		FROM price_history
		WHERE platform = $1 AND product_id = $2 AND recorded_at >= $3
		ORDER BY recorded_at`
	return s.list(ctx, "price history", query, string(platform), productID, since)
}

// ListBefore returns every point recorded before the cutoff, oldest first.
func (s *PriceHistoryStore) ListBefore(ctx context.Context, before time.Time) ([]domain.PricePoint, error) {
	const query = `
		SELECT product_id, platform, price, recorded_at
		FROM price_history
		WHERE recorded_at < $1
		ORDER BY recorded_at`
	return s.list(ctx, "list price history before", query, before)
}

// DeleteBefore removes points recorded before the cutoff.
func (s *PriceHistoryStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM price_history WHERE recorded_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete price history: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PriceHistoryStore) list(ctx context.Context, op, query string, args ...any) ([]domain.PricePoint, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	defer rows.Close()

	var out []domain.PricePoint
	for rows.Next() {
		var (
			p        domain.PricePoint
			platform string
			price    decimal.Decimal
		)
		if err := rows.Scan(&p.ProductID, &platform, &price, &p.RecordedAt); err != nil {
			return nil, fmt.Errorf("postgres: %s: scan: %w", op, err)
		}
		p.Platform = domain.Platform(platform)
		p.Price = price.InexactFloat64()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: %s rows: %w", op, err)
	}
	return out, nil
}

var _ domain.PriceHistoryStore = (*PriceHistoryStore)(nil)
