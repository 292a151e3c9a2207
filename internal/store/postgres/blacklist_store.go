package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// BlacklistStore implements domain.BlacklistStore using PostgreSQL.
type BlacklistStore struct {
	pool *pgxpool.Pool
}

// NewBlacklistStore creates a new BlacklistStore backed by the given connection pool.
func NewBlacklistStore(pool *pgxpool.Pool) *BlacklistStore {
	return &BlacklistStore{pool: pool}
}

// Add blocks a seller. Re-adding an entry refreshes its reason.
func (s *BlacklistStore) Add(ctx context.Context, e domain.BlacklistEntry) error {
	const query = `
		INSERT INTO blacklist (seller_id, platform, reason)
		VALUES ($1, $2, $3)
		ON CONFLICT (platform, seller_id) DO UPDATE SET reason = EXCLUDED.reason`

	if _, err := s.pool.Exec(ctx, query, e.SellerID, string(e.Platform), e.Reason); err != nil {
		return fmt.Errorf("postgres: blacklist %s/%s: %w", e.Platform, e.SellerID, err)
	}
	return nil
}

// Remove unblocks a seller.
func (s *BlacklistStore) Remove(ctx context.Context, platform domain.Platform, sellerID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM blacklist WHERE platform = $1 AND seller_id = $2`,
		string(platform), sellerID,
	)
	if err != nil {
		return fmt.Errorf("postgres: unblacklist %s/%s: %w", platform, sellerID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: unblacklist %s/%s: %w", platform, sellerID, domain.ErrNotFound)
	}
	return nil
}

// List returns every blocked seller, newest first.
func (s *BlacklistStore) List(ctx context.Context) ([]domain.BlacklistEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT seller_id, platform, reason, added_at FROM blacklist ORDER BY added_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list blacklist: %w", err)
	}
	defer rows.Close()

	var out []domain.BlacklistEntry
	for rows.Next() {
		var e domain.BlacklistEntry
		if err := rows.Scan(&e.SellerID, &e.Platform, &e.Reason, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan blacklist: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list blacklist rows: %w", err)
	}
	return out, nil
}

var _ domain.BlacklistStore = (*BlacklistStore)(nil)
