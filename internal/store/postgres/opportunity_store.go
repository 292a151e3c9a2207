package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates a new OpportunityStore backed by the given connection pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const opportunityCols = `id, source_platform, target_platform,
	source_product_id, target_product_id, product_title,
	source_price, target_price, source_shipping, target_shipping,
	source_fee, target_fee, source_url, target_url,
	net_profit, roi_percentage, source_seller_rating, target_seller_rating,
	source_stock, demand_score, risk_score, created_at, status, notes`

// SaveBatch inserts opportunities in a single batch. Rows whose id already
// exists are skipped. It returns how many rows were inserted.
func (s *OpportunityStore) SaveBatch(ctx context.Context, opps []domain.Opportunity) (int, error) {
	if len(opps) == 0 {
		return 0, nil
	}

	const query = `
		INSERT INTO opportunities (` + opportunityCols + `) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14,
			$15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24
		) ON CONFLICT (id) DO NOTHING`

	batch := &pgx.Batch{}
	for _, o := range opps {
		batch.Queue(query,
			o.ID, string(o.SourcePlatform), string(o.TargetPlatform),
			o.SourceProductID, o.TargetProductID, o.ProductTitle,
			numeric(o.SourcePrice), numeric(o.TargetPrice), numeric(o.SourceShipping), numeric(o.TargetShipping),
			numeric(o.SourceFee), numeric(o.TargetFee), o.SourceURL, o.TargetURL,
			numeric(o.NetProfit), o.ROIPercentage, o.SourceRating, o.TargetRating,
			o.SourceStock, o.DemandScore, o.RiskScore, o.CreatedAt, string(o.Status), o.Notes,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	saved := 0
	for _, o := range opps {
		tag, err := br.Exec()
		if err != nil {
			return saved, fmt.Errorf("postgres: save opportunity %s: %w", o.ID, err)
		}
		saved += int(tag.RowsAffected())
	}
	return saved, nil
}

// GetByID returns a single opportunity.
func (s *OpportunityStore) GetByID(ctx context.Context, id string) (domain.Opportunity, error) {
	query := `SELECT ` + opportunityCols + ` FROM opportunities WHERE id = $1`
	o, err := scanOpportunity(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Opportunity{}, fmt.Errorf("postgres: get opportunity %s: %w", id, notFound(err))
	}
	return o, nil
}

// ListByStatus returns opportunities newest first. An empty status matches
// every status.
func (s *OpportunityStore) ListByStatus(ctx context.Context, status domain.OpportunityStatus, opts domain.ListOpts) ([]domain.Opportunity, error) {
	var f filter
	if status != "" {
		f.where("status = $%d", string(status))
	}
	f.window("created_at", opts)

	query := `SELECT ` + opportunityCols + ` FROM opportunities` + f.sql() +
		` ORDER BY created_at DESC, net_profit DESC` + f.page(opts)
	return s.list(ctx, "list opportunities", query, f.args...)
}

// UpdateStatus moves an opportunity from one status to another. It fails
// with domain.ErrInvalidTransition when the row is not currently in from.
func (s *OpportunityStore) UpdateStatus(ctx context.Context, id string, from, to domain.OpportunityStatus) error {
	const query = `UPDATE opportunities SET status = $3 WHERE id = $1 AND status = $2`

	tag, err := s.pool.Exec(ctx, query, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("postgres: update opportunity status %s: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM opportunities WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("postgres: check opportunity %s: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("postgres: update opportunity status %s: %w", id, domain.ErrNotFound)
	}
	return fmt.Errorf("postgres: update opportunity status %s: %w", id, domain.ErrInvalidTransition)
}

// UpdateNotes replaces the operator notes on an opportunity.
func (s *OpportunityStore) UpdateNotes(ctx context.Context, id, notes string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE opportunities SET notes = $2 WHERE id = $1`, id, notes)
	if err != nil {
		return fmt.Errorf("postgres: update opportunity notes %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: update opportunity notes %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListBefore returns every opportunity created before the cutoff, oldest first.
func (s *OpportunityStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Opportunity, error) {
	query := `SELECT ` + opportunityCols + ` FROM opportunities WHERE created_at < $1 ORDER BY created_at`
	return s.list(ctx, "list opportunities before", query, before)
}

// DeleteBefore removes opportunities created before the cutoff.
func (s *OpportunityStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM opportunities WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete opportunities before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

func (s *OpportunityStore) list(ctx context.Context, op, query string, args ...any) ([]domain.Opportunity, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	defer rows.Close()

	var out []domain.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: %s: scan: %w", op, err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: %s rows: %w", op, err)
	}
	return out, nil
}

func scanOpportunity(row pgx.Row) (domain.Opportunity, error) {
	var o domain.Opportunity
	err := row.Scan(
		&o.ID, &o.SourcePlatform, &o.TargetPlatform,
		&o.SourceProductID, &o.TargetProductID, &o.ProductTitle,
		&o.SourcePrice, &o.TargetPrice, &o.SourceShipping, &o.TargetShipping,
		&o.SourceFee, &o.TargetFee, &o.SourceURL, &o.TargetURL,
		&o.NetProfit, &o.ROIPercentage, &o.SourceRating, &o.TargetRating,
		&o.SourceStock, &o.DemandScore, &o.RiskScore, &o.CreatedAt, &o.Status, &o.Notes,
	)
	return o, err
}

var _ domain.OpportunityStore = (*OpportunityStore)(nil)
