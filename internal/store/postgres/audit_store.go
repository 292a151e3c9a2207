package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// AuditStore is the append-only audit_log table.
type AuditStore struct {
	pool *pgxpool.Pool
}

func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// Log appends event with detail stored as JSONB. A nil detail is stored as
// SQL NULL.
func (s *AuditStore) Log(ctx context.Context, event string, detail map[string]any) error {
	var raw []byte
	if detail != nil {
		var err error
		if raw, err = json.Marshal(detail); err != nil {
			return fmt.Errorf("postgres: audit %s: marshal detail: %w", event, err)
		}
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO audit_log (event, detail) VALUES ($1, $2)`, event, raw,
	); err != nil {
		return fmt.Errorf("postgres: audit %s: %w", event, err)
	}
	return nil
}

// List returns entries newest first, optionally narrowed to events starting
// with eventPrefix.
func (s *AuditStore) List(ctx context.Context, eventPrefix string, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	var f filter
	if eventPrefix != "" {
		f.where("event LIKE $%d", likePrefix(eventPrefix))
	}
	f.window("created_at", opts)
	query := `SELECT id, event, detail, created_at FROM audit_log` + f.sql() +
		` ORDER BY created_at DESC, id DESC` + f.page(opts)

	rows, err := s.pool.Query(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list audit log: %w", err)
	}
	entries, err := pgx.CollectRows(rows, scanAuditEntry)
	if err != nil {
		return nil, fmt.Errorf("postgres: list audit log: %w", err)
	}
	return entries, nil
}

func scanAuditEntry(row pgx.CollectableRow) (domain.AuditEntry, error) {
	var (
		e   domain.AuditEntry
		raw []byte
	)
	if err := row.Scan(&e.ID, &e.Event, &raw, &e.CreatedAt); err != nil {
		return e, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &e.Detail); err != nil {
			return e, fmt.Errorf("decode detail of entry %d: %w", e.ID, err)
		}
	}
	return e, nil
}

// likePrefix escapes LIKE wildcards in p and appends %.
func likePrefix(p string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(p) + "%"
}

var _ domain.AuditStore = (*AuditStore)(nil)
