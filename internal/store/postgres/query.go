package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// filter accumulates WHERE clauses and their positional arguments.
type filter struct {
	clauses []string
	args    []any
}

// where adds a clause; the single %d in clause becomes the next placeholder.
func (f *filter) where(clause string, arg any) {
	f.args = append(f.args, arg)
	f.clauses = append(f.clauses, fmt.Sprintf(clause, len(f.args)))
}

// window adds created-at style bounds from opts on column.
func (f *filter) window(column string, opts domain.ListOpts) {
	if opts.Since != nil {
		f.where(column+" >= $%d", *opts.Since)
	}
	if opts.Until != nil {
		f.where(column+" <= $%d", *opts.Until)
	}
}

func (f *filter) sql() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

// page renders LIMIT/OFFSET for opts, appending their arguments.
func (f *filter) page(opts domain.ListOpts) string {
	var b strings.Builder
	if opts.Limit > 0 {
		f.args = append(f.args, opts.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(f.args))
	}
	if opts.Offset > 0 {
		f.args = append(f.args, opts.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(f.args))
	}
	return b.String()
}

// notFound maps pgx.ErrNoRows to domain.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// numeric converts a decimal to pgx's native NUMERIC value so it encodes
// exactly in both text and binary (COPY) formats.
func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}
