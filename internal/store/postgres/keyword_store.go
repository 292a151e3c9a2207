package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

// KeywordStore implements domain.KeywordStore using PostgreSQL.
type KeywordStore struct {
	pool *pgxpool.Pool
}

// NewKeywordStore creates a new KeywordStore backed by the given connection pool.
func NewKeywordStore(pool *pgxpool.Pool) *KeywordStore {
	return &KeywordStore{pool: pool}
}

// RecordSearch folds one search into the keyword's running statistics. The
// average profit is weighted by the number of opportunities found.
func (s *KeywordStore) RecordSearch(ctx context.Context, keyword, platform string, results, found int, avgProfit float64) error {
	const query = `
		INSERT INTO keyword_stats (
			keyword, platform, search_count, total_results,
			opportunities_found, avg_profit, last_searched
		) VALUES ($1, $2, 1, $3, $4, $5, NOW())
		ON CONFLICT (keyword, platform) DO UPDATE SET
			search_count        = keyword_stats.search_count + 1,
			total_results       = keyword_stats.total_results + EXCLUDED.total_results,
			opportunities_found = keyword_stats.opportunities_found + EXCLUDED.opportunities_found,
			avg_profit = CASE
				WHEN keyword_stats.opportunities_found + EXCLUDED.opportunities_found = 0 THEN 0
				ELSE (keyword_stats.avg_profit * keyword_stats.opportunities_found
				      + EXCLUDED.avg_profit * EXCLUDED.opportunities_found)
				     / (keyword_stats.opportunities_found + EXCLUDED.opportunities_found)
			END,
			last_searched = NOW()`

	if _, err := s.pool.Exec(ctx, query, keyword, platform, results, found, avgProfit); err != nil {
		return fmt.Errorf("postgres: record keyword %q: %w", keyword, err)
	}
	return nil
}

// Top returns the most productive keywords.
func (s *KeywordStore) Top(ctx context.Context, limit int) ([]domain.KeywordStats, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT keyword, platform, search_count, total_results,
		       opportunities_found, avg_profit, last_searched
		FROM keyword_stats
		ORDER BY opportunities_found DESC, avg_profit DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: top keywords: %w", err)
	}
	defer rows.Close()

	var out []domain.KeywordStats
	for rows.Next() {
		var k domain.KeywordStats
		if err := rows.Scan(
			&k.Keyword, &k.Platform, &k.SearchCount, &k.TotalResults,
			&k.OpportunitiesFound, &k.AvgProfit, &k.LastSearched,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan keyword: %w", err)
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: top keywords rows: %w", err)
	}
	return out, nil
}

var _ domain.KeywordStore = (*KeywordStore)(nil)
