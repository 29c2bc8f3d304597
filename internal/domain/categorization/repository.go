package categorization

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/FACorreiaa/echo-ledger/pkg/db"
)

// PostgresStore keeps one row per word in word_statistics.
type PostgresStore struct {
	db     db.DBTX
	logger *slog.Logger
}

// NewPostgresStore creates a new statistics store
func NewPostgresStore(pool db.DBTX, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{db: pool, logger: logger}
}

// Load reads every word.
func (s *PostgresStore) Load(ctx context.Context) (Statistics, error) {
	query := `
		SELECT word, total_occurrences, length, is_numeric, category_counts::text
		FROM word_statistics
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query word statistics: %w", err)
	}
	defer rows.Close()

	stats := Statistics{}
	for rows.Next() {
		var (
			word   string
			ws     WordStats
			counts string
		)
		if err := rows.Scan(&word, &ws.TotalOccurrences, &ws.Length, &ws.IsNumeric, &counts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(counts), &ws.CategoryCounts); err != nil {
			return nil, fmt.Errorf("invalid category counts for %q: %w", word, err)
		}
		if ws.CategoryCounts == nil {
			ws.CategoryCounts = map[string]int{}
		}
		stats[word] = ws
	}
	return stats, rows.Err()
}

const upsertWordSQL = `
	INSERT INTO word_statistics (word, total_occurrences, length, is_numeric, category_counts, updated_at)
	VALUES ($1, $2, $3, $4, $5::jsonb, now())
	ON CONFLICT (word) DO UPDATE SET
		total_occurrences = EXCLUDED.total_occurrences,
		length = EXCLUDED.length,
		is_numeric = EXCLUDED.is_numeric,
		category_counts = EXCLUDED.category_counts,
		updated_at = now()
`

// Save upserts every word in one transaction, in word order.
func (s *PostgresStore) Save(ctx context.Context, stats Statistics) error {
	words := make([]string, 0, len(stats))
	for w := range stats {
		words = append(words, w)
	}
	sort.Strings(words)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, w := range words {
		ws := stats[w]
		counts, err := json.Marshal(ws.CategoryCounts)
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to encode counts for %q: %w", w, err)
		}
		if _, err := tx.Exec(ctx, upsertWordSQL, w, ws.TotalOccurrences, ws.Length, ws.IsNumeric, string(counts)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to save word %q: %w", w, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit word statistics: %w", err)
	}
	s.logger.Debug("word statistics saved", "words", len(words))
	return nil
}
