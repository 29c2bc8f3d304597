package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/echo-ledger/pkg/db"
	"github.com/FACorreiaa/echo-ledger/pkg/money"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository stores canonical rows in Postgres.
type Repository struct {
	db     db.DBTX
	logger *slog.Logger
}

// NewRepository creates a new ledger repository
func NewRepository(pool db.DBTX, logger *slog.Logger) *Repository {
	return &Repository{db: pool, logger: logger}
}

const insertRowSQL = `
	INSERT INTO ledger_rows (
		import_file, source_id, account_label, transaction_date, value_date,
		debit, credit, description, running_balance, category, opening_balance, row_key
	) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8, $9::numeric, $10, $11::numeric, $12)
	ON CONFLICT (account_label, row_key) DO NOTHING
`

// Persist inserts rows in one transaction. Rows whose (account, row key)
// already exists are skipped: exact-key matching is the only deduplication.
func (r *Repository) Persist(ctx context.Context, name string, rows []CanonicalRow) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	var inserted int64
	for _, row := range rows {
		var opening *string
		if row.OpeningBalance != nil {
			s := money.Format(*row.OpeningBalance)
			opening = &s
		}

		tag, err := tx.Exec(ctx, insertRowSQL,
			name,
			row.SourceID,
			row.AccountLabel,
			row.TransactionDate,
			row.ValueDate,
			money.Format(row.Debit),
			money.Format(row.Credit),
			row.Description,
			money.Format(row.RunningBalance),
			row.Category,
			opening,
			row.RowKey,
		)
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to insert row %s: %w", row.RowKey, err)
		}
		inserted += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rows: %w", err)
	}

	r.logger.Info("ledger rows stored", "file", name, "inserted", inserted, "duplicates", int64(len(rows))-inserted)
	return nil
}

// PriorBalance returns the running balance of the latest row of account
// strictly before date.
func (r *Repository) PriorBalance(ctx context.Context, account string, date time.Time) (decimal.Decimal, bool, error) {
	query := `
		SELECT running_balance::text
		FROM ledger_rows
		WHERE account_label = $1 AND transaction_date < $2
		ORDER BY transaction_date DESC, id DESC
		LIMIT 1
	`

	var raw string
	err := r.db.QueryRow(ctx, query, account, date).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to query prior balance: %w", err)
	}

	balance, err := money.Parse(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("invalid stored balance %q: %w", raw, err)
	}
	return balance, true, nil
}

// Uncategorized returns the rows of account without a category, oldest first.
func (r *Repository) Uncategorized(ctx context.Context, account string, limit int) ([]CanonicalRow, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT source_id, account_label, transaction_date, value_date,
			debit::text, credit::text, description, running_balance::text, row_key
		FROM ledger_rows
		WHERE account_label = $1 AND category = ''
		ORDER BY transaction_date, id
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, account, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query uncategorized rows: %w", err)
	}
	defer rows.Close()

	var out []CanonicalRow
	for rows.Next() {
		var (
			row                    CanonicalRow
			debit, credit, balance string
		)
		if err := rows.Scan(
			&row.SourceID,
			&row.AccountLabel,
			&row.TransactionDate,
			&row.ValueDate,
			&debit,
			&credit,
			&row.Description,
			&balance,
			&row.RowKey,
		); err != nil {
			return nil, err
		}
		if row.Debit, err = money.Parse(debit); err != nil {
			return nil, err
		}
		if row.Credit, err = money.Parse(credit); err != nil {
			return nil, err
		}
		if row.RunningBalance, err = money.Parse(balance); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// SetCategory records the category a human assigned to a row.
func (r *Repository) SetCategory(ctx context.Context, account, rowKey, category string) error {
	query := `UPDATE ledger_rows SET category = $3 WHERE account_label = $1 AND row_key = $2`

	tag, err := r.db.Exec(ctx, query, account, rowKey, category)
	if err != nil {
		return fmt.Errorf("failed to set category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
