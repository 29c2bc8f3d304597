package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/FACorreiaa/echo-ledger/pkg/storage"
	"github.com/shopspring/decimal"
)

// Namespace is the storage namespace holding ledger files.
const Namespace = "ledger"

const fileExt = ".csv"

var ErrNoRows = errors.New("no rows to persist")

// FileSink persists canonical rows as delimited files and answers
// prior-balance lookups from them.
type FileSink struct {
	store  storage.Storage
	logger *slog.Logger
}

// NewFileSink creates a sink on top of store.
func NewFileSink(store storage.Storage, logger *slog.Logger) *FileSink {
	return &FileSink{store: store, logger: logger}
}

// Persist writes rows under name (an extension is added when missing).
// Persisting the same name again replaces the file.
func (s *FileSink) Persist(ctx context.Context, name string, rows []CanonicalRow) error {
	if len(rows) == 0 {
		return ErrNoRows
	}
	data, err := Encode(rows)
	if err != nil {
		return err
	}

	info, err := s.store.Put(ctx, Namespace, withExt(name), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to persist %s: %w", name, err)
	}

	s.logger.Info("ledger file written", "file", info.Name, "rows", len(rows), "bytes", info.Size)
	return nil
}

// Load reads a ledger file back.
func (s *FileSink) Load(ctx context.Context, name string) ([]CanonicalRow, error) {
	rc, err := s.store.Get(ctx, Namespace, withExt(name))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return Decode(data)
}

// Files lists the ledger files of account, oldest period first.
func (s *FileSink) Files(ctx context.Context, account string) ([]string, error) {
	infos, err := s.store.List(ctx, Namespace)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, info := range infos {
		if !strings.HasSuffix(info.Name, fileExt) {
			continue
		}
		if acct, _, _, ok := ParseFileName(info.Name); ok && acct == account {
			names = append(names, info.Name)
		}
	}
	return names, nil
}

// PriorBalance returns the running balance of the latest row of account
// strictly before date. On the same date the last row in file order wins.
func (s *FileSink) PriorBalance(ctx context.Context, account string, date time.Time) (decimal.Decimal, bool, error) {
	names, err := s.Files(ctx, account)
	if err != nil {
		return decimal.Zero, false, err
	}

	var (
		found    bool
		bestDate time.Time
		balance  decimal.Decimal
	)
	for _, name := range names {
		if _, start, _, ok := ParseFileName(name); ok && !start.Before(date) {
			continue
		}

		rows, err := s.Load(ctx, name)
		if err != nil {
			s.logger.Warn("skipping unreadable ledger file", "file", name, "error", err)
			continue
		}
		for _, r := range rows {
			if !r.TransactionDate.Before(date) {
				continue
			}
			if !found || !r.TransactionDate.Before(bestDate) {
				found, bestDate, balance = true, r.TransactionDate, r.RunningBalance
			}
		}
	}
	return balance, found, nil
}

func withExt(name string) string {
	if strings.HasSuffix(name, fileExt) {
		return name
	}
	return name + fileExt
}
