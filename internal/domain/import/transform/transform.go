// Package transform turns a profiled table and its role map into canonical
// ledger rows.
//
// The work is split in two passes. Pass 1 walks the table in file order and
// produces provisional rows, mostly to learn the real date span of the file.
// Pass 2 sorts those rows by date and rebuilds the running balance from a
// confirmed opening balance. Pass 2 never mutates the output of pass 1.
package transform

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/FACorreiaa/echo-ledger/internal/domain/import/mapper"
	"github.com/FACorreiaa/echo-ledger/internal/domain/import/normalizer"
	"github.com/FACorreiaa/echo-ledger/internal/domain/import/sniffer"
	"github.com/FACorreiaa/echo-ledger/internal/domain/ledger"
	"github.com/FACorreiaa/echo-ledger/pkg/money"
	"github.com/shopspring/decimal"
)

var ErrNoRows = errors.New("no rows survived transformation")

// Config carries the per-import values that do not come from the file.
type Config struct {
	AccountLabel   string
	SourceID       string
	OpeningBalance decimal.Decimal
	// DateLayout is tried before the built-in catalogue when set.
	DateLayout string
}

// RowError is a recoverable problem with one row. The row is skipped.
type RowError struct {
	Row    int // 1-based row in the source table
	Column int
	Reason string
	Raw    string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d, column %d: %s (%q)", e.Row, e.Column, e.Reason, e.Raw)
}

// Provisional is the output of pass 1.
type Provisional struct {
	Rows      []ledger.CanonicalRow
	StartDate time.Time
	EndDate   time.Time

	// SkippedNoDate counts rows dropped because no date could be read.
	SkippedNoDate int
	Errors        []RowError
}

// Transform runs both passes using cfg.OpeningBalance as the confirmed
// opening balance.
func Transform(table sniffer.RawTable, structure *sniffer.FileStructure, roles mapper.ColumnRoleMap, cfg Config) ([]ledger.CanonicalRow, *Provisional, error) {
	prov, err := Pass1(table, structure, roles, cfg)
	if err != nil {
		return nil, prov, err
	}
	return Pass2(prov, cfg.OpeningBalance), prov, nil
}

// Pass1 reads every data row in file order. Rows without a date are skipped
// and counted; rows with an unreadable amount are skipped and reported.
// The running balance of the result is provisional.
func Pass1(table sniffer.RawTable, structure *sniffer.FileStructure, roles mapper.ColumnRoleMap, cfg Config) (*Provisional, error) {
	if err := mapper.Validate(roles, structure); err != nil {
		return nil, err
	}

	dates := normalizer.DateParser{Preferred: cfg.DateLayout}
	prov := &Provisional{}
	balance := money.Round(cfg.OpeningBalance)

	for r := structure.DataStartRowIndex; r < len(table); r++ {
		if emptyRow(table[r]) {
			continue
		}

		date, ok := dates.Parse(table.Cell(r, roles.Date))
		if !ok {
			prov.SkippedNoDate++
			continue
		}
		valueDate := date
		if roles.ValueDate != mapper.Unassigned && roles.ValueDate != roles.Date {
			if vd, ok := dates.Parse(table.Cell(r, roles.ValueDate)); ok {
				valueDate = vd
			}
		}

		debit, credit, rowErr := amounts(table, r, roles)
		if rowErr != nil {
			prov.Errors = append(prov.Errors, *rowErr)
			continue
		}

		balance = money.Round(balance.Add(debit).Add(credit))
		prov.Rows = append(prov.Rows, ledger.CanonicalRow{
			SourceID:        cfg.SourceID,
			AccountLabel:    cfg.AccountLabel,
			TransactionDate: date,
			ValueDate:       valueDate,
			Debit:           debit,
			Credit:          credit,
			Description:     normalizer.CleanDescription(sniffer.CellString(table.Cell(r, roles.Description))),
			RunningBalance:  balance,
			RowKey:          ledger.RowKey(date, balance),
		})

		if prov.StartDate.IsZero() || date.Before(prov.StartDate) {
			prov.StartDate = date
		}
		if date.After(prov.EndDate) {
			prov.EndDate = date
		}
	}

	if len(prov.Rows) == 0 {
		return prov, ErrNoRows
	}
	return prov, nil
}

// Pass2 sorts a copy of the provisional rows by date, keeping file order for
// rows on the same day, and recomputes balances and row keys from opening.
// Only the first row carries the opening balance.
func Pass2(prov *Provisional, opening decimal.Decimal) []ledger.CanonicalRow {
	rows := make([]ledger.CanonicalRow, len(prov.Rows))
	copy(rows, prov.Rows)

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TransactionDate.Before(rows[j].TransactionDate)
	})

	opening = money.Round(opening)
	balance := opening
	for i := range rows {
		balance = money.Round(balance.Add(rows[i].Debit).Add(rows[i].Credit))
		rows[i].RunningBalance = balance
		rows[i].RowKey = ledger.RowKey(rows[i].TransactionDate, balance)
		rows[i].OpeningBalance = nil
	}
	if len(rows) > 0 {
		o := opening
		rows[0].OpeningBalance = &o
	}
	return rows
}

// amounts reads the debit and credit of row r. Whatever the sign convention
// of the file, the debit comes back <= 0 and the credit >= 0.
func amounts(table sniffer.RawTable, r int, roles mapper.ColumnRoleMap) (decimal.Decimal, decimal.Decimal, *RowError) {
	if roles.Combined() {
		v, present, ok := amountCell(table.Cell(r, roles.Debit))
		switch {
		case !present:
			return decimal.Zero, decimal.Zero, rowError(table, r, roles.Debit, "missing amount")
		case !ok:
			return decimal.Zero, decimal.Zero, rowError(table, r, roles.Debit, "invalid amount")
		case v.IsNegative():
			return money.Round(v), decimal.Zero, nil
		default:
			return decimal.Zero, money.Round(v), nil
		}
	}

	var debit, credit decimal.Decimal
	var debitPresent, creditPresent bool

	if roles.Debit != mapper.Unassigned {
		v, present, ok := amountCell(table.Cell(r, roles.Debit))
		if present && !ok {
			return decimal.Zero, decimal.Zero, rowError(table, r, roles.Debit, "invalid debit")
		}
		debit, debitPresent = v.Abs().Neg(), present
	}
	if roles.Credit != mapper.Unassigned {
		v, present, ok := amountCell(table.Cell(r, roles.Credit))
		if present && !ok {
			return decimal.Zero, decimal.Zero, rowError(table, r, roles.Credit, "invalid credit")
		}
		credit, creditPresent = v.Abs(), present
	}

	if !debitPresent && !creditPresent {
		col := roles.Debit
		if col == mapper.Unassigned {
			col = roles.Credit
		}
		return decimal.Zero, decimal.Zero, rowError(table, r, col, "missing amount")
	}
	return money.Round(debit), money.Round(credit), nil
}

func amountCell(v any) (value decimal.Decimal, present, ok bool) {
	if sniffer.CellString(v) == "" {
		return decimal.Zero, false, false
	}
	value, ok = normalizer.ParseAmount(v)
	return value, true, ok
}

func rowError(table sniffer.RawTable, r, col int, reason string) *RowError {
	return &RowError{Row: r + 1, Column: col, Reason: reason, Raw: sniffer.CellString(table.Cell(r, col))}
}

func emptyRow(row []any) bool {
	for _, cell := range row {
		if sniffer.CellString(cell) != "" {
			return false
		}
	}
	return true
}
