// Package ledger holds the canonical transaction row and the collaborators
// that persist, look up and search canonical rows.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CanonicalRow is one normalized transaction. Debit is always <= 0 and
// Credit >= 0; only the first row of an import carries OpeningBalance.
type CanonicalRow struct {
	SourceID        string           `json:"source_id"`
	AccountLabel    string           `json:"account_label"`
	TransactionDate time.Time        `json:"transaction_date"`
	ValueDate       time.Time        `json:"value_date"`
	Debit           decimal.Decimal  `json:"debit"`
	Credit          decimal.Decimal  `json:"credit"`
	Description     string           `json:"description"`
	RunningBalance  decimal.Decimal  `json:"running_balance"`
	Category        string           `json:"category,omitempty"`
	OpeningBalance  *decimal.Decimal `json:"opening_balance,omitempty"`
	RowKey          string           `json:"row_key"`
}

// Amount is the signed movement of the row.
func (r CanonicalRow) Amount() decimal.Decimal {
	return r.Debit.Add(r.Credit)
}

// RowKey builds the natural key of a row: compact date and the absolute
// balance rounded to a whole unit.
func RowKey(date time.Time, balance decimal.Decimal) string {
	return fmt.Sprintf("%s,%s", date.Format("20060102"), balance.Abs().Round(0).String())
}

// FileName derives the suggested name of an import:
// {accountCode}_{startDate}_{endDate}.
func FileName(accountCode string, start, end time.Time) string {
	return fmt.Sprintf("%s_%s_%s", accountCode, start.Format("20060102"), end.Format("20060102"))
}

// ParseFileName splits a name produced by FileName (an extension is ignored).
func ParseFileName(name string) (account string, start, end time.Time, ok bool) {
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return "", time.Time{}, time.Time{}, false
	}
	n := len(parts)
	start, err := time.Parse("20060102", parts[n-2])
	if err != nil {
		return "", time.Time{}, time.Time{}, false
	}
	end, err = time.Parse("20060102", parts[n-1])
	if err != nil {
		return "", time.Time{}, time.Time{}, false
	}
	return strings.Join(parts[:n-2], "_"), start, end, true
}
