package ledger

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/FACorreiaa/echo-ledger/pkg/money"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// Separator is the field separator of persisted ledger files.
const Separator = ';'

const dateLayout = "2006-01-02"

// record is the on-disk shape of a CanonicalRow; field order is the column
// order of the file.
type record struct {
	SourceID        string `csv:"source_id"`
	AccountLabel    string `csv:"account_label"`
	TransactionDate string `csv:"transaction_date"`
	ValueDate       string `csv:"value_date"`
	Debit           string `csv:"debit"`
	Credit          string `csv:"credit"`
	Description     string `csv:"description"`
	RunningBalance  string `csv:"running_balance"`
	Category        string `csv:"category"`
	OpeningBalance  string `csv:"opening_balance"`
	RowKey          string `csv:"row_key"`
}

func toRecord(r CanonicalRow) *record {
	rec := &record{
		SourceID:        r.SourceID,
		AccountLabel:    r.AccountLabel,
		TransactionDate: r.TransactionDate.Format(dateLayout),
		ValueDate:       r.ValueDate.Format(dateLayout),
		Debit:           money.Format(r.Debit),
		Credit:          money.Format(r.Credit),
		Description:     r.Description,
		RunningBalance:  money.Format(r.RunningBalance),
		Category:        r.Category,
		RowKey:          r.RowKey,
	}
	if r.OpeningBalance != nil {
		rec.OpeningBalance = money.Format(*r.OpeningBalance)
	}
	return rec
}

func fromRecord(rec *record) (CanonicalRow, error) {
	row := CanonicalRow{
		SourceID:     rec.SourceID,
		AccountLabel: rec.AccountLabel,
		Description:  rec.Description,
		Category:     rec.Category,
		RowKey:       rec.RowKey,
	}

	var err error
	if row.TransactionDate, err = time.Parse(dateLayout, rec.TransactionDate); err != nil {
		return row, fmt.Errorf("transaction_date: %w", err)
	}
	if row.ValueDate, err = time.Parse(dateLayout, rec.ValueDate); err != nil {
		return row, fmt.Errorf("value_date: %w", err)
	}
	if row.Debit, err = money.Parse(rec.Debit); err != nil {
		return row, fmt.Errorf("debit: %w", err)
	}
	if row.Credit, err = money.Parse(rec.Credit); err != nil {
		return row, fmt.Errorf("credit: %w", err)
	}
	if row.RunningBalance, err = money.Parse(rec.RunningBalance); err != nil {
		return row, fmt.Errorf("running_balance: %w", err)
	}
	if rec.OpeningBalance != "" {
		var opening decimal.Decimal
		if opening, err = money.Parse(rec.OpeningBalance); err != nil {
			return row, fmt.Errorf("opening_balance: %w", err)
		}
		row.OpeningBalance = &opening
	}
	return row, nil
}

// Encode renders rows as a ';'-separated table with a header line. Amounts
// carry exactly two decimals.
func Encode(rows []CanonicalRow) ([]byte, error) {
	records := make([]*record, 0, len(rows))
	for _, r := range rows {
		records = append(records, toRecord(r))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = Separator
	if err := gocsv.MarshalCSV(&records, gocsv.NewSafeCSVWriter(w)); err != nil {
		return nil, fmt.Errorf("failed to encode ledger rows: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a table produced by Encode.
func Decode(data []byte) ([]CanonicalRow, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = Separator

	var records []*record
	if err := gocsv.UnmarshalCSV(r, &records); err != nil {
		return nil, fmt.Errorf("failed to decode ledger rows: %w", err)
	}

	rows := make([]CanonicalRow, 0, len(records))
	for i, rec := range records {
		row, err := fromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
