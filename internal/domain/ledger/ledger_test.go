package ledger

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/FACorreiaa/echo-ledger/pkg/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRows() []CanonicalRow {
	opening := dec("100")
	return []CanonicalRow{
		{
			SourceID:        "src-1",
			AccountLabel:    "CHK",
			TransactionDate: day(2024, 1, 1),
			ValueDate:       day(2024, 1, 1),
			Debit:           decimal.Zero,
			Credit:          dec("2000"),
			Description:     "SALAIRE",
			RunningBalance:  dec("2100"),
			OpeningBalance:  &opening,
			RowKey:          RowKey(day(2024, 1, 1), dec("2100")),
		},
		{
			SourceID:        "src-1",
			AccountLabel:    "CHK",
			TransactionDate: day(2024, 1, 2),
			ValueDate:       day(2024, 1, 3),
			Debit:           dec("-800"),
			Credit:          decimal.Zero,
			Description:     "LOYER; JANVIER",
			RunningBalance:  dec("1300"),
			Category:        "HOUSING",
			RowKey:          RowKey(day(2024, 1, 2), dec("1300")),
		},
	}
}

func TestRowKey(t *testing.T) {
	assert.Equal(t, "20240101,2100", RowKey(day(2024, 1, 1), dec("2100.00")))
	assert.Equal(t, "20240101,46", RowKey(day(2024, 1, 1), dec("-45.50")))
	assert.Equal(t, "20241231,0", RowKey(day(2024, 12, 31), dec("0.49")))
}

func TestFileName(t *testing.T) {
	name := FileName("CHK_SAV", day(2024, 1, 1), day(2024, 1, 31))
	assert.Equal(t, "CHK_SAV_20240101_20240131", name)

	account, start, end, ok := ParseFileName(name + ".csv")
	require.True(t, ok)
	assert.Equal(t, "CHK_SAV", account)
	assert.Equal(t, day(2024, 1, 1), start)
	assert.Equal(t, day(2024, 1, 31), end)

	_, _, _, ok = ParseFileName("notes.txt")
	assert.False(t, ok)
}

func TestEncode(t *testing.T) {
	data, err := Encode(sampleRows())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t,
		"source_id;account_label;transaction_date;value_date;debit;credit;description;running_balance;category;opening_balance;row_key",
		lines[0])
	assert.Equal(t,
		"src-1;CHK;2024-01-01;2024-01-01;0.00;2000.00;SALAIRE;2100.00;;100.00;20240101,2100",
		lines[1])
	assert.Equal(t,
		`src-1;CHK;2024-01-02;2024-01-03;-800.00;0.00;"LOYER; JANVIER";1300.00;HOUSING;;20240102,1300`,
		lines[2])
}

func TestDecode(t *testing.T) {
	data, err := Encode(sampleRows())
	require.NoError(t, err)

	rows, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, day(2024, 1, 2), rows[1].TransactionDate)
	assert.Equal(t, day(2024, 1, 3), rows[1].ValueDate)
	assert.Equal(t, "LOYER; JANVIER", rows[1].Description)
	assert.Equal(t, "-800.00", rows[1].Debit.StringFixed(2))
	assert.Equal(t, "1300.00", rows[1].RunningBalance.StringFixed(2))
	assert.Nil(t, rows[1].OpeningBalance)
	require.NotNil(t, rows[0].OpeningBalance)
	assert.Equal(t, "100.00", rows[0].OpeningBalance.StringFixed(2))

	_, err = Decode([]byte("source_id;account_label;transaction_date;value_date;debit;credit;description;running_balance;category;opening_balance;row_key\nx;CHK;nope;2024-01-01;0;0;d;0;;;k\n"))
	assert.Error(t, err)
}

func newSink(t *testing.T) *FileSink {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewFileSink(store, discardLogger())
}

func TestFileSink_PersistAndLoad(t *testing.T) {
	ctx := context.Background()
	sink := newSink(t)

	name := FileName("CHK", day(2024, 1, 1), day(2024, 1, 2))
	require.NoError(t, sink.Persist(ctx, name, sampleRows()))

	rows, err := sink.Load(ctx, name)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	files, err := sink.Files(ctx, "CHK")
	require.NoError(t, err)
	assert.Equal(t, []string{name + ".csv"}, files)

	assert.ErrorIs(t, sink.Persist(ctx, name, nil), ErrNoRows)

	_, err = sink.Load(ctx, "CHK_20990101_20990102")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileSink_PriorBalance(t *testing.T) {
	ctx := context.Background()
	sink := newSink(t)

	jan := sampleRows()
	require.NoError(t, sink.Persist(ctx, FileName("CHK", day(2024, 1, 1), day(2024, 1, 2)), jan))

	feb := []CanonicalRow{
		{AccountLabel: "CHK", TransactionDate: day(2024, 2, 5), ValueDate: day(2024, 2, 5), Debit: dec("-10"), RunningBalance: dec("1290"), RowKey: "a"},
		{AccountLabel: "CHK", TransactionDate: day(2024, 2, 5), ValueDate: day(2024, 2, 5), Debit: dec("-90"), RunningBalance: dec("1200"), RowKey: "b"},
	}
	require.NoError(t, sink.Persist(ctx, FileName("CHK", day(2024, 2, 5), day(2024, 2, 5)), feb))

	other := []CanonicalRow{
		{AccountLabel: "SAV", TransactionDate: day(2024, 1, 15), ValueDate: day(2024, 1, 15), Credit: dec("5"), RunningBalance: dec("99999"), RowKey: "c"},
	}
	require.NoError(t, sink.Persist(ctx, FileName("SAV", day(2024, 1, 15), day(2024, 1, 15)), other))

	tests := []struct {
		name      string
		date      time.Time
		want      string
		wantFound bool
	}{
		{"before any row", day(2024, 1, 1), "", false},
		{"strictly before the date", day(2024, 1, 2), "2100.00", true},
		{"end of first file", day(2024, 2, 1), "1300.00", true},
		{"same date resolves to last row", day(2024, 3, 1), "1200.00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := sink.PriorBalance(ctx, "CHK", tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, tt.want, got.StringFixed(2))
			}
		})
	}
}
