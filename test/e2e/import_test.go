// Package e2etest provides end-to-end integration tests for import flows.
package e2etest

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/echo-ledger/internal/domain/categorization"
	importservice "github.com/FACorreiaa/echo-ledger/internal/domain/import/service"
	"github.com/FACorreiaa/echo-ledger/internal/domain/ledger"
	"github.com/FACorreiaa/echo-ledger/pkg/metrics"
	"github.com/FACorreiaa/echo-ledger/pkg/money"
	"github.com/FACorreiaa/echo-ledger/pkg/storage"
)

type harness struct {
	sink      *ledger.FileSink
	importSvc *importservice.ImportService
	catSvc    *categorization.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	reg, err := categorization.DefaultRegistry()
	require.NoError(t, err)

	sink := ledger.NewFileSink(local, logger)
	vocab := categorization.NewVocabulary(categorization.NewFileStore(local, ""), categorization.DefaultScorer(), logger)
	return &harness{
		sink:      sink,
		importSvc: importservice.NewImportService(importservice.AutoResolver{}, sink, sink, metrics.New(), logger),
		catSvc:    categorization.NewService(vocab, reg, nil, logger),
	}
}

// TestGeneratedStatement_ImportAndCategorize imports a generated Portuguese
// export with a preamble, decimal commas and split debit/credit columns.
func TestGeneratedStatement_ImportAndCategorize(t *testing.T) {
	h := newHarness(t)
	gen := money.NewTestDataGeneratorWithSeed(7)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	txs := gen.Statement(start, 45)

	opening := decimal.RequireFromString("1500.00")
	data := money.RenderStatement(txs, money.PortugueseStyle)

	res, err := h.importSvc.Import(t.Context(), importservice.ImportRequest{
		Name:           "extrato.csv",
		Data:           data,
		AccountLabel:   "CHK",
		OpeningBalance: opening,
	})
	require.NoError(t, err)

	t.Run("Summary", func(t *testing.T) {
		assert.Equal(t, len(txs), res.RowsImported)
		assert.Zero(t, res.RowsFailed)
		assert.Equal(t, ledger.FileName("CHK", start, start.AddDate(0, 0, 44)), res.FileName)

		want := opening
		for _, tx := range txs {
			want = want.Add(tx.Amount)
		}
		assert.Equal(t, money.Format(want), money.Format(res.ClosingBalance))
	})

	rows, err := h.sink.Load(t.Context(), res.FileName)
	require.NoError(t, err)
	require.Len(t, rows, len(txs))

	t.Run("Rows", func(t *testing.T) {
		prev := opening
		for i, r := range rows {
			assert.Equal(t, txs[i].Description, r.Description, "row %d", i)
			assert.True(t, r.Amount().Equal(txs[i].Amount), "row %d amount", i)
			assert.True(t, prev.Add(r.Amount()).Equal(r.RunningBalance), "row %d balance", i)
			prev = r.RunningBalance
		}
	})

	t.Run("Categories", func(t *testing.T) {
		suggestions := h.catSvc.SuggestRows(rows)
		require.Len(t, suggestions, len(rows))
		for i, s := range suggestions {
			assert.Equal(t, txs[i].Category, s.Suggestion.Category, s.Description)
			assert.Equal(t, categorization.SourceRule, s.Suggestion.Source)
		}
	})

	t.Run("NextStatementContinuesBalance", func(t *testing.T) {
		next := start.AddDate(0, 0, 45)
		more := gen.Statement(next, 10)

		second, err := h.importSvc.Import(t.Context(), importservice.ImportRequest{
			Name:         "extrato-2.csv",
			Data:         money.RenderStatement(more, money.PortugueseStyle),
			AccountLabel: "CHK",
		})
		require.NoError(t, err)
		assert.Equal(t, money.Format(res.ClosingBalance), money.Format(second.OpeningBalance))

		files, err := h.sink.Files(t.Context(), "CHK")
		require.NoError(t, err)
		assert.Len(t, files, 2)
	})
}

// TestLearnedVocabulary_SuggestsForUnknownMerchants teaches the classifier
// with generated merchants outside the keyword rules.
func TestLearnedVocabulary_SuggestsForUnknownMerchants(t *testing.T) {
	h := newHarness(t)

	training := []struct{ description, category string }{
		{"PADARIA PORTUGUESA CHIADO", "Food & Drink"},
		{"PADARIA ESTRELA", "Food & Drink"},
		{"GINASIO FITNESS HUT", "Health"},
	}
	for _, tr := range training {
		_, err := h.catSvc.Learn(tr.description, tr.category)
		require.NoError(t, err)
	}

	got := h.catSvc.Suggest("PADARIA DO BAIRRO")
	assert.Equal(t, "FOOD_DRINK", got.Category)
	assert.Equal(t, categorization.SourceStatistics, got.Source)

	got = h.catSvc.Suggest("FITNESS HUT LISBOA")
	assert.Equal(t, "HEALTH", got.Category)

	wrote, err := h.catSvc.Vocabulary().Flush(t.Context())
	require.NoError(t, err)
	assert.True(t, wrote)
}
