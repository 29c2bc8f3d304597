package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ImportFile(FileImported)
	m.ImportFile(FileImported)
	m.ImportFile(FileFailed)
	m.ImportRows(RowsImported, 12)
	m.ImportRows(RowsSkippedDate, 0)
	m.Suggestion(SuggestionRule)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.importFiles.WithLabelValues(FileImported)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importFiles.WithLabelValues(FileFailed)))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.importRows.WithLabelValues(RowsImported)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.importRows), "zero adds create no series")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.suggestions.WithLabelValues(SuggestionRule)))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ImportFile(FileImported)
		m.ImportRows(RowsImported, 1)
		m.Suggestion(SuggestionNone)
		m.ObserveImportDuration(time.Second)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveImportDuration(250 * time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ledger_import_duration_seconds_count 1")
}
