package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchIndex(t *testing.T) {
	si, err := NewSearchIndex("")
	require.NoError(t, err)
	defer si.Close()

	rows := sampleRows()
	rows = append(rows, CanonicalRow{
		AccountLabel:    "CHK",
		TransactionDate: day(2024, 1, 5),
		ValueDate:       day(2024, 1, 5),
		Debit:           dec("-13.49"),
		Description:     "NETFLIX ABONNEMENT",
		RunningBalance:  dec("1286.51"),
		RowKey:          RowKey(day(2024, 1, 5), dec("1286.51")),
	})
	require.NoError(t, si.IndexRows(rows))

	count, err := si.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	hits, err := si.Search("netflx", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "CHK/20240105,1287", hits[0].Document.ID)
	assert.Equal(t, "NETFLIX ABONNEMENT", hits[0].Document.Description)
	assert.Equal(t, "-13.49", hits[0].Document.Amount)
	assert.Greater(t, hits[0].Score, 0.0)

	// Re-indexing the same rows replaces documents.
	require.NoError(t, si.IndexRows(rows))
	count, err = si.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}
