package categorization

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// PostgresStore tests with mock database
// ============================================================================

func TestPostgresStore_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock, discardLogger())

	mock.ExpectQuery(`SELECT word, total_occurrences`).
		WillReturnRows(pgxmock.NewRows([]string{"word", "total_occurrences", "length", "is_numeric", "category_counts"}).
			AddRow("NETFLIX", 2, 7, false, `{"SUBSCRIPTIONS": 2}`).
			AddRow("1234", 1, 4, true, `{}`))

	stats, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 2, stats["NETFLIX"].CategoryCounts["SUBSCRIPTIONS"])
	assert.True(t, stats["1234"].IsNumeric)
	assert.NotNil(t, stats["1234"].CategoryCounts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock, discardLogger())
	stats := Learn("NETFLIX ABONNEMENT", "SUBSCRIPTIONS", Statistics{})

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO word_statistics`).
		WithArgs("ABONNEMENT", 1, 10, false, `{"SUBSCRIPTIONS":1}`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO word_statistics`).
		WithArgs("NETFLIX", 1, 7, false, `{"SUBSCRIPTIONS":1}`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, store.Save(context.Background(), stats))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock, discardLogger())

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO word_statistics`).
		WithArgs("LOYER", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = store.Save(context.Background(), Learn("LOYER", "HOUSING", Statistics{}))
	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}
