package categorization

import (
	"testing"

	"github.com/FACorreiaa/echo-ledger/internal/domain/ledger"
	"github.com/FACorreiaa/echo-ledger/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, withRegistry bool) *Service {
	t.Helper()
	var reg *Registry
	if withRegistry {
		reg = testRegistry(t)
	}
	vocab := NewVocabulary(newFileStore(t), DefaultScorer(), discardLogger())
	return NewService(vocab, reg, metrics.New(), discardLogger())
}

func TestService_Suggest(t *testing.T) {
	svc := newTestService(t, true)

	t.Run("keyword rule without statistics", func(t *testing.T) {
		sug := svc.Suggest("PRLV NETFLIX")
		assert.Equal(t, "SUBSCRIPTIONS", sug.Category)
		assert.Equal(t, 1.0, sug.Confidence)
		assert.Equal(t, SourceRule, sug.Source)
	})

	t.Run("no rule and no statistics", func(t *testing.T) {
		sug := svc.Suggest("LOYER JANVIER")
		assert.False(t, sug.HasCategory())
	})

	t.Run("learned statistics", func(t *testing.T) {
		code, err := svc.Learn("LOYER JANVIER", "transport")
		require.NoError(t, err)
		assert.Equal(t, "TRANSPORT", code)

		sug := svc.Suggest("LOYER FEVRIER")
		assert.Equal(t, "TRANSPORT", sug.Category)
		assert.Equal(t, SourceStatistics, sug.Source)
	})
}

func TestService_Suggest_LearnedOverridesKeyword(t *testing.T) {
	svc := newTestService(t, true)

	before := svc.Suggest("STARBUCKS REWARDS MEMBERSHIP")
	require.Equal(t, SourceRule, before.Source)
	require.Equal(t, "FOOD_DRINK", before.Category)

	for range 20 {
		_, err := svc.Learn("STARBUCKS REWARDS MEMBERSHIP", "SUBSCRIPTIONS")
		require.NoError(t, err)
	}

	after := svc.Suggest("STARBUCKS REWARDS MEMBERSHIP")
	assert.Equal(t, "SUBSCRIPTIONS", after.Category)
	assert.Equal(t, SourceStatistics, after.Source)

	other := svc.Suggest("PRLV NETFLIX")
	assert.Equal(t, "SUBSCRIPTIONS", other.Category)
	assert.Equal(t, SourceRule, other.Source, "unrelated descriptions still use the keywords")
}

func TestService_Learn(t *testing.T) {
	t.Run("unknown category with a registry", func(t *testing.T) {
		svc := newTestService(t, true)
		_, err := svc.Learn("LOYER", "qqqqqq")
		assert.ErrorIs(t, err, ErrUnknownCategory)
		assert.Equal(t, 0, svc.Vocabulary().Size())
	})

	t.Run("free text without a registry", func(t *testing.T) {
		svc := newTestService(t, false)
		code, err := svc.Learn("LOYER", "Rent")
		require.NoError(t, err)
		assert.Equal(t, "Rent", code)
		assert.Equal(t, 1, svc.Vocabulary().Size())
	})
}

func TestService_SuggestRows(t *testing.T) {
	svc := newTestService(t, true)

	rows := []ledger.CanonicalRow{
		{RowKey: "a", Description: "NETFLIX"},
		{RowKey: "b", Description: "STARBUCKS", Category: "FOOD_DRINK"},
		{RowKey: "c", Description: "SOMETHING ELSE"},
	}

	got := svc.SuggestRows(rows)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].RowKey)
	assert.Equal(t, "SUBSCRIPTIONS", got[0].Suggestion.Category)
	assert.Equal(t, "c", got[1].RowKey)
	assert.False(t, got[1].Suggestion.HasCategory())
}
