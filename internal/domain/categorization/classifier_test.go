package categorization

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Netflix abonnement", []string{"NETFLIX", "ABONNEMENT"}},
		{"CB-CARREFOUR_CITY  Paris", []string{"CB", "CARREFOUR", "CITY", "PARIS"}},
		{"a b cd", []string{"CD"}},
		{"  ", []string{}},
		{"prélèvement é", []string{"PRÉLÈVEMENT"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLearn_IsPureAndAdditive(t *testing.T) {
	empty := Statistics{}

	once := Learn("NETFLIX ABONNEMENT", "SUBSCRIPTIONS", empty)
	twice := Learn("NETFLIX ABONNEMENT", "SUBSCRIPTIONS", once)

	assert.Empty(t, empty)
	assert.Equal(t, 1, once["NETFLIX"].TotalOccurrences, "input is not mutated")
	assert.Equal(t, 2, twice["NETFLIX"].TotalOccurrences)
	assert.Equal(t, 2, twice["NETFLIX"].CategoryCounts["SUBSCRIPTIONS"])
	assert.Equal(t, 7, twice["NETFLIX"].Length)
	assert.False(t, twice["NETFLIX"].IsNumeric)
}

func TestLearn_RecategorizationKeepsOldCounts(t *testing.T) {
	stats := Learn("AMAZON PRIME", "SHOPPING", Statistics{})
	stats = Learn("AMAZON PRIME", "SUBSCRIPTIONS", stats)

	amazon := stats["AMAZON"]
	assert.Equal(t, 2, amazon.TotalOccurrences)
	assert.Equal(t, 1, amazon.CategoryCounts["SHOPPING"])
	assert.Equal(t, 1, amazon.CategoryCounts["SUBSCRIPTIONS"])
}

func TestLearn_EmptyCategoryIsNoop(t *testing.T) {
	stats := Learn("NETFLIX", "SUBSCRIPTIONS", Statistics{})
	same := Learn("SPOTIFY", "", stats)
	assert.Len(t, same, 1)
	assert.NotContains(t, same, "SPOTIFY")
}

func TestLearn_NumericWords(t *testing.T) {
	stats := Learn("CARTE 1234 CAFE", "FOOD_DRINK", Statistics{})
	require.Contains(t, stats, "1234")
	assert.True(t, stats["1234"].IsNumeric)

	scores := DefaultScorer().Score("1234", stats)
	assert.Empty(t, scores, "numeric words never score")
}

func TestScorer_Score(t *testing.T) {
	stats := Statistics{}
	stats = Learn("NETFLIX ABONNEMENT", "SUBSCRIPTIONS", stats)
	stats = Learn("CB NETFLIX", "ENTERTAINMENT", stats)

	scores := DefaultScorer().Score("CB NETFLIX", stats)

	// NETFLIX: 1/2 each. CB is short: 0.95 * 1/1 to ENTERTAINMENT.
	assert.InDelta(t, 0.5, scores["SUBSCRIPTIONS"], 1e-9)
	assert.InDelta(t, 0.5+0.95, scores["ENTERTAINMENT"], 1e-9)
}

func TestScorer_Suggest(t *testing.T) {
	stats := Learn("NETFLIX ABONNEMENT", "SUBSCRIPTIONS", Statistics{})

	t.Run("known words", func(t *testing.T) {
		sug := DefaultScorer().Suggest("prlv NETFLIX", stats)
		assert.Equal(t, "SUBSCRIPTIONS", sug.Category)
		assert.InDelta(t, 1.0, sug.Confidence, 1e-9)
		assert.True(t, sug.HasCategory())
	})

	t.Run("empty statistics", func(t *testing.T) {
		sug := DefaultScorer().Suggest("NETFLIX ABONNEMENT", Statistics{})
		assert.False(t, sug.HasCategory())
		assert.Equal(t, 0.0, sug.Confidence)
	})

	t.Run("below the floor", func(t *testing.T) {
		sc := DefaultScorer()
		sc.MinConfidence = 1.5
		sug := sc.Suggest("NETFLIX", stats)
		assert.False(t, sug.HasCategory())
		assert.Equal(t, 0.0, sug.Confidence)
	})

	t.Run("ties resolve lexically", func(t *testing.T) {
		tied := Learn("VIREMENT", "ZETA", Statistics{})
		tied = Learn("VIREMENT", "ALPHA", tied)
		sug := DefaultScorer().Suggest("VIREMENT", tied)
		assert.Equal(t, "ALPHA", sug.Category)
		assert.InDelta(t, 0.5, sug.Confidence, 1e-9)
	})
}

func TestScorer_GeneratedDescriptions(t *testing.T) {
	faker := gofakeit.New(7)
	sc := DefaultScorer()

	categories := []string{"GROCERIES", "HOUSING", "TRANSPORT"}
	stats := Statistics{}
	for i := 0; i < 300; i++ {
		stats = Learn(faker.Sentence(4), categories[i%len(categories)], stats)
	}

	for i := 0; i < 100; i++ {
		text := faker.Sentence(5)
		sug := sc.Suggest(text, stats)
		if !sug.HasCategory() {
			assert.Equal(t, 0.0, sug.Confidence)
			continue
		}
		assert.GreaterOrEqual(t, sug.Confidence, sc.MinConfidence)
		for _, score := range sug.Scores {
			assert.LessOrEqual(t, score, sug.Confidence)
		}
		assert.Equal(t, sug, sc.Suggest(text, stats), "deterministic")
	}
}
