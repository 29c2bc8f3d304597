package categorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := ParseRegistry([]byte(`
categories:
  - code: FOOD_DRINK
    keywords: [UBER EATS, STARBUCKS]
  - code: TRANSPORT
    keywords: [UBER]
  - code: SUBSCRIPTIONS
    keywords: [NETFLIX]
  - code: ENTERTAINMENT
    keywords: [netflix]
`))
	require.NoError(t, err)
	return reg
}

func TestRuleEngine_Match(t *testing.T) {
	engine := NewRuleEngine(testRegistry(t))
	assert.Equal(t, 4, engine.PatternCount())

	t.Run("case insensitive", func(t *testing.T) {
		m := engine.Match("pos starbucks coffee #1234")
		require.NotNil(t, m)
		assert.Equal(t, "FOOD_DRINK", m.Category)
		assert.Equal(t, "STARBUCKS", m.Keyword)
	})

	t.Run("longest keyword wins", func(t *testing.T) {
		m := engine.Match("CARD UBER   EATS LISBOA")
		require.NotNil(t, m)
		assert.Equal(t, "FOOD_DRINK", m.Category)

		m = engine.Match("UBER TRIP")
		require.NotNil(t, m)
		assert.Equal(t, "TRANSPORT", m.Category)
	})

	t.Run("shared keyword resolves to registry order", func(t *testing.T) {
		m := engine.Match("NETFLIX.COM")
		require.NotNil(t, m)
		assert.Equal(t, "SUBSCRIPTIONS", m.Category)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Nil(t, engine.Match("RANDOM TRANSACTION"))
	})
}

func TestRuleEngine_Empty(t *testing.T) {
	engine := NewRuleEngine(nil)
	assert.Equal(t, 0, engine.PatternCount())
	assert.Nil(t, engine.Match("NETFLIX"))

	engine.Build(testRegistry(t))
	assert.NotNil(t, engine.Match("NETFLIX"))
}
