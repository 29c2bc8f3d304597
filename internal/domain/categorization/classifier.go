// Package categorization suggests a category for a transaction description.
//
// The statistical part is an online bag-of-words model: every word keeps how
// often it was seen and with which categories. Learning only ever adds
// counts. Re-categorizing a transaction adds counts toward the new category
// and leaves the old ones in place.
package categorization

import (
	"sort"
	"strings"
	"unicode"

	"github.com/FACorreiaa/echo-ledger/internal/domain/import/normalizer"
)

const minTokenLength = 2

// WordStats is what the vocabulary knows about one word.
type WordStats struct {
	TotalOccurrences int            `json:"total_occurrences"`
	Length           int            `json:"length"`
	IsNumeric        bool           `json:"is_numeric"`
	CategoryCounts   map[string]int `json:"category_counts"`
}

// Statistics maps an uppercase word to its stats.
type Statistics map[string]WordStats

// Clone returns a deep copy.
func (s Statistics) Clone() Statistics {
	out := make(Statistics, len(s))
	for word, ws := range s {
		counts := make(map[string]int, len(ws.CategoryCounts))
		for c, n := range ws.CategoryCounts {
			counts[c] = n
		}
		ws.CategoryCounts = counts
		out[word] = ws
	}
	return out
}

// Tokenize uppercases text and splits it on whitespace, '-' and '_'.
// Tokens shorter than two characters are dropped.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToUpper(text), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= minTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Learn returns a copy of stats updated with one categorized description.
// stats itself is never modified. An empty category learns nothing.
func Learn(text, category string, stats Statistics) Statistics {
	if category == "" {
		return stats
	}

	out := stats.Clone()
	for _, word := range Tokenize(text) {
		ws, ok := out[word]
		if !ok {
			ws = WordStats{
				Length:         len([]rune(word)),
				IsNumeric:      normalizer.IsNumericText(word),
				CategoryCounts: make(map[string]int),
			}
		}
		ws.TotalOccurrences++
		ws.CategoryCounts[category]++
		out[word] = ws
	}
	return out
}

// Suggestion is the ranked answer for one description. An empty Category
// means no suggestion.
type Suggestion struct {
	Category   string             `json:"category,omitempty"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores,omitempty"`
	Source     string             `json:"source,omitempty"`
}

// Suggestion sources.
const (
	SourceStatistics = "statistics"
	SourceRule       = "rule"
)

// HasCategory reports whether a category was suggested.
func (s Suggestion) HasCategory() bool {
	return s.Category != ""
}

// Scorer holds the tunable constants of the model.
type Scorer struct {
	// ShortWordWeight applies to words shorter than ShortWordLength.
	ShortWordWeight float64
	ShortWordLength int
	// MinConfidence is the lowest winning score that still yields a suggestion.
	MinConfidence float64
}

// DefaultScorer returns the stock constants: 0.95 below 4 characters, 0.1 floor.
func DefaultScorer() Scorer {
	return Scorer{ShortWordWeight: 0.95, ShortWordLength: 4, MinConfidence: 0.1}
}

// Score adds, for every known non-numeric word of text, the word's share of
// each category weighted by its length class.
func (sc Scorer) Score(text string, stats Statistics) map[string]float64 {
	scores := make(map[string]float64)
	for _, word := range Tokenize(text) {
		ws, ok := stats[word]
		if !ok || ws.IsNumeric || ws.TotalOccurrences <= 0 {
			continue
		}

		weight := 1.0
		if ws.Length < sc.ShortWordLength {
			weight = sc.ShortWordWeight
		}
		for category, count := range ws.CategoryCounts {
			scores[category] += weight * float64(count) / float64(ws.TotalOccurrences)
		}
	}
	return scores
}

// Suggest returns the best scoring category, or none when the best score is
// below MinConfidence. Equal scores resolve to the lexically smallest name.
func (sc Scorer) Suggest(text string, stats Statistics) Suggestion {
	scores := sc.Score(text, stats)

	categories := make([]string, 0, len(scores))
	for c := range scores {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var (
		best      string
		bestScore float64
	)
	for _, c := range categories {
		if scores[c] > bestScore {
			best, bestScore = c, scores[c]
		}
	}

	if best == "" || bestScore < sc.MinConfidence {
		return Suggestion{Scores: scores, Source: SourceStatistics}
	}
	return Suggestion{Category: best, Confidence: bestScore, Scores: scores, Source: SourceStatistics}
}
