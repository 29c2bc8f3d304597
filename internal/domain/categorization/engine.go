package categorization

import (
	"strings"
	"sync"

	"github.com/FACorreiaa/echo-ledger/internal/domain/import/normalizer"
	"github.com/cloudflare/ahocorasick"
)

// RuleMatch is a keyword hit.
type RuleMatch struct {
	Keyword  string
	Category string
	// Priority is the keyword length: longer keywords are more specific.
	Priority int
	order    int
}

// RuleEngine matches every registry keyword against a description in a
// single pass using the Aho-Corasick algorithm.
type RuleEngine struct {
	matcher  *ahocorasick.Matcher
	patterns []string
	metadata [][]RuleMatch // per pattern; one keyword may belong to several categories
	mu       sync.RWMutex
}

// NewRuleEngine builds an engine from the registry keywords.
func NewRuleEngine(reg *Registry) *RuleEngine {
	e := &RuleEngine{}
	e.Build(reg)
	return e
}

// Build rebuilds the matcher. A nil registry empties the engine.
func (e *RuleEngine) Build(reg *Registry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.matcher, e.patterns, e.metadata = nil, nil, nil
	if reg == nil {
		return
	}

	patternToIndex := make(map[string]int)
	order := 0
	for _, c := range reg.Categories {
		for _, kw := range c.Keywords {
			pattern := strings.ToUpper(strings.TrimSpace(kw))
			if pattern == "" {
				continue
			}
			match := RuleMatch{Keyword: pattern, Category: c.Code, Priority: len([]rune(pattern)), order: order}
			order++

			if idx, ok := patternToIndex[pattern]; ok {
				e.metadata[idx] = append(e.metadata[idx], match)
				continue
			}
			patternToIndex[pattern] = len(e.patterns)
			e.patterns = append(e.patterns, pattern)
			e.metadata = append(e.metadata, []RuleMatch{match})
		}
	}

	if len(e.patterns) == 0 {
		return
	}
	bytePatterns := make([][]byte, len(e.patterns))
	for i, p := range e.patterns {
		bytePatterns[i] = []byte(p)
	}
	e.matcher = ahocorasick.NewMatcher(bytePatterns)
}

// Match returns the most specific keyword hit in description, or nil.
// Equal priorities resolve to the keyword listed first in the registry.
func (e *RuleEngine) Match(description string) *RuleMatch {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.matcher == nil {
		return nil
	}

	normalized := strings.ToUpper(normalizer.CleanDescription(description))
	hits := e.matcher.Match([]byte(normalized))

	var best *RuleMatch
	for _, idx := range hits {
		if idx < 0 || idx >= len(e.metadata) {
			continue
		}
		for i := range e.metadata[idx] {
			m := e.metadata[idx][i]
			if best == nil || m.Priority > best.Priority || (m.Priority == best.Priority && m.order < best.order) {
				matchCopy := m
				best = &matchCopy
			}
		}
	}
	return best
}

// PatternCount returns the number of distinct keywords.
func (e *RuleEngine) PatternCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.patterns)
}
