package categorization

import (
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/echo-ledger/internal/domain/ledger"
	"github.com/FACorreiaa/echo-ledger/pkg/metrics"
)

// RowSuggestion pairs a ledger row with its suggestion.
type RowSuggestion struct {
	RowKey      string     `json:"row_key"`
	Description string     `json:"description"`
	Suggestion  Suggestion `json:"suggestion"`
}

// Service combines registry keyword rules with the learned vocabulary.
type Service struct {
	vocab    *Vocabulary
	registry *Registry
	rules    *RuleEngine
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewService creates a new categorization service. registry may be nil, in
// which case categories are free text and no keyword rules apply.
func NewService(vocab *Vocabulary, registry *Registry, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		vocab:    vocab,
		registry: registry,
		rules:    NewRuleEngine(registry),
		metrics:  m,
		logger:   logger,
	}
}

// Vocabulary returns the underlying vocabulary.
func (s *Service) Vocabulary() *Vocabulary {
	return s.vocab
}

// Registry returns the registry, possibly nil.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Suggest returns the statistical suggestion when the learned vocabulary
// has one, otherwise a keyword rule hit with full confidence. Human
// assignments therefore override the registry keywords. Never fails: no
// suggestion is a normal answer.
func (s *Service) Suggest(description string) Suggestion {
	sug := s.vocab.Suggest(description)
	if sug.HasCategory() {
		s.metrics.Suggestion(metrics.SuggestionSuggested)
		return sug
	}

	if m := s.rules.Match(description); m != nil {
		s.metrics.Suggestion(metrics.SuggestionRule)
		return Suggestion{
			Category:   m.Category,
			Confidence: 1.0,
			Scores:     map[string]float64{m.Category: 1.0},
			Source:     SourceRule,
		}
	}

	s.metrics.Suggestion(metrics.SuggestionNone)
	return sug
}

// SuggestRows suggests a category for every row that has none yet.
func (s *Service) SuggestRows(rows []ledger.CanonicalRow) []RowSuggestion {
	var out []RowSuggestion
	for _, r := range rows {
		if r.Category != "" {
			continue
		}
		out = append(out, RowSuggestion{
			RowKey:      r.RowKey,
			Description: r.Description,
			Suggestion:  s.Suggest(r.Description),
		})
	}
	return out
}

// Learn records a human category assignment and returns the category code
// that was learned. With a registry the input is resolved to a code first.
func (s *Service) Learn(description, category string) (string, error) {
	code := category
	if s.registry != nil {
		c, ok := s.registry.Resolve(category)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
		}
		code = c.Code
	}

	if !s.vocab.Assign(description, code) {
		s.logger.Debug("nothing to learn", "description", description, "category", code)
		return code, nil
	}
	s.logger.Debug("category learned", "description", description, "category", code)
	return code, nil
}
