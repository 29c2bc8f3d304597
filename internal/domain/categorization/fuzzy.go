package categorization

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Resolve maps what a human typed to a category: exact code first, then
// exact name ignoring case, then the closest fuzzy match over codes and names.
func (r *Registry) Resolve(input string) (Category, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Category{}, false
	}

	if c, ok := r.Category(input); ok {
		return c, true
	}
	for _, c := range r.Categories {
		if strings.EqualFold(c.Name, input) {
			return c, true
		}
	}

	// Even targets are codes, odd targets are names.
	targets := make([]string, 0, 2*len(r.Categories))
	for _, c := range r.Categories {
		targets = append(targets, c.Code, c.Name)
	}

	ranks := fuzzy.RankFindNormalizedFold(input, targets)
	if len(ranks) == 0 {
		return Category{}, false
	}
	sort.Sort(ranks)
	return r.Categories[ranks[0].OriginalIndex/2], true
}
