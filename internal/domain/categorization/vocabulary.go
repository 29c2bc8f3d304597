package categorization

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Store loads and saves the whole statistics map. Saving replaces what was
// stored before: the last writer wins.
type Store interface {
	Load(ctx context.Context) (Statistics, error)
	Save(ctx context.Context, stats Statistics) error
}

// Vocabulary is the in-memory statistics of one session with an explicit
// load and flush boundary to its Store.
type Vocabulary struct {
	store  Store
	scorer Scorer
	logger *slog.Logger

	mu         sync.RWMutex
	stats      Statistics
	generation uint64
	flushed    uint64
}

// NewVocabulary creates an empty vocabulary backed by store.
func NewVocabulary(store Store, scorer Scorer, logger *slog.Logger) *Vocabulary {
	return &Vocabulary{
		store:  store,
		scorer: scorer,
		logger: logger,
		stats:  Statistics{},
	}
}

// Load replaces the in-memory statistics with the stored ones.
func (v *Vocabulary) Load(ctx context.Context) error {
	stats, err := v.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load vocabulary: %w", err)
	}
	if stats == nil {
		stats = Statistics{}
	}

	v.mu.Lock()
	v.stats = stats
	v.flushed = v.generation
	v.mu.Unlock()

	v.logger.Info("vocabulary loaded", "words", len(stats))
	return nil
}

// Snapshot returns a copy of the current statistics.
func (v *Vocabulary) Snapshot() Statistics {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.stats.Clone()
}

// Size returns the number of known words.
func (v *Vocabulary) Size() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.stats)
}

// Assign learns that text belongs to category. It reports false when there
// was nothing to learn.
func (v *Vocabulary) Assign(text, category string) bool {
	if category == "" || len(Tokenize(text)) == 0 {
		return false
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.stats = Learn(text, category, v.stats)
	v.generation++
	return true
}

// Dirty reports whether there are changes not yet flushed.
func (v *Vocabulary) Dirty() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.generation != v.flushed
}

// Flush saves the statistics when they changed since the last load or flush.
func (v *Vocabulary) Flush(ctx context.Context) (bool, error) {
	v.mu.RLock()
	if v.generation == v.flushed {
		v.mu.RUnlock()
		return false, nil
	}
	snapshot := v.stats.Clone()
	generation := v.generation
	v.mu.RUnlock()

	if err := v.store.Save(ctx, snapshot); err != nil {
		return false, fmt.Errorf("failed to flush vocabulary: %w", err)
	}

	v.mu.Lock()
	if generation > v.flushed {
		v.flushed = generation
	}
	v.mu.Unlock()

	v.logger.Debug("vocabulary flushed", "words", len(snapshot))
	return true, nil
}

// Suggest scores text against the current statistics.
func (v *Vocabulary) Suggest(text string) Suggestion {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.scorer.Suggest(text, v.stats)
}
