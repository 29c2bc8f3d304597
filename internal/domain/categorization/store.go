package categorization

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/FACorreiaa/echo-ledger/pkg/storage"
)

// VocabularyNamespace is the storage namespace of the vocabulary file.
const VocabularyNamespace = "vocabulary"

// FileStore keeps the statistics as one JSON document in a storage backend.
type FileStore struct {
	store storage.Storage
	name  string
}

// NewFileStore creates a store writing name under VocabularyNamespace.
func NewFileStore(store storage.Storage, name string) *FileStore {
	if name == "" {
		name = "statistics.json"
	}
	return &FileStore{store: store, name: name}
}

// Load returns empty statistics when nothing was saved yet.
func (s *FileStore) Load(ctx context.Context) (Statistics, error) {
	rc, err := s.store.Get(ctx, VocabularyNamespace, s.name)
	if errors.Is(err, storage.ErrNotFound) {
		return Statistics{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	stats := Statistics{}
	if err := json.NewDecoder(rc).Decode(&stats); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.name, err)
	}
	return stats, nil
}

// Save replaces the stored document.
func (s *FileStore) Save(ctx context.Context, stats Statistics) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode statistics: %w", err)
	}
	if _, err := s.store.Put(ctx, VocabularyNamespace, s.name, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.name, err)
	}
	return nil
}
