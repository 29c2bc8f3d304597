package categorization

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/FACorreiaa/echo-ledger/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingStore struct{}

func (failingStore) Load(context.Context) (Statistics, error) { return nil, errors.New("offline") }
func (failingStore) Save(context.Context, Statistics) error   { return errors.New("offline") }

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewFileStore(local, "")
}

func TestVocabulary_AssignFlushLoad(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)

	v := NewVocabulary(store, DefaultScorer(), discardLogger())
	require.NoError(t, v.Load(ctx))
	assert.Equal(t, 0, v.Size())

	flushed, err := v.Flush(ctx)
	require.NoError(t, err)
	assert.False(t, flushed, "nothing to flush")

	assert.True(t, v.Assign("NETFLIX ABONNEMENT", "SUBSCRIPTIONS"))
	assert.False(t, v.Assign("NETFLIX", ""))
	assert.False(t, v.Assign("a", "SUBSCRIPTIONS"))
	assert.True(t, v.Dirty())

	flushed, err = v.Flush(ctx)
	require.NoError(t, err)
	assert.True(t, flushed)
	assert.False(t, v.Dirty())

	reloaded := NewVocabulary(store, DefaultScorer(), discardLogger())
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, 2, reloaded.Size())
	assert.Equal(t, "SUBSCRIPTIONS", reloaded.Suggest("netflix").Category)
}

func TestVocabulary_SnapshotIsACopy(t *testing.T) {
	v := NewVocabulary(newFileStore(t), DefaultScorer(), discardLogger())
	v.Assign("LOYER JANVIER", "HOUSING")

	snap := v.Snapshot()
	ws := snap["LOYER"]
	ws.CategoryCounts["HOUSING"] = 99
	snap["LOYER"] = ws

	assert.Equal(t, 1, v.Snapshot()["LOYER"].CategoryCounts["HOUSING"])
}

func TestVocabulary_StoreErrors(t *testing.T) {
	v := NewVocabulary(failingStore{}, DefaultScorer(), discardLogger())
	assert.ErrorContains(t, v.Load(context.Background()), "offline")

	v.Assign("LOYER", "HOUSING")
	_, err := v.Flush(context.Background())
	assert.Error(t, err)
	assert.True(t, v.Dirty(), "failed flush keeps changes pending")
}
