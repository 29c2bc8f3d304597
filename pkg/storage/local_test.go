package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_PutGetList(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	info, err := s.Put(ctx, "CHK", "CHK_20240101_20240131.csv", strings.NewReader("a;b\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size)
	assert.Equal(t, FileID("CHK", "CHK_20240101_20240131.csv"), info.ID)

	_, err = s.Put(ctx, "CHK", "CHK_20240201_20240229.csv", strings.NewReader("c;d\n"))
	require.NoError(t, err)

	// Replacing keeps a single file with the latest content.
	_, err = s.Put(ctx, "CHK", "CHK_20240101_20240131.csv", strings.NewReader("new\n"))
	require.NoError(t, err)

	rc, err := s.Get(ctx, "CHK", "CHK_20240101_20240131.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))

	files, err := s.List(ctx, "CHK")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "CHK_20240101_20240131.csv", files[0].Name)
	assert.Equal(t, "CHK_20240201_20240229.csv", files[1].Name)
}

func TestLocalStorage_Missing(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(ctx, "CHK", "nope.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	files, err := s.List(ctx, "EMPTY")
	require.NoError(t, err)
	assert.Empty(t, files)

	assert.NoError(t, s.Delete(ctx, "CHK", "nope.csv"))
}

func TestLocalStorage_SanitizesNames(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	info, err := s.Put(ctx, "../escape", "a/b.csv", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "a_b.csv", info.Name)

	rc, err := s.Get(ctx, "../escape", "a/b.csv")
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	require.NoError(t, s.Delete(ctx, "../escape", "a/b.csv"))
	_, err = s.Get(ctx, "../escape", "a/b.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNew(t *testing.T) {
	s, err := New(&Config{Type: StorageTypeLocal, LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = New(&Config{Type: "s3"})
	assert.Error(t, err)
}
