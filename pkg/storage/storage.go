// Package storage provides named file storage for ledger exports and
// vocabulary snapshots.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("file not found")

// FileInfo contains metadata about a stored file
type FileInfo struct {
	ID        uuid.UUID `json:"id"` // stable for a namespace/name pair
	Namespace string    `json:"namespace"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Storage defines the interface for file storage operations.
// Writes replace the whole file: concurrent writers resolve last-writer-wins.
type Storage interface {
	// Put stores or replaces a file
	Put(ctx context.Context, namespace, name string, r io.Reader) (*FileInfo, error)

	// Get opens a file for reading
	Get(ctx context.Context, namespace, name string) (io.ReadCloser, error)

	// List returns the files of a namespace sorted by name
	List(ctx context.Context, namespace string) ([]*FileInfo, error)

	// Delete removes a file; deleting a missing file is not an error
	Delete(ctx context.Context, namespace, name string) error
}

// StorageType identifies the storage backend
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
)

// Config holds storage configuration
type Config struct {
	Type      StorageType
	LocalPath string
}

// New creates a new Storage implementation based on configuration
func New(cfg *Config) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal, "":
		return NewLocalStorage(cfg.LocalPath)
	default:
		return nil, errors.New("unsupported storage type: " + string(cfg.Type))
	}
}

// FileID derives the stable identifier of a namespace/name pair.
func FileID(namespace, name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(namespace+"/"+name))
}
