// Package storage provides the transient holding areas used while a fill
// request is processed.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileInfo contains metadata about a stored file
type FileInfo struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"` // Name as supplied by the caller
	Size      int64     `json:"size"`
	Path      string    `json:"path"` // Absolute or base-relative path on disk
	CreatedAt time.Time `json:"created_at"`
}

// SweepResult reports the outcome of a Sweep
type SweepResult struct {
	Deleted int
	Errors  []error
}

// Storage defines the operations on one holding area
type Storage interface {
	// Dir returns the directory backing the area
	Dir() string

	// Save stores r under a name unique to id and returns its metadata
	Save(ctx context.Context, id uuid.UUID, filename string, r io.Reader) (*FileInfo, error)

	// Create opens a new file called name for writing
	Create(ctx context.Context, name string) (io.WriteCloser, string, error)

	// Delete removes the file at path. A missing file is not an error.
	Delete(ctx context.Context, path string) error

	// List returns the regular files currently held
	List(ctx context.Context) ([]*FileInfo, error)

	// Sweep deletes files older than olderThan relative to now, or every
	// file when olderThan is not positive. Per-file failures are collected
	// in the result and do not stop the sweep.
	Sweep(ctx context.Context, olderThan time.Duration, now time.Time) (*SweepResult, error)
}
