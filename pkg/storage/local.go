package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var _ Storage = (*LocalStorage)(nil)

// LocalStorage implements Storage using a local directory
type LocalStorage struct {
	basePath string
	remove   func(name string) error
}

// NewLocalStorage creates a new local filesystem holding area
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Ensure base path exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{basePath: basePath, remove: os.Remove}, nil
}

// Dir returns the directory backing the area
func (s *LocalStorage) Dir() string {
	return s.basePath
}

// Save stores r as "<id>_<filename>"
func (s *LocalStorage) Save(ctx context.Context, id uuid.UUID, filename string, r io.Reader) (*FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Sanitize filename and add UUID prefix for uniqueness
	safeFilename := sanitizeFilename(filepath.Base(filename))
	storedFilename := fmt.Sprintf("%s_%s", id.String(), safeFilename)
	filePath := filepath.Join(s.basePath, storedFilename)

	// O_EXCL so a colliding name fails instead of clobbering another request
	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(filePath) // Cleanup on error
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &FileInfo{
		ID:        id,
		Name:      filename,
		Size:      size,
		Path:      filePath,
		CreatedAt: time.Now(),
	}, nil
}

// Create opens a new file called name for writing and returns its path
func (s *LocalStorage) Create(ctx context.Context, name string) (io.WriteCloser, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	filePath := filepath.Join(s.basePath, sanitizeFilename(filepath.Base(name)))
	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file: %w", err)
	}
	return f, filePath, nil
}

// Delete removes the file at path
func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	if err := s.remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// List returns all regular files in the area
func (s *LocalStorage) List(ctx context.Context) ([]*FileInfo, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue // Removed since ReadDir
		}

		files = append(files, &FileInfo{
			ID:        parseID(entry.Name()),
			Name:      entry.Name(),
			Size:      info.Size(),
			Path:      filepath.Join(s.basePath, entry.Name()),
			CreatedAt: info.ModTime(),
		})
	}

	return files, nil
}

// Sweep deletes files whose modification age exceeds olderThan
func (s *LocalStorage) Sweep(ctx context.Context, olderThan time.Duration, now time.Time) (*SweepResult, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	result := &SweepResult{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if !entry.Type().IsRegular() {
			continue
		}

		filePath := filepath.Join(s.basePath, entry.Name())

		if olderThan > 0 {
			info, err := entry.Info()
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					result.Errors = append(result.Errors, fmt.Errorf("stat %s: %w", filePath, err))
				}
				continue
			}
			if now.Sub(info.ModTime()) <= olderThan {
				continue
			}
		}

		if err := s.remove(filePath); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				result.Errors = append(result.Errors, fmt.Errorf("remove %s: %w", filePath, err))
			}
			continue
		}
		result.Deleted++
	}

	return result, nil
}

// parseID extracts the UUID prefix of a stored name, or uuid.Nil
func parseID(name string) uuid.UUID {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, part := range strings.Split(base, "_") {
		if id, err := uuid.Parse(part); err == nil {
			return id
		}
	}
	return uuid.Nil
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	// Replace path separators and other dangerous characters
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
