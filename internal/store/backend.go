package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Backend persists the serialized document. Implementations must return
// ErrNoDocument from Load when nothing has been written yet.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Close() error
}

// FileBackend stores the document as a single JSON file on disk.
// Writes go through a temp file plus rename so a crash mid-write never
// leaves a truncated document behind.
type FileBackend struct {
	path string
}

// NewFileBackend creates a FileBackend rooted at path. The parent directory
// is created on the first Save.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Load reads the current document bytes. A missing file maps to ErrNoDocument.
func (b *FileBackend) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoDocument
		}
		return nil, fmt.Errorf("read document file: %w", err)
	}
	return data, nil
}

// Save atomically replaces the document file.
func (b *FileBackend) Save(_ context.Context, data []byte) error {
	if dir := filepath.Dir(b.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create document directory: %w", err)
		}
	}

	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write document file: %w", err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("replace document file: %w", err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (b *FileBackend) Close() error { return nil }
