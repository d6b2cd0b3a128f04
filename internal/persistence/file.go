package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File stores each key as a file in a directory.
type File struct {
	dir string
}

// NewFile creates dir if needed. An empty dir means "data".
func NewFile(dir string) (*File, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("file: creating %s: %w", dir, err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, filepath.Base(key)+".json")
}

func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("file: reading %s: %w", key, err)
	}
	return data, nil
}

// Put writes to a temp file and renames it over the target so readers
// never observe a partial record.
func (f *File) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, filepath.Base(key)+".*.tmp")
	if err != nil {
		return fmt.Errorf("file: creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("file: writing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file: closing %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("file: replacing %s: %w", key, err)
	}
	return nil
}

func (f *File) Close() error { return nil }
