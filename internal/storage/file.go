package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/starford/navkit/internal/apperr"
	"github.com/starford/navkit/internal/state"
)

// File persists the snapshot as a single JSON document on disk.
type File struct {
	path string // absolute path to the state document
}

// NewFile creates a File store at path, creating parent directories.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("storage: file path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir: %w", err)
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return nil, fmt.Errorf("storage: state path is a directory: %s", abs)
	}
	return &File{path: abs}, nil
}

// Path returns the absolute document path.
func (f *File) Path() string {
	return f.path
}

// Save atomically writes the document: tmp file → fsync → rename.
func (f *File) Save(ctx context.Context, s *state.NavigationState) error {
	if err := ctx.Err(); err != nil {
		return apperr.PersistenceFailed("save", err)
	}
	data, _, err := seal(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".navkit-tmp-*")
	if err != nil {
		return apperr.PersistenceFailed("create temp", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return apperr.PersistenceFailed("write temp", err)
	}
	if err := tmp.Sync(); err != nil {
		return apperr.PersistenceFailed("fsync", err)
	}
	if err := tmp.Close(); err != nil {
		return apperr.PersistenceFailed("close temp", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return apperr.PersistenceFailed("rename", err)
	}
	success = true
	return nil
}

func (f *File) Restore(ctx context.Context) (*state.NavigationState, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.PersistenceFailed("restore", err)
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, apperr.PersistenceFailed("read", err)
	}
	return open(data)
}

func (f *File) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return apperr.PersistenceFailed("clear", err)
	}
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperr.PersistenceFailed("remove", err)
	}
	return nil
}
