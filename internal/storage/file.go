package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	fileDirPermissions = 0750
	filePermissions    = 0600
)

// FileStore persists a blob as a single file.
//
// Saves write to a sibling ".tmp" file and rename it over the target, so a
// crash mid-write leaves either the old blob or the new one.
type FileStore struct {
	fs   afero.Fs
	path string
}

// NewFileStore creates a file-backed blob store. A nil fsys uses the OS filesystem.
func NewFileStore(fsys afero.Fs, path string) *FileStore {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &FileStore{fs: fsys, path: path}
}

// Save writes the blob atomically.
func (s *FileStore) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), fileDirPermissions); err != nil {
		return fmt.Errorf("creating blob directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, filePermissions); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp) //nolint:errcheck // Best effort cleanup
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

// Load reads the blob, or returns ErrNotFound.
func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return data, nil
}

// Wipe removes the blob file. Wiping a missing file is not an error.
func (s *FileStore) Wipe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fs.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", s.path, err)
	}
	return nil
}
