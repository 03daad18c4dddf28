package selection

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore writes the record as one JSON file named after Key.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore stores the record in dir, which is created on first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, Key+".json")}
}

// DefaultDir returns the per-user configuration directory for radtech.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, "radtech"), nil
}

// Path returns the file the record is written to.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Save(_ context.Context, rec Record) error {
	data, err := rec.Encode()
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create selection dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write selection: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("write selection: %w", err)
	}
	return nil
}

func (f *FileStore) Load(_ context.Context) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("read selection: %w", err)
	}
	return Decode(data)
}
