// Package storage handles the files backing catalog books.
//
// Stored names are opaque: a generated UUID plus the original
// extension. Callers persist the stored name on the book row and hand it
// back for deletion when the book goes away.
package storage

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileStore writes and removes uploaded book files under a single
// directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create files dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Store saves the content of r under a generated name, keeping the
// extension of originalName, and returns the stored name.
func (s *FileStore) Store(r io.Reader, originalName string) (string, error) {
	name := uuid.New().String() + filepath.Ext(originalName)

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create stored file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write stored file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close stored file: %w", err)
	}

	return name, nil
}

// Delete removes a stored file, best-effort. It returns true when the
// file was deleted and false when it was already missing; any other
// failure is logged and also reported as false, never as an error that
// would roll back the caller's work.
func (s *FileStore) Delete(storedName string) bool {
	if storedName == "" {
		return false
	}

	err := os.Remove(filepath.Join(s.dir, storedName))
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}

	log.Printf("Failed to delete stored file %s: %v", storedName, err)
	return false
}

// Path returns the absolute location of a stored file, for serving.
func (s *FileStore) Path(storedName string) string {
	return filepath.Join(s.dir, storedName)
}
