// Package localfs implements the FileStore port on the local filesystem.
// Keys are random and opaque; the client-supplied filename contributes only
// its extension, so uploads cannot influence paths.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/talentloop/ai-interviewer/internal/domain"
)

// Store persists uploaded files under a single directory.
type Store struct {
	dir string
}

// New creates the directory if needed and returns a Store.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("op=localfs.New: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save streams r to disk and returns the generated key.
func (s *Store) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	key := uuid.NewString() + safeExt(filename)
	f, err := os.OpenFile(filepath.Join(s.dir, key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("op=localfs.Save: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("op=localfs.Save: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("op=localfs.Save: %w", err)
	}
	return key, nil
}

// Open returns the stored file for key.
func (s *Store) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if key == "" || key != filepath.Base(key) {
		return nil, fmt.Errorf("op=localfs.Open: %w: bad key %q", domain.ErrInvalidArgument, key)
	}
	f, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("op=localfs.Open: %w: key %q", domain.ErrNotFound, key)
		}
		return nil, fmt.Errorf("op=localfs.Open: %w", err)
	}
	return f, nil
}

// safeExt keeps a short alphanumeric extension from the client filename.
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
