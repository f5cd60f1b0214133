// Package local is the filesystem image backend. Every image is one file in
// a single flat directory, named by its storage key.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vbonduro/glassinv/internal/domain"
	"github.com/vbonduro/glassinv/internal/imagestore"
)

// ErrInvalidKey is returned for keys that would resolve outside the image
// directory or into a subdirectory of it.
var ErrInvalidKey = errors.New("invalid image storage key")

type Store struct {
	dir    string
	logger *slog.Logger
}

func New(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Save streams the image into a temporary file and renames it into place, so
// a reader never sees a partially written image under its final key.
func (s *Store) Save(ctx context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := imagestore.NewKey(prefix, mimeType)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp image file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		s.discard(tmp)
		return "", fmt.Errorf("failed to write image %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		s.remove(tmp.Name())
		return "", fmt.Errorf("failed to flush image %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, key)); err != nil {
		s.remove(tmp.Name())
		return "", fmt.Errorf("failed to store image %s: %w", key, err)
	}
	s.logger.Debug("image file written", "key", key)
	return key, nil
}

// Get opens the image file. The MIME type comes from the key's extension.
func (s *Store) Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error) {
	path, err := s.pathFor(storageKey)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", fmt.Errorf("image %s: %w", storageKey, domain.ErrImageNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image %s: %w", storageKey, err)
	}
	return f, imagestore.ExtToMimeType(storageKey), nil
}

func (s *Store) Delete(ctx context.Context, storageKey string) error {
	path, err := s.pathFor(storageKey)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("image %s: %w", storageKey, domain.ErrImageNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to delete image %s: %w", storageKey, err)
	}
	return nil
}

// pathFor maps a key to its file. Keys are flat names produced by
// imagestore.NewKey; anything with a separator or a parent reference is
// rejected.
func (s *Store) pathFor(storageKey string) (string, error) {
	if !filepath.IsLocal(storageKey) || strings.ContainsAny(storageKey, `/\`) {
		return "", fmt.Errorf("%q: %w", storageKey, ErrInvalidKey)
	}
	return filepath.Join(s.dir, storageKey), nil
}

func (s *Store) discard(f *os.File) {
	if err := f.Close(); err != nil {
		s.logger.Error("failed to close temp image file", "file", f.Name(), "error", err)
	}
	s.remove(f.Name())
}

func (s *Store) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Error("failed to remove temp image file", "file", path, "error", err)
	}
}
