// Package files implements the storage services on the local filesystem.
//
// Layout under the data directory:
//
//	prefs/<slot>.json   key-value slots
//	secure/<name>       secrets (directory 0700, files 0600)
//	images/<ref>.jpg    face images
package files

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"github.com/kozaktomas/names-to-faces/internal/storage"
)

// ErrInvalidName is returned for slot, secret or image names that are not a single path element.
var ErrInvalidName = errors.New("invalid name")

var (
	_ storage.Backend    = (*Store)(nil)
	_ storage.ImageStore = (*Store)(nil)
)

// Store is a filesystem-backed slot, secret and image store.
type Store struct {
	prefsDir  string
	secureDir string
	imagesDir string
}

// New creates the directory layout under dir and returns a store rooted there.
func New(dir string) (*Store, error) {
	s := &Store{
		prefsDir:  filepath.Join(dir, "prefs"),
		secureDir: filepath.Join(dir, "secure"),
		imagesDir: filepath.Join(dir, "images"),
	}
	for _, d := range []struct {
		path string
		perm os.FileMode
	}{
		{s.prefsDir, 0o755},
		{s.secureDir, 0o700},
		{s.imagesDir, 0o755},
	} {
		if err := os.MkdirAll(d.path, d.perm); err != nil {
			return nil, fmt.Errorf("create %s: %w", d.path, err)
		}
	}
	return s, nil
}

// Close is a no-op; it exists to satisfy storage.Backend.
func (s *Store) Close() error {
	return nil
}

// Get reads a slot.
func (s *Store) Get(ctx context.Context, slot string) ([]byte, error) {
	path, err := s.path(s.prefsDir, slot, ".json")
	if err != nil {
		return nil, err
	}
	return readFile(path)
}

// Put atomically replaces a slot.
func (s *Store) Put(ctx context.Context, slot string, data []byte) error {
	path, err := s.path(s.prefsDir, slot, ".json")
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write slot %s: %w", slot, err)
	}
	return nil
}

// GetSecret reads a secret.
func (s *Store) GetSecret(ctx context.Context, name string) (string, error) {
	path, err := s.path(s.secureDir, name, "")
	if err != nil {
		return "", err
	}
	data, err := readFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetSecret atomically stores a secret readable only by the owner.
func (s *Store) SetSecret(ctx context.Context, name, value string) error {
	path, err := s.path(s.secureDir, name, "")
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(path, []byte(value), 0o600); err != nil {
		return fmt.Errorf("write secret %s: %w", name, err)
	}
	return nil
}

// DeleteSecret removes a secret.
func (s *Store) DeleteSecret(ctx context.Context, name string) error {
	path, err := s.path(s.secureDir, name, "")
	if err != nil {
		return err
	}
	return removeFile(path)
}

// WriteImage atomically writes an image.
func (s *Store) WriteImage(ctx context.Context, ref string, data []byte) error {
	path, err := s.path(s.imagesDir, ref, ".jpg")
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write image %s: %w", ref, err)
	}
	return nil
}

// ReadImage reads an image.
func (s *Store) ReadImage(ctx context.Context, ref string) ([]byte, error) {
	path, err := s.path(s.imagesDir, ref, ".jpg")
	if err != nil {
		return nil, err
	}
	return readFile(path)
}

// DeleteImage removes an image.
func (s *Store) DeleteImage(ctx context.Context, ref string) error {
	path, err := s.path(s.imagesDir, ref, ".jpg")
	if err != nil {
		return err
	}
	return removeFile(path)
}

func (s *Store) path(dir, name, ext string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(dir, name+ext), nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // name validated in path()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

func removeFile(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", filepath.Base(path), err)
	}
	return nil
}
