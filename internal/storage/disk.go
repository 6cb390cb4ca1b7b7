package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DiskStore maps logical attachment URLs to files under an uploads
// root. URLs are relative paths of the form "2026/08/<uuid><ext>".
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads root: %w", err)
	}
	return &DiskStore{root: abs}, nil
}

// path resolves a logical URL to a physical path, rejecting anything
// that would escape the uploads root.
func (s *DiskStore) path(url string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(url))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage url %q", url)
	}
	return filepath.Join(s.root, clean), nil
}

// Save writes content to a fresh file and returns its logical URL.
// The original filename contributes only its extension.
func (s *DiskStore) Save(originalName string, content io.Reader) (string, int64, error) {
	now := time.Now()
	rel := filepath.Join(now.Format("2006"), now.Format("01"), uuid.NewString()+filepath.Ext(originalName))

	full := filepath.Join(s.root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, fmt.Errorf("create upload dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", 0, fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, content)
	if err != nil {
		os.Remove(full)
		return "", 0, fmt.Errorf("write upload file: %w", err)
	}

	return filepath.ToSlash(rel), size, nil
}

func (s *DiskStore) Open(url string) (io.ReadCloser, error) {
	full, err := s.path(url)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (s *DiskStore) Exists(url string) bool {
	full, err := s.path(url)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

// Delete removes the file for a logical URL. A missing file is not an
// error; the caller treats disk deletion as best-effort.
func (s *DiskStore) Delete(url string) error {
	full, err := s.path(url)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
