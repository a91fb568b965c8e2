package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rundberg/ansuz/internal/apperr"
	"github.com/rundberg/ansuz/internal/fingerprint"
	"github.com/rundberg/ansuz/internal/models"
)

// idRe is the document id charset: lowercase alphanumerics and hyphens,
// the same charset wikilinks can express. Files whose stem does not match
// are invisible to List and unaddressable by id.
var idRe = regexp.MustCompile(`^[a-z0-9-]+$`)

// FS implements Provider backed by a flat directory of <id>.md files.
type FS struct {
	root string // absolute path to vault directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// ValidID reports whether id is a well-formed document id.
func ValidID(id string) bool {
	return idRe.MatchString(id)
}

// IDFromFilename returns the document id for a vault file name, or empty
// string when the name is not a document (wrong extension or invalid stem).
func IDFromFilename(name string) string {
	if !strings.HasSuffix(name, ".md") {
		return ""
	}
	id := strings.TrimSuffix(filepath.Base(name), ".md")
	if !ValidID(id) {
		return ""
	}
	return id
}

// path maps a document id to its absolute file path, rejecting anything
// that is not a plain slug (and with it, any traversal attempt).
func (f *FS) path(id string) (string, error) {
	if !ValidID(id) {
		return "", fmt.Errorf("storage: %w: %q", apperr.ErrInvalidID, id)
	}
	return filepath.Join(f.root, id+".md"), nil
}

// List scans the vault root and returns metadata for every document file.
func (f *FS) List() ([]models.DocumentMeta, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}

	var out []models.DocumentMeta
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id := IDFromFilename(e.Name())
		if id == "" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("storage: stat %s: %w", e.Name(), err)
		}
		data, err := os.ReadFile(filepath.Join(f.root, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("storage: read %s: %w", e.Name(), err)
		}
		out = append(out, models.DocumentMeta{
			ID:          id,
			Fingerprint: fingerprint.Sum(data),
			UpdatedAt:   info.ModTime(),
		})
	}
	return out, nil
}

// Read returns the raw bytes of a document.
func (f *FS) Read(id string) ([]byte, error) {
	abs, err := f.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", id, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(id string, content []byte) error {
	abs, err := f.path(id)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, ".ansuz-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
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

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes a document file from the vault.
func (f *FS) Delete(id string) error {
	abs, err := f.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", id, err)
	}
	return nil
}
