package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harlan/vitrin/internal/apperr"
)

// Dir stores raw files (post bodies, uploaded assets) under a single
// directory. Names must be plain file names; the checks here are a
// second line of defense behind slug validation.
type Dir struct {
	root string
}

// NewDir creates a Dir rooted at dir, creating it if needed.
func NewDir(dir string) (*Dir, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("filestore: resolve dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create dir: %w", err)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute directory path.
func (d *Dir) Root() string { return d.root }

// safeJoin rejects names with separators or parent references and
// returns the absolute path under the root.
func (d *Dir) safeJoin(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", apperr.ErrInvalidSlug)
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("%w: %s", apperr.ErrInvalidSlug, name)
	}
	abs := filepath.Join(d.root, cleaned)
	if !strings.HasPrefix(abs, d.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", apperr.ErrInvalidSlug, name)
	}
	return abs, nil
}

// Write atomically writes a file under the root.
func (d *Dir) Write(name string, data []byte) error {
	abs, err := d.safeJoin(name)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(abs, data); err != nil {
		return apperr.Persistence("write "+name, err)
	}
	return nil
}

// Read returns the contents of a file, or apperr.ErrNotFound.
func (d *Dir) Read(name string) ([]byte, error) {
	abs, err := d.safeJoin(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, name)
		}
		return nil, apperr.Persistence("read "+name, err)
	}
	return data, nil
}

// Exists reports whether a file is present.
func (d *Dir) Exists(name string) bool {
	abs, err := d.safeJoin(name)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(abs)
	return statErr == nil
}

// Remove deletes a file. Removing an absent file is not an error.
func (d *Dir) Remove(name string) error {
	abs, err := d.safeJoin(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return apperr.Persistence("remove "+name, err)
	}
	return nil
}

// RemoveTree recursively deletes a subdirectory. The name goes through
// the same separator and parent-reference checks as file names, so a
// caller can only ever remove a direct child of the root.
func (d *Dir) RemoveTree(name string) error {
	abs, err := d.safeJoin(name)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(abs); err != nil {
		return apperr.Persistence("remove tree "+name, err)
	}
	return nil
}
