// Package figure resolves the pre-rendered figure files expected for each
// record, with a deterministic fallback policy when figures are missing.
package figure

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Store is the read-only file-system collaborator for figure lookups.
type Store interface {
	// Exists reports whether the exact path exists.
	Exists(path string) bool

	// List returns the relative paths of all files under dir, recursively,
	// using forward slashes. A missing directory lists as empty.
	List(dir string) ([]string, error)
}

// DirStore is the production Store backed by the local file system.
type DirStore struct{}

// Exists reports whether path exists and is a regular file.
func (DirStore) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// List walks dir and returns relative file paths with forward slashes.
func (DirStore) List(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	return files, err
}
