// Package atomicfile replaces files so that readers observe either the old or the new content.
package atomicfile

import (
	"os"
	"path/filepath"

	"github.com/google/renameio/v2/maybe"
	"go.trai.ch/strata/internal/core/domain"
)

// Write creates the parent directories of path and atomically replaces path with data.
func Write(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return err
	}
	return Replace(path, data, perm)
}

// Replace atomically replaces path with data. The parent directory must exist.
func Replace(path string, data []byte, perm os.FileMode) error {
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		return err
	}
	return maybe.WriteFile(path, data, perm)
}
