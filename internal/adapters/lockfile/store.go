// Package lockfile persists the lock document next to the manifest.
package lockfile

import (
	"errors"
	"io/fs"
	"os"

	"go.trai.ch/strata/internal/adapters/atomicfile"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/lockbuilder"
	"go.trai.ch/zerr"
)

var _ ports.LockStore = (*Store)(nil)

// Store implements ports.LockStore with atomic file replacement.
type Store struct{}

// NewStore creates a Store.
func NewStore() *Store {
	return &Store{}
}

// Load reads and verifies the lock document of the workspace at root.
// Returns nil, nil if no lock document exists.
func (s *Store) Load(root string) (*domain.LockDocument, error) {
	path := domain.LockPath(root)
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the workspace root
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(errors.Join(domain.ErrLockReadFailed, err), "path", path)
	}

	doc, err := lockbuilder.Decode(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return doc, nil
}

// Save atomically replaces the lock document of the workspace at root.
func (s *Store) Save(root string, doc *domain.LockDocument) error {
	path := domain.LockPath(root)
	data, err := lockbuilder.Encode(doc)
	if err != nil {
		return zerr.With(errors.Join(domain.ErrLockWriteFailed, err), "path", path)
	}

	if err := atomicfile.Replace(path, data, domain.FilePerm); err != nil {
		return zerr.With(errors.Join(domain.ErrLockWriteFailed, err), "path", path)
	}
	return nil
}
