package ports

import "go.trai.ch/strata/internal/core/domain"

// LockStore persists the lock document of a workspace.
//
//go:generate mockgen -source=lock_store.go -destination=mocks/mock_lock_store.go -package=mocks
type LockStore interface {
	// Load reads the lock document of the workspace at root.
	// Returns nil, nil if no lock document exists.
	Load(root string) (*domain.LockDocument, error)

	// Save atomically replaces the lock document of the workspace at root.
	Save(root string, doc *domain.LockDocument) error
}
