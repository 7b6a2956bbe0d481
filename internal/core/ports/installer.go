package ports

import (
	"context"

	"go.trai.ch/strata/internal/core/domain"
)

// Installer mutates an installed prefix.
//
//go:generate mockgen -source=installer.go -destination=mocks/mock_installer.go -package=mocks
type Installer interface {
	// Install links the artifact of op.Record into the prefix.
	Install(ctx context.Context, prefix string, op domain.Operation, artifact string) error
	// Remove unlinks the package op.Identity from the prefix.
	Remove(ctx context.Context, prefix string, op domain.Operation) error
	// Relink refreshes the link state of op.Identity against op.Links.
	Relink(ctx context.Context, prefix string, op domain.Operation) error
}

// PrefixReader reads the installed state of a prefix.
type PrefixReader interface {
	// ReadPrefix returns the installed packages of prefix. A missing prefix is empty.
	ReadPrefix(prefix string) (*domain.PrefixRecord, error)
}
