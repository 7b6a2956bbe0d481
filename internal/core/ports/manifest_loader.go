// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/strata/internal/core/domain"

// ManifestLoader loads the workspace manifest.
//
//go:generate mockgen -source=manifest_loader.go -destination=mocks/mock_manifest_loader.go -package=mocks
type ManifestLoader interface {
	// Load finds the manifest walking up from cwd and parses it.
	Load(cwd string) (*domain.Manifest, error)
}
