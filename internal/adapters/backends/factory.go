// Package backends builds the cache-bound index and artifact adapters of a workspace.
package backends

import (
	"go.trai.ch/strata/internal/adapters/artifact"
	"go.trai.ch/strata/internal/adapters/index"
	"go.trai.ch/strata/internal/adapters/remote"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
)

var _ ports.Backends = (*Factory)(nil)

// Factory implements ports.Backends on top of one shared remote client.
type Factory struct {
	client *remote.Client
}

// NewFactory creates a Factory.
func NewFactory(client *remote.Client) *Factory {
	return &Factory{client: client}
}

// IndexProvider returns an index provider mirroring listings in the index cache below cacheDir.
func (f *Factory) IndexProvider(cacheDir string) ports.IndexProvider {
	return index.NewProvider(f.client, domain.IndexCachePath(cacheDir))
}

// ArtifactFetcher returns a fetcher storing artifacts in the package cache below cacheDir.
func (f *Factory) ArtifactFetcher(cacheDir string) ports.ArtifactFetcher {
	return artifact.NewFetcher(f.client, domain.ArtifactCachePath(cacheDir), artifact.DefaultAttempts)
}
