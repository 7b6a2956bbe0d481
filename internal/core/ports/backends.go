package ports

// Backends builds the adapters that depend on the cache directory of a workspace.
//
//go:generate mockgen -source=backends.go -destination=mocks/mock_backends.go -package=mocks
type Backends interface {
	// IndexProvider returns a provider mirroring listings below cacheDir.
	IndexProvider(cacheDir string) IndexProvider
	// ArtifactFetcher returns a fetcher storing verified artifacts below cacheDir.
	ArtifactFetcher(cacheDir string) ArtifactFetcher
}
