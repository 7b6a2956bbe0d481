package domain

import (
	"maps"
	"slices"
)

const (
	// DefaultFeatureName is the implicit feature holding the top-level dependencies.
	DefaultFeatureName = "default"

	// DefaultEnvironmentName is the environment that exists when none is declared.
	DefaultEnvironmentName = "default"

	// DefaultIndexRetries is the number of attempts made for a failing index fetch.
	DefaultIndexRetries = 3
)

// Manifest is the declarative description of a workspace.
type Manifest struct {
	// Root is the directory holding the manifest file.
	Root      string
	Name      string
	Channels  []string
	IndexURLs []string
	Platforms []Platform
	// Features holds every declared feature by name, including the default feature.
	Features     map[string]*Feature
	Environments map[string]*EnvironmentDecl
	Settings     Settings
}

// Feature is a named group of dependencies, platform restrictions and sources.
type Feature struct {
	Name string
	// Platforms restricts the environments using this feature. Empty means unrestricted.
	Platforms          []Platform
	Channels           []string
	IndexURLs          []string
	Dependencies       []DependencySpec
	Targets            map[Platform][]DependencySpec
	SystemRequirements SystemRequirements
}

// EnvironmentDecl is an environment as written in the manifest.
type EnvironmentDecl struct {
	Name             string
	Features         []string
	NoDefaultFeature bool
}

// Settings holds tunables of the engine.
type Settings struct {
	Concurrency  int
	IndexRetries int
	CacheDir     string
}

// NewManifest returns an empty manifest with the default feature in place.
func NewManifest(root string) *Manifest {
	return &Manifest{
		Root: root,
		Features: map[string]*Feature{
			DefaultFeatureName: {Name: DefaultFeatureName},
		},
		Environments: make(map[string]*EnvironmentDecl),
	}
}

// DefaultFeature returns the implicit default feature, creating it when missing.
func (m *Manifest) DefaultFeature() *Feature {
	if m.Features == nil {
		m.Features = make(map[string]*Feature)
	}
	f, ok := m.Features[DefaultFeatureName]
	if !ok {
		f = &Feature{Name: DefaultFeatureName}
		m.Features[DefaultFeatureName] = f
	}
	return f
}

// environmentDecls returns the declared environments sorted by name, or the implicit default one.
func (m *Manifest) environmentDecls() []*EnvironmentDecl {
	if len(m.Environments) == 0 {
		return []*EnvironmentDecl{{Name: DefaultEnvironmentName}}
	}
	names := slices.Sorted(maps.Keys(m.Environments))
	out := make([]*EnvironmentDecl, 0, len(names))
	for _, name := range names {
		decl := *m.Environments[name]
		decl.Name = name
		out = append(out, &decl)
	}
	return out
}
