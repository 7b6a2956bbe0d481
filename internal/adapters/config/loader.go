// Package config discovers and parses the strata.yaml manifest.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ManifestLoader = (*Loader)(nil)

// Loader implements ports.ManifestLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds strata.yaml walking up from cwd and parses it into a manifest rooted at its directory.
func (l *Loader) Load(cwd string) (*domain.Manifest, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve working directory"), "cwd", cwd)
	}
	path, err := findManifest(abs)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is discovered from the working directory
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrManifestReadFailed, err), "path", path)
	}

	var dto Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&dto); err != nil && !errors.Is(err, io.EOF) {
		return nil, zerr.With(errors.Join(domain.ErrManifestParseFailed, err), "path", path)
	}

	m, err := toDomain(filepath.Dir(path), &dto)
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrManifest, err), "path", path)
	}
	l.warnUnusedFeatures(m)
	return m, nil
}

func findManifest(dir string) (string, error) {
	current := dir
	for {
		candidate := filepath.Join(current, domain.ManifestFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", zerr.With(zerr.Wrap(domain.ErrManifestNotFound, ""), "cwd", dir)
		}
		current = parent
	}
}

func (l *Loader) warnUnusedFeatures(m *domain.Manifest) {
	if l.Logger == nil {
		return
	}
	used := make(map[string]bool)
	for _, env := range m.Environments {
		for _, f := range env.Features {
			used[f] = true
		}
	}
	for _, name := range slices.Sorted(maps.Keys(m.Features)) {
		if name != domain.DefaultFeatureName && !used[name] {
			l.Logger.Warn(fmt.Sprintf("feature %q is not used by any environment", name))
		}
	}
}

func toDomain(root string, dto *Manifest) (*domain.Manifest, error) {
	m := domain.NewManifest(root)
	m.Name = dto.Name
	m.Channels = dto.Channels
	m.IndexURLs = dto.IndexURLs
	m.Platforms = toPlatforms(dto.Platforms)
	m.Settings = toSettings(root, dto.Settings)

	var errs []error
	def := m.DefaultFeature()
	def.SystemRequirements = toRequirements(dto.SystemRequirements)
	if err := fillFeature(def, dto.Dependencies, dto.PyPIDependencies, dto.Target); err != nil {
		errs = append(errs, err)
	}

	for _, name := range slices.Sorted(maps.Keys(dto.Features)) {
		if name == domain.DefaultFeatureName {
			errs = append(errs, zerr.With(zerr.New("feature name is reserved"), "feature", name))
			continue
		}
		fd := dto.Features[name]
		f := &domain.Feature{
			Name:               name,
			Platforms:          toPlatforms(fd.Platforms),
			Channels:           fd.Channels,
			IndexURLs:          fd.IndexURLs,
			SystemRequirements: toRequirements(fd.SystemRequirements),
		}
		if err := fillFeature(f, fd.Dependencies, fd.PyPIDependencies, fd.Target); err != nil {
			errs = append(errs, zerr.With(err, "feature", name))
		}
		m.Features[name] = f
	}

	for name, ed := range dto.Environments {
		m.Environments[name] = &domain.EnvironmentDecl{
			Name:             name,
			Features:         ed.Features,
			NoDefaultFeature: ed.NoDefaultFeature,
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return m, nil
}

func fillFeature(f *domain.Feature, conda, pypi map[string]SpecDTO, targets map[string]TargetDTO) error {
	var errs []error
	var err error

	if f.Dependencies, err = toSpecs(conda, pypi); err != nil {
		errs = append(errs, err)
	}
	for _, platform := range slices.Sorted(maps.Keys(targets)) {
		td := targets[platform]
		specs, err := toSpecs(td.Dependencies, td.PyPIDependencies)
		if err != nil {
			errs = append(errs, zerr.With(err, "target", platform))
			continue
		}
		if f.Targets == nil {
			f.Targets = make(map[domain.Platform][]domain.DependencySpec)
		}
		f.Targets[domain.Platform(platform)] = specs
	}
	return errors.Join(errs...)
}

func toSpecs(conda, pypi map[string]SpecDTO) ([]domain.DependencySpec, error) {
	var (
		out  []domain.DependencySpec
		errs []error
	)
	add := func(eco domain.Ecosystem, deps map[string]SpecDTO) {
		for _, name := range slices.Sorted(maps.Keys(deps)) {
			d := deps[name]
			source := d.Channel
			extras := d.Extras
			bare := name
			if eco == domain.EcosystemPyPI {
				source = d.Index
				var inline []string
				bare, inline = domain.SplitExtras(name)
				extras = append(inline, extras...)
			}
			spec, err := domain.NewDependencySpec(eco, bare, d.Version, d.Build, source)
			if err == nil {
				spec, err = spec.WithExtras(extras...)
			}
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out = append(out, spec)
		}
	}
	add(domain.EcosystemConda, conda)
	add(domain.EcosystemPyPI, pypi)
	return out, errors.Join(errs...)
}

// toPlatforms keeps the raw identifiers; the workspace model validates them.
func toPlatforms(in []string) []domain.Platform {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Platform, len(in))
	for i, p := range in {
		out[i] = domain.Platform(p)
	}
	return out
}

func toRequirements(dto SystemRequirementsDTO) domain.SystemRequirements {
	return domain.SystemRequirements{
		Linux: dto.Linux,
		Libc:  dto.Libc,
		Cuda:  dto.Cuda,
		MacOS: dto.MacOS,
	}
}

func toSettings(root string, dto SettingsDTO) domain.Settings {
	s := domain.Settings{
		Concurrency:  max(dto.Concurrency, 0),
		IndexRetries: dto.IndexRetries,
		CacheDir:     dto.CacheDir,
	}
	if s.IndexRetries <= 0 {
		s.IndexRetries = domain.DefaultIndexRetries
	}
	if s.CacheDir == "" {
		s.CacheDir = domain.DefaultCachePath()
	}
	if !filepath.IsAbs(s.CacheDir) {
		s.CacheDir = filepath.Join(root, s.CacheDir)
	}
	return s
}
