package config

import (
	"gopkg.in/yaml.v3"
)

// Manifest represents the structure of the strata.yaml file.
type Manifest struct {
	Version            string                    `yaml:"version"`
	Name               string                    `yaml:"name"`
	Channels           []string                  `yaml:"channels"`
	IndexURLs          []string                  `yaml:"index-urls"`
	Platforms          []string                  `yaml:"platforms"`
	Dependencies       map[string]SpecDTO        `yaml:"dependencies"`
	PyPIDependencies   map[string]SpecDTO        `yaml:"pypi-dependencies"`
	Target             map[string]TargetDTO      `yaml:"target"`
	SystemRequirements SystemRequirementsDTO     `yaml:"system-requirements"`
	Features           map[string]FeatureDTO     `yaml:"features"`
	Environments       map[string]EnvironmentDTO `yaml:"environments"`
	Settings           SettingsDTO               `yaml:"settings"`
}

// FeatureDTO represents a named feature.
type FeatureDTO struct {
	Platforms          []string              `yaml:"platforms"`
	Channels           []string              `yaml:"channels"`
	IndexURLs          []string              `yaml:"index-urls"`
	Dependencies       map[string]SpecDTO    `yaml:"dependencies"`
	PyPIDependencies   map[string]SpecDTO    `yaml:"pypi-dependencies"`
	Target             map[string]TargetDTO  `yaml:"target"`
	SystemRequirements SystemRequirementsDTO `yaml:"system-requirements"`
}

// TargetDTO holds dependencies that only apply to one platform.
type TargetDTO struct {
	Dependencies     map[string]SpecDTO `yaml:"dependencies"`
	PyPIDependencies map[string]SpecDTO `yaml:"pypi-dependencies"`
}

// SystemRequirementsDTO declares minimum host capabilities.
type SystemRequirementsDTO struct {
	Linux string `yaml:"linux"`
	Libc  string `yaml:"libc"`
	Cuda  string `yaml:"cuda"`
	MacOS string `yaml:"macos"`
}

// SettingsDTO holds engine tunables.
type SettingsDTO struct {
	Concurrency  int    `yaml:"concurrency"`
	IndexRetries int    `yaml:"index-retries"`
	CacheDir     string `yaml:"cache-dir"`
}

// SpecDTO is a dependency written either as a bare constraint ("foo: >=1.0")
// or as a mapping with a version, build, source and pypi extras.
type SpecDTO struct {
	Version string   `yaml:"version"`
	Build   string   `yaml:"build"`
	Channel string   `yaml:"channel"`
	Index   string   `yaml:"index"`
	Extras  []string `yaml:"extras"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (s *SpecDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Version = node.Value
		return nil
	}
	type plain SpecDTO
	return node.Decode((*plain)(s))
}

// EnvironmentDTO is an environment written either as a list of features
// or as a mapping with features and no-default-feature.
type EnvironmentDTO struct {
	Features         []string `yaml:"features"`
	NoDefaultFeature bool     `yaml:"no-default-feature"`
}

// UnmarshalYAML accepts both the sequence and the mapping form.
func (e *EnvironmentDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		return node.Decode(&e.Features)
	}
	type plain EnvironmentDTO
	return node.Decode((*plain)(e))
}
