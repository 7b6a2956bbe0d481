package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/core/domain"
)

func conda(t *testing.T, name, constraint string) domain.DependencySpec {
	t.Helper()
	s, err := domain.NewDependencySpec(domain.EcosystemConda, name, constraint, "", "")
	require.NoError(t, err)
	return s
}

func pypi(t *testing.T, name, constraint string) domain.DependencySpec {
	t.Helper()
	s, err := domain.NewDependencySpec(domain.EcosystemPyPI, name, constraint, "", "")
	require.NoError(t, err)
	return s
}

func baseManifest(t *testing.T) *domain.Manifest {
	t.Helper()
	m := domain.NewManifest("/work")
	m.Name = "demo"
	m.Channels = []string{"https://conda.example/main"}
	m.IndexURLs = []string{"https://pypi.example/simple"}
	m.Platforms = []domain.Platform{domain.PlatformOSXArm64, domain.PlatformLinux64}
	m.DefaultFeature().Dependencies = []domain.DependencySpec{
		conda(t, "python", ">=3.11"),
		pypi(t, "Requests", ">=2.0"),
	}
	return m
}

func TestBuildWorkspace_DefaultEnvironment(t *testing.T) {
	ws, err := domain.BuildWorkspace(baseManifest(t))
	require.NoError(t, err)

	require.Len(t, ws.Environments, 1)
	assert.Equal(t, domain.DefaultEnvironmentName, ws.Environments[0].Name)
	assert.Equal(t, []domain.Platform{domain.PlatformLinux64, domain.PlatformOSXArm64}, ws.Environments[0].Platforms)

	require.Len(t, ws.Cells, 2)
	assert.Equal(t, domain.CellKey{Environment: "default", Platform: domain.PlatformLinux64}, ws.Cells[0].Key)
	assert.Equal(t, domain.CellKey{Environment: "default", Platform: domain.PlatformOSXArm64}, ws.Cells[1].Key)

	cell := ws.Cells[0]
	require.Len(t, cell.Specs, 2)
	assert.Equal(t, "python", cell.Specs[0].Name)
	assert.Equal(t, "requests", cell.Specs[1].Name)
	assert.Equal(t, []domain.Ecosystem{domain.EcosystemConda, domain.EcosystemPyPI}, cell.Ecosystems())
	assert.NotEmpty(t, cell.Fingerprint)

	names := make([]string, 0, len(cell.Virtual))
	for _, v := range cell.Virtual {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"__glibc", "__linux", "__unix"}, names)
}

func TestBuildWorkspace_FeatureUnionAndPlatformRestriction(t *testing.T) {
	m := baseManifest(t)
	m.Features["cuda"] = &domain.Feature{
		Name:               "cuda",
		Platforms:          []domain.Platform{domain.PlatformLinux64},
		Channels:           []string{"https://conda.example/nvidia"},
		Dependencies:       []domain.DependencySpec{conda(t, "python", "<3.13"), conda(t, "cudatoolkit", "12.*")},
		SystemRequirements: domain.SystemRequirements{Cuda: "12.2"},
	}
	m.Features["lint"] = &domain.Feature{
		Name:         "lint",
		Dependencies: []domain.DependencySpec{pypi(t, "ruff", "")},
		Targets: map[domain.Platform][]domain.DependencySpec{
			domain.PlatformOSXArm64: {conda(t, "libcxx", ">=17")},
		},
	}
	m.Environments["gpu"] = &domain.EnvironmentDecl{Features: []string{"cuda"}}
	m.Environments["lint"] = &domain.EnvironmentDecl{Features: []string{"lint"}, NoDefaultFeature: true}

	ws, err := domain.BuildWorkspace(m)
	require.NoError(t, err)

	keys := ws.Keys()
	assert.Equal(t, []domain.CellKey{
		{Environment: "gpu", Platform: domain.PlatformLinux64},
		{Environment: "lint", Platform: domain.PlatformLinux64},
		{Environment: "lint", Platform: domain.PlatformOSXArm64},
	}, keys)

	gpu, ok := ws.Cell(keys[0])
	require.True(t, ok)
	python := gpu.SpecsFor(domain.EcosystemConda)
	require.Len(t, python, 2)
	assert.Equal(t, "cudatoolkit", python[0].Name)
	assert.Equal(t, ">=3.11,<3.13", python[1].Constraint)
	assert.Equal(t, []string{"https://conda.example/main", "https://conda.example/nvidia"}, gpu.Channels)
	assert.Contains(t, gpu.Virtual, domain.VirtualPackage{Name: "__cuda", Version: "12.2"})

	lintLinux, _ := ws.Cell(keys[1])
	lintMac, _ := ws.Cell(keys[2])
	assert.Len(t, lintLinux.Specs, 1)
	assert.Len(t, lintMac.Specs, 2)
	assert.Equal(t, []domain.Ecosystem{domain.EcosystemConda, domain.EcosystemPyPI}, lintMac.Ecosystems())
}

func TestBuildWorkspace_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *domain.Manifest)
		want   string
	}{
		{
			name: "undeclared feature",
			mutate: func(m *domain.Manifest) {
				m.Environments["test"] = &domain.EnvironmentDecl{Features: []string{"missing"}}
			},
			want: "undeclared feature",
		},
		{
			name: "unsupported platform",
			mutate: func(m *domain.Manifest) {
				m.Platforms = append(m.Platforms, "amiga-68k")
			},
			want: "unsupported platform",
		},
		{
			name: "empty platform intersection",
			mutate: func(m *domain.Manifest) {
				m.Features["win"] = &domain.Feature{Name: "win", Platforms: []domain.Platform{domain.PlatformWin64}}
				m.Environments["win"] = &domain.EnvironmentDecl{Features: []string{"win"}}
			},
			want: "no platforms",
		},
		{
			name: "bad constraint",
			mutate: func(m *domain.Manifest) {
				f := m.DefaultFeature()
				f.Dependencies = append(f.Dependencies, domain.DependencySpec{
					Ecosystem: domain.EcosystemConda, Name: "zlib", Constraint: ">=",
				})
			},
			want: "invalid version constraint",
		},
		{
			name: "conflicting sources",
			mutate: func(m *domain.Manifest) {
				a := conda(t, "numpy", "")
				a.Source = "https://conda.example/a"
				b := conda(t, "numpy", "")
				b.Source = "https://conda.example/b"
				m.DefaultFeature().Dependencies = append(m.DefaultFeature().Dependencies, a)
				m.Features["other"] = &domain.Feature{Name: "other", Dependencies: []domain.DependencySpec{b}}
				m.Environments["default"] = &domain.EnvironmentDecl{Features: []string{"other"}}
			},
			want: "conflicting source overrides",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := baseManifest(t)
			tt.mutate(m)

			ws, err := domain.BuildWorkspace(m)
			require.Error(t, err)
			assert.Nil(t, ws)
			assert.True(t, errors.Is(err, domain.ErrManifest))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestBuildWorkspace_FingerprintIsStableAndLocal(t *testing.T) {
	first, err := domain.BuildWorkspace(baseManifest(t))
	require.NoError(t, err)
	second, err := domain.BuildWorkspace(baseManifest(t))
	require.NoError(t, err)
	assert.Equal(t, first.Fingerprint(), second.Fingerprint())

	m := baseManifest(t)
	m.Features["dev"] = &domain.Feature{Name: "dev", Dependencies: []domain.DependencySpec{conda(t, "pytest", "")}}
	m.Environments["default"] = &domain.EnvironmentDecl{}
	m.Environments["dev"] = &domain.EnvironmentDecl{Features: []string{"dev"}}
	withDev, err := domain.BuildWorkspace(m)
	require.NoError(t, err)

	m.Features["dev"].Dependencies = append(m.Features["dev"].Dependencies, conda(t, "hypothesis", ""))
	changedDev, err := domain.BuildWorkspace(m)
	require.NoError(t, err)

	assert.NotEqual(t, withDev.Fingerprint(), changedDev.Fingerprint())
	for _, key := range withDev.Keys() {
		before, _ := withDev.Cell(key)
		after, _ := changedDev.Cell(key)
		if key.Environment == "dev" {
			assert.NotEqual(t, before.Fingerprint, after.Fingerprint, key.String())
		} else {
			assert.Equal(t, before.Fingerprint, after.Fingerprint, key.String())
		}
	}
}

func TestNewDependencySpec(t *testing.T) {
	s, err := domain.NewDependencySpec(domain.EcosystemPyPI, "Typing_Extensions", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "typing-extensions", s.Name)
	assert.Equal(t, domain.AnyVersion, s.Constraint)
	assert.Equal(t, "pypi:typing-extensions", s.String())

	_, err = domain.NewDependencySpec(domain.EcosystemPyPI, "flask", "", "py_0", "")
	require.Error(t, err)

	_, err = domain.NewDependencySpec(domain.EcosystemConda, "", "", "", "")
	require.Error(t, err)
}

func TestPlatformFor(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         domain.Platform
	}{
		{"linux", "amd64", domain.PlatformLinux64},
		{"linux", "arm64", domain.PlatformLinuxAarch64},
		{"darwin", "amd64", domain.PlatformOSX64},
		{"darwin", "arm64", domain.PlatformOSXArm64},
		{"windows", "amd64", domain.PlatformWin64},
	}
	for _, tt := range tests {
		got, err := domain.PlatformFor(tt.goos, tt.goarch)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := domain.PlatformFor("plan9", "amd64")
	require.Error(t, err)
	_, err = domain.PlatformFor("windows", "arm64")
	require.Error(t, err)
}
