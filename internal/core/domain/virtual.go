package domain

import (
	"cmp"
	"slices"
	"strings"
)

// VirtualPackagePrefix marks names that describe the host system rather than installable packages.
const VirtualPackagePrefix = "__"

// Default host assumptions used when a manifest declares no system requirements.
const (
	DefaultLinuxVersion = "4.18"
	DefaultGlibcVersion = "2.28"
	DefaultMacOSVersion = "13.0"
)

// VirtualPackage is a system capability the conda solver treats as already installed.
type VirtualPackage struct {
	Name    string
	Version string
}

// SystemRequirements declares minimum host capabilities.
type SystemRequirements struct {
	Linux string
	Libc  string
	Cuda  string
	MacOS string
}

// IsVirtual reports whether name refers to a virtual package.
func IsVirtual(name string) bool {
	return strings.HasPrefix(name, VirtualPackagePrefix)
}

// merge combines two requirement sets keeping the higher minimum of each field.
func (r SystemRequirements) merge(other SystemRequirements) SystemRequirements {
	pick := func(a, b string) string {
		if a == "" {
			return b
		}
		if b == "" {
			return a
		}
		if EcosystemConda.Scheme().Compare(a, b) >= 0 {
			return a
		}
		return b
	}
	return SystemRequirements{
		Linux: pick(r.Linux, other.Linux),
		Libc:  pick(r.Libc, other.Libc),
		Cuda:  pick(r.Cuda, other.Cuda),
		MacOS: pick(r.MacOS, other.MacOS),
	}
}

// VirtualPackagesFor returns the virtual packages a platform offers under the given requirements, sorted by name.
func VirtualPackagesFor(p Platform, req SystemRequirements) []VirtualPackage {
	orDefault := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}

	var out []VirtualPackage
	switch p.OS() {
	case "linux":
		out = append(out,
			VirtualPackage{Name: "__linux", Version: orDefault(req.Linux, DefaultLinuxVersion)},
			VirtualPackage{Name: "__glibc", Version: orDefault(req.Libc, DefaultGlibcVersion)},
			VirtualPackage{Name: "__unix", Version: "0"},
		)
	case "osx":
		out = append(out,
			VirtualPackage{Name: "__osx", Version: orDefault(req.MacOS, DefaultMacOSVersion)},
			VirtualPackage{Name: "__unix", Version: "0"},
		)
	case "win":
		out = append(out, VirtualPackage{Name: "__win", Version: "0"})
	}
	if req.Cuda != "" {
		out = append(out, VirtualPackage{Name: "__cuda", Version: req.Cuda})
	}
	slices.SortFunc(out, func(a, b VirtualPackage) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}
