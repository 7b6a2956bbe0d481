package domain

import (
	"regexp"
	"strings"

	"go.trai.ch/strata/internal/core/version"
	"go.trai.ch/zerr"
)

// Ecosystem identifies a package ecosystem. The set is closed and its order is the solve order.
type Ecosystem uint8

const (
	// EcosystemConda is the binary-distribution ecosystem. It is always solved first.
	EcosystemConda Ecosystem = iota
	// EcosystemPyPI is the wheel ecosystem, solved against the conda graph of the same cell.
	EcosystemPyPI
)

var ecosystemNames = [...]string{
	EcosystemConda: "conda",
	EcosystemPyPI:  "pypi",
}

// Ecosystems returns every ecosystem in solve order.
func Ecosystems() []Ecosystem {
	return []Ecosystem{EcosystemConda, EcosystemPyPI}
}

// ParseEcosystem parses an ecosystem name.
func ParseEcosystem(s string) (Ecosystem, error) {
	for i, name := range ecosystemNames {
		if name == s {
			return Ecosystem(i), nil
		}
	}
	return 0, zerr.With(zerr.Wrap(ErrUnknownEcosystem, ""), "ecosystem", s)
}

// String returns the ecosystem name.
func (e Ecosystem) String() string {
	if int(e) < len(ecosystemNames) {
		return ecosystemNames[e]
	}
	return "unknown"
}

// Scheme returns the version scheme of the ecosystem.
func (e Ecosystem) Scheme() version.Scheme {
	if e == EcosystemPyPI {
		return version.PyPI
	}
	return version.Conda
}

var pypiSeparators = regexp.MustCompile(`[-_.]+`)

// NormalizeName returns the canonical form of a package name in ecosystem e.
func NormalizeName(e Ecosystem, name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if e == EcosystemPyPI {
		return pypiSeparators.ReplaceAllString(name, "-")
	}
	return name
}
