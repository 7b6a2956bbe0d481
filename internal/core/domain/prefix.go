package domain

import (
	"slices"
)

// InstalledPackage is the record an installer keeps for one package in a prefix.
type InstalledPackage struct {
	Identity Identity
	// Depends lists the names of the packages this one was linked against.
	Depends []string
	// LinkedAgainst records the dependency checksums at link time, sorted by name.
	LinkedAgainst []LinkRef
	Files         []string
}

// PrefixRecord is the installed state of one environment prefix.
type PrefixRecord struct {
	Path     string
	Packages []InstalledPackage
}

// Lookup returns the installed package with the given ecosystem and name.
func (p *PrefixRecord) Lookup(eco Ecosystem, name string) (*InstalledPackage, bool) {
	if p == nil {
		return nil, false
	}
	i := slices.IndexFunc(p.Packages, func(ip InstalledPackage) bool {
		return ip.Identity.Ecosystem == eco && ip.Identity.Name == name
	})
	if i < 0 {
		return nil, false
	}
	return &p.Packages[i], true
}
