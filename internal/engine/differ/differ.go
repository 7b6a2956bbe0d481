// Package differ computes the operations that bring an installed prefix in line with a locked cell.
package differ

import (
	"cmp"
	"slices"

	"go.trai.ch/strata/internal/core/domain"
)

// Diff returns the operations turning prefix into the state described by records.
// Removals come first with dependents before their dependencies, then installs and
// relinks with dependencies before their dependents. A nil prefix is empty.
// Diff returns nil when prefix already matches records.
func Diff(records []domain.ResolvedRecord, prefix *domain.PrefixRecord) []domain.Operation {
	desired := make(map[key]domain.ResolvedRecord, len(records))
	byName := make(map[string]domain.ResolvedRecord, len(records))
	for _, r := range records {
		desired[recordKey(r)] = r
		byName[r.Name.String()] = r
	}

	var installed []domain.InstalledPackage
	if prefix != nil {
		installed = prefix.Packages
	}

	var (
		removes  []node
		installs []domain.ResolvedRecord
		relinks  []domain.ResolvedRecord
		present  = make(map[key]bool, len(installed))
	)

	for _, pkg := range installed {
		k := key{eco: pkg.Identity.Ecosystem, name: pkg.Identity.Name}
		present[k] = true
		n := node{eco: k.eco, name: k.name, deps: pkg.Depends}
		want, ok := desired[k]
		switch {
		case !ok:
			removes = append(removes, n.withRemove(pkg.Identity))
		case want.Identity() != pkg.Identity:
			removes = append(removes, n.withRemove(pkg.Identity))
			installs = append(installs, want)
		case !slices.Equal(LinksFor(want, byName), pkg.LinkedAgainst):
			relinks = append(relinks, want)
		}
	}
	for _, r := range records {
		if !present[recordKey(r)] {
			installs = append(installs, r)
		}
	}

	if len(removes)+len(installs)+len(relinks) == 0 {
		return nil
	}

	ops := make([]domain.Operation, 0, len(removes)+len(installs)+len(relinks))
	removeOrder := topoOrder(removes)
	slices.Reverse(removeOrder)
	for _, i := range removeOrder {
		ops = append(ops, domain.RemoveOp(removes[i].removed))
	}
	for _, i := range topoOrder(recordNodes(installs)) {
		r := installs[i]
		ops = append(ops, domain.InstallOp(r, LinksFor(r, byName)))
	}
	for _, i := range topoOrder(recordNodes(relinks)) {
		r := relinks[i]
		ops = append(ops, domain.RelinkOp(r, LinksFor(r, byName)))
	}
	return ops
}

// key identifies a package slot of a prefix. Both ecosystems may install the same name.
type key struct {
	eco  domain.Ecosystem
	name string
}

func recordKey(r domain.ResolvedRecord) key {
	return key{eco: r.Ecosystem, name: r.Name.String()}
}

// LinksFor returns the dependency checksums r is linked against when installed next to
// the records in byName, sorted by name. Dependencies missing from byName are skipped.
func LinksFor(r domain.ResolvedRecord, byName map[string]domain.ResolvedRecord) []domain.LinkRef {
	if len(r.Depends) == 0 {
		return nil
	}
	links := make([]domain.LinkRef, 0, len(r.Depends))
	for _, d := range r.Depends {
		dep, ok := byName[d.String()]
		if !ok {
			continue
		}
		links = append(links, domain.LinkRef{Name: d.String(), Checksum: dep.Checksum})
	}
	if len(links) == 0 {
		return nil
	}
	slices.SortFunc(links, func(a, b domain.LinkRef) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return slices.CompactFunc(links, func(a, b domain.LinkRef) bool { return a.Name == b.Name })
}

type node struct {
	eco     domain.Ecosystem
	name    string
	deps    []string
	removed domain.Identity
}

func (n node) withRemove(id domain.Identity) node {
	n.removed = id
	return n
}

func recordNodes(records []domain.ResolvedRecord) []node {
	out := make([]node, len(records))
	for i, r := range records {
		out[i] = node{eco: r.Ecosystem, name: r.Name.String(), deps: domain.Strings(r.Depends)}
	}
	return out
}

func compareNodes(a, b node) int {
	return cmp.Or(cmp.Compare(a.eco, b.eco), cmp.Compare(a.name, b.name))
}
