package domain

import (
	"cmp"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// ResolvedRecord is one package chosen by a solver for a cell.
type ResolvedRecord struct {
	Ecosystem Ecosystem
	Name      InternedString
	Version   InternedString
	Build     string
	// Checksum is a digest of the artifact, e.g. "sha256:<hex>".
	Checksum string
	// Source is the URL the artifact is fetched from.
	Source string
	// Depends lists the names of the records of the same cell this record depends on, sorted.
	Depends        []InternedString
	RequiresPython string
	// Extras are the optional dependency groups of a pypi record that were activated, sorted.
	Extras []string
}

// Identity returns the identity of the installed form of the record.
func (r ResolvedRecord) Identity() Identity {
	return Identity{
		Ecosystem: r.Ecosystem,
		Name:      r.Name.String(),
		Version:   r.Version.String(),
		Build:     r.Build,
		Checksum:  r.Checksum,
	}
}

// CheckPathSafe fails when the name, version or build of the record cannot be used as a
// single file name element of a prefix.
func (r ResolvedRecord) CheckPathSafe() error {
	return CheckPathElements("name", r.Name.String(), "version", r.Version.String(), "build", r.Build)
}

// CheckPathElements checks (field, value) pairs with CheckPathElement.
func CheckPathElements(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := CheckPathElement(pairs[i], pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// CheckPathElement fails with ErrUnsafeRecord when value contains a path separator,
// a parent reference or a NUL byte.
func CheckPathElement(field, value string) error {
	if strings.ContainsAny(value, "/\\\x00") || strings.Contains(value, "..") {
		return zerr.With(zerr.With(zerr.Wrap(ErrUnsafeRecord, ""), "field", field), "value", value)
	}
	return nil
}

// CompareRecords orders records by ecosystem, name, version and build.
func CompareRecords(a, b ResolvedRecord) int {
	return cmp.Or(
		cmp.Compare(a.Ecosystem, b.Ecosystem),
		a.Name.Compare(b.Name),
		a.Version.Compare(b.Version),
		cmp.Compare(a.Build, b.Build),
	)
}

// Identity names an installed package together with the checksum of its artifact.
type Identity struct {
	Ecosystem Ecosystem
	Name      string
	Version   string
	Build     string
	Checksum  string
}

// String renders the identity as "name@version".
func (i Identity) String() string {
	return i.Name + "@" + i.Version
}

// ResolvedGraph is the set of records chosen for one cell.
type ResolvedGraph struct {
	Records []ResolvedRecord
}

// Canonical returns a copy of the graph with records and dependency lists sorted.
func (g ResolvedGraph) Canonical() ResolvedGraph {
	out := ResolvedGraph{Records: make([]ResolvedRecord, len(g.Records))}
	for i, r := range g.Records {
		r.Extras = slices.Compact(slices.Sorted(slices.Values(r.Extras)))
		r.Depends = slices.Clone(r.Depends)
		slices.SortFunc(r.Depends, InternedString.Compare)
		r.Depends = slices.Compact(r.Depends)
		out.Records[i] = r
	}
	slices.SortFunc(out.Records, CompareRecords)
	return out
}

// Validate checks that no two records share a name.
func (g ResolvedGraph) Validate() error {
	seen := make(map[InternedString]Ecosystem, len(g.Records))
	for _, r := range g.Records {
		if eco, ok := seen[r.Name]; ok {
			return zerr.With(zerr.With(zerr.With(zerr.Wrap(ErrDuplicatePackage, ""), "package", r.Name.String()),
				"first", eco.String()), "second", r.Ecosystem.String())
		}
		seen[r.Name] = r.Ecosystem
	}
	return nil
}

// Lookup returns the record named name.
func (g ResolvedGraph) Lookup(name string) (ResolvedRecord, bool) {
	for _, r := range g.Records {
		if r.Name.String() == name {
			return r, true
		}
	}
	return ResolvedRecord{}, false
}

// CompareGraphs orders canonical graphs lexicographically by their (ecosystem, name, version) sequence.
func CompareGraphs(a, b ResolvedGraph) int {
	for i := range min(len(a.Records), len(b.Records)) {
		ra, rb := a.Records[i], b.Records[i]
		if c := cmp.Or(
			cmp.Compare(ra.Ecosystem, rb.Ecosystem),
			ra.Name.Compare(rb.Name),
			ra.Ecosystem.Scheme().Compare(ra.Version.String(), rb.Version.String()),
			cmp.Compare(ra.Build, rb.Build),
		); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a.Records), len(b.Records))
}
