package domain

import (
	"cmp"
	"errors"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// AnyVersion is the constraint of an unconstrained dependency.
const AnyVersion = "*"

// DependencySpec is a requested package with its constraints. It is immutable once captured for a cell.
type DependencySpec struct {
	Ecosystem  Ecosystem
	Name       string
	Constraint string
	// Build is a glob over build strings. Only conda specs carry one.
	Build string
	// Source overrides the channel or index URL the package is taken from.
	Source string
	// Extras are the optional dependency groups requested for a pypi package, normalized and sorted.
	Extras []string
}

// NewDependencySpec normalizes the name and validates the constraint of a spec.
func NewDependencySpec(eco Ecosystem, name, constraint, build, source string) (DependencySpec, error) {
	normalized := NormalizeName(eco, name)
	if normalized == "" || strings.ContainsAny(normalized, " \t,<>=!~|") {
		return DependencySpec{}, zerr.With(zerr.Wrap(ErrInvalidPackageName, ""), "name", name)
	}
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		constraint = AnyVersion
	}
	if _, err := eco.Scheme().Parse(constraint); err != nil {
		return DependencySpec{}, zerr.With(errors.Join(ErrInvalidConstraint, err), "package", normalized)
	}
	if build != "" && eco != EcosystemConda {
		return DependencySpec{}, zerr.With(zerr.With(zerr.Wrap(ErrInvalidConstraint, ""), "package", normalized), "reason",
			"build constraints are only supported for conda packages")
	}
	return DependencySpec{
		Ecosystem:  eco,
		Name:       normalized,
		Constraint: constraint,
		Build:      strings.TrimSpace(build),
		Source:     strings.TrimSpace(source),
	}, nil
}

// WithExtras returns a copy of s that also requests extras. Only pypi specs carry extras.
func (s DependencySpec) WithExtras(extras ...string) (DependencySpec, error) {
	if len(extras) == 0 {
		return s, nil
	}
	if s.Ecosystem != EcosystemPyPI {
		return DependencySpec{}, zerr.With(zerr.With(zerr.Wrap(ErrInvalidConstraint, ""), "package", s.Name), "reason",
			"extras are only supported for pypi packages")
	}
	out := s
	out.Extras = slices.Clone(s.Extras)
	for _, e := range extras {
		e = NormalizeName(EcosystemPyPI, e)
		if e == "" || strings.ContainsAny(e, " \t,[]") {
			return DependencySpec{}, zerr.With(zerr.With(zerr.Wrap(ErrInvalidPackageName, "invalid extra"), "package", s.Name), "extra", e)
		}
		out.Extras = append(out.Extras, e)
	}
	slices.Sort(out.Extras)
	out.Extras = slices.Compact(out.Extras)
	return out, nil
}

// SplitExtras splits a requirement name of the form "name[extra1,extra2]".
func SplitExtras(name string) (string, []string) {
	base, rest, ok := strings.Cut(name, "[")
	if !ok {
		return strings.TrimSpace(name), nil
	}
	rest, _, _ = strings.Cut(rest, "]")
	var extras []string
	for e := range strings.SplitSeq(rest, ",") {
		if e = strings.TrimSpace(e); e != "" {
			extras = append(extras, e)
		}
	}
	return strings.TrimSpace(base), extras
}

// String renders the spec in a human readable form, e.g. "conda:numpy >=1.26 [py311*]".
func (s DependencySpec) String() string {
	var b strings.Builder
	b.WriteString(s.Ecosystem.String())
	b.WriteByte(':')
	b.WriteString(s.Name)
	if len(s.Extras) > 0 {
		b.WriteByte('[')
		b.WriteString(strings.Join(s.Extras, ","))
		b.WriteByte(']')
	}
	if s.Constraint != "" && s.Constraint != AnyVersion {
		b.WriteByte(' ')
		b.WriteString(s.Constraint)
	}
	if s.Build != "" {
		b.WriteString(" [")
		b.WriteString(s.Build)
		b.WriteByte(']')
	}
	if s.Source != "" {
		b.WriteString(" @ ")
		b.WriteString(s.Source)
	}
	return b.String()
}

// CompareSpecs orders specs by ecosystem then name.
func CompareSpecs(a, b DependencySpec) int {
	return cmp.Or(
		cmp.Compare(a.Ecosystem, b.Ecosystem),
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.Constraint, b.Constraint),
		cmp.Compare(a.Build, b.Build),
		cmp.Compare(a.Source, b.Source),
		slices.Compare(a.Extras, b.Extras),
	)
}

// mergeSpecs intersects two specs for the same package.
func mergeSpecs(a, b DependencySpec) (DependencySpec, error) {
	merged := a
	switch {
	case a.Source == "":
		merged.Source = b.Source
	case b.Source != "" && a.Source != b.Source:
		return DependencySpec{}, zerr.With(zerr.With(zerr.With(zerr.Wrap(ErrConflictingSource, ""),
			"package", a.Name), "first", a.Source), "second", b.Source)
	}
	merged.Constraint = joinConstraints(a.Constraint, b.Constraint)
	if len(b.Extras) > 0 {
		merged.Extras = slices.Compact(slices.Sorted(slices.Values(append(slices.Clone(a.Extras), b.Extras...))))
	}
	switch {
	case a.Build == "":
		merged.Build = b.Build
	case b.Build != "" && a.Build != b.Build:
		return DependencySpec{}, zerr.With(zerr.With(zerr.With(zerr.Wrap(ErrInvalidConstraint, ""),
			"package", a.Name), "first", a.Build), "second", b.Build)
	}
	return merged, nil
}

func joinConstraints(a, b string) string {
	switch {
	case a == AnyVersion || a == b:
		return b
	case b == AnyVersion:
		return a
	}
	if strings.Contains(a, "|") || strings.Contains(b, "|") {
		return joinAlternatives(a, b)
	}
	return a + "," + b
}

// joinAlternatives distributes a conjunction over "|" alternatives.
func joinAlternatives(a, b string) string {
	var out []string
	for left := range strings.SplitSeq(a, "|") {
		for right := range strings.SplitSeq(b, "|") {
			out = append(out, strings.TrimSpace(left)+","+strings.TrimSpace(right))
		}
	}
	return strings.Join(out, "|")
}
