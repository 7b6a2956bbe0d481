package solver

import (
	"path"
	"slices"
	"strings"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/version"
	"go.trai.ch/zerr"
)

// rootOrigin names the workspace as the origin of top-level requirements.
const rootOrigin = "workspace"

// requirement is one constraint on a package name together with what imposed it.
type requirement struct {
	name       string
	constraint version.Constraint
	build      string
	source     string
	// extras are the optional feature sets requested for a pypi package.
	extras []string
	origin string
}

func (r requirement) spec() string {
	var b strings.Builder
	b.WriteString(r.name)
	if len(r.extras) > 0 {
		b.WriteString("[" + strings.Join(r.extras, ",") + "]")
	}
	if c := r.constraint.String(); c != domain.AnyVersion {
		b.WriteByte(' ')
		b.WriteString(c)
	}
	if r.build != "" {
		b.WriteByte(' ')
		b.WriteString(r.build)
	}
	return b.String()
}

// String renders the requirement for conflict reports, e.g. "pandas 2.1.0 requires numpy <2".
func (r requirement) String() string {
	return r.origin + " requires " + r.spec()
}

func (r requirement) matches(e domain.IndexEntry) bool {
	if !r.constraint.Matches(e.Version) {
		return false
	}
	if r.build != "" && r.build != "*" {
		if ok, err := path.Match(r.build, e.Build); err != nil || !ok {
			return false
		}
	}
	if r.source != "" && e.Channel != "" && strings.TrimSuffix(r.source, "/") != strings.TrimSuffix(e.Channel, "/") {
		return false
	}
	return true
}

func rootRequirement(s domain.DependencySpec) (requirement, error) {
	c, err := s.Ecosystem.Scheme().Parse(s.Constraint)
	if err != nil {
		return requirement{}, zerr.With(err, "package", s.Name)
	}
	return requirement{
		name:       s.Name,
		constraint: c,
		build:      s.Build,
		source:     s.Source,
		extras:     slices.Clone(s.Extras),
		origin:     rootOrigin,
	}, nil
}

func isNameByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' ||
		b == '_' || b == '-' || b == '.'
}

func splitName(dep string) (string, string) {
	dep = strings.TrimSpace(dep)
	i := 0
	for i < len(dep) && isNameByte(dep[i]) {
		i++
	}
	return dep[:i], strings.TrimSpace(dep[i:])
}

// parseCondaDep parses a conda match spec of the form "name [version [build]]".
func parseCondaDep(dep, origin string, _ markerEnv) (requirement, bool, error) {
	name, rest := splitName(dep)
	if name == "" {
		return requirement{}, false, zerr.With(zerr.Wrap(domain.ErrInvalidPackageName, ""), "dependency", dep)
	}
	fields := strings.Fields(rest)
	constraint := ""
	build := ""
	if len(fields) > 0 {
		constraint = fields[0]
	}
	if len(fields) > 1 {
		build = fields[1]
	}
	c, err := version.Conda.Parse(constraint)
	if err != nil {
		return requirement{}, false, zerr.With(err, "dependency", dep)
	}
	return requirement{
		name:       domain.NormalizeName(domain.EcosystemConda, name),
		constraint: c,
		build:      build,
		origin:     origin,
	}, true, nil
}

// parsePyPIDep parses a requirement string of the form "name[extras] (constraint); marker".
// Requirements whose marker does not hold in env are skipped.
func parsePyPIDep(dep, origin string, env markerEnv) (requirement, bool, error) {
	spec, marker, _ := strings.Cut(dep, ";")
	applies, err := evalMarker(marker, env)
	if err != nil {
		return requirement{}, false, zerr.With(err, "dependency", dep)
	}
	if !applies {
		return requirement{}, false, nil
	}
	name, rest := splitName(spec)
	if name == "" {
		return requirement{}, false, zerr.With(zerr.Wrap(domain.ErrInvalidPackageName, ""), "dependency", dep)
	}
	var extras []string
	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return requirement{}, false, zerr.With(zerr.Wrap(domain.ErrInvalidConstraint, "unterminated extras"), "dependency", dep)
		}
		for extra := range strings.SplitSeq(rest[1:end], ",") {
			if extra = strings.TrimSpace(extra); extra != "" {
				extras = append(extras, domain.NormalizeName(domain.EcosystemPyPI, extra))
			}
		}
		slices.Sort(extras)
		extras = slices.Compact(extras)
		rest = rest[end+1:]
	}
	rest = strings.TrimSpace(rest)
	rest = strings.TrimSuffix(strings.TrimPrefix(rest, "("), ")")
	rest = strings.ReplaceAll(rest, " ", "")
	c, err := version.PyPI.Parse(rest)
	if err != nil {
		return requirement{}, false, zerr.With(err, "dependency", dep)
	}
	return requirement{
		name:       domain.NormalizeName(domain.EcosystemPyPI, name),
		constraint: c,
		extras:     extras,
		origin:     origin,
	}, true, nil
}

// requestedExtras is the union of the extras asked for by reqs.
func requestedExtras(reqs []requirement) []string {
	var out []string
	for _, r := range reqs {
		out = append(out, r.extras...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
