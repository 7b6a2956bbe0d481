package domain

import (
	"cmp"
	"errors"
	"slices"

	"go.trai.ch/zerr"
)

// CellKey identifies one resolution problem: an environment on a platform.
type CellKey struct {
	Environment string
	Platform    Platform
}

// String renders the key as "environment/platform".
func (k CellKey) String() string {
	return k.Environment + "/" + string(k.Platform)
}

// CompareCellKeys orders keys by environment then platform.
func CompareCellKeys(a, b CellKey) int {
	return cmp.Or(
		cmp.Compare(a.Environment, b.Environment),
		cmp.Compare(a.Platform, b.Platform),
	)
}

// Cell is one (environment, platform) resolution problem with its merged inputs.
type Cell struct {
	Key       CellKey
	Specs     []DependencySpec
	Channels  []string
	IndexURLs []string
	Virtual   []VirtualPackage
	// Fingerprint digests every input above. Equal fingerprints mean equal solve problems.
	Fingerprint string
}

// SpecsFor returns the specs of one ecosystem.
func (c *Cell) SpecsFor(e Ecosystem) []DependencySpec {
	var out []DependencySpec
	for _, s := range c.Specs {
		if s.Ecosystem == e {
			out = append(out, s)
		}
	}
	return out
}

// Ecosystems returns the ecosystems the cell has dependencies in, in solve order.
func (c *Cell) Ecosystems() []Ecosystem {
	var out []Ecosystem
	for _, e := range Ecosystems() {
		if slices.ContainsFunc(c.Specs, func(s DependencySpec) bool { return s.Ecosystem == e }) {
			out = append(out, e)
		}
	}
	return out
}

// Sources returns the index sources used for ecosystem e.
func (c *Cell) Sources(e Ecosystem) []string {
	if e == EcosystemPyPI {
		return c.IndexURLs
	}
	return c.Channels
}

// Environment is a resolved environment of the workspace.
type Environment struct {
	Name      string
	Features  []string
	Platforms []Platform
}

// Workspace is the cell matrix derived from a manifest.
type Workspace struct {
	Root         string
	Name         string
	Settings     Settings
	Environments []Environment
	// Cells is sorted by key.
	Cells []Cell
}

// CellFingerprint pairs a cell key with its fingerprint.
type CellFingerprint struct {
	Key         CellKey
	Fingerprint string
}

// ManifestFingerprint digests a set of cell fingerprints independently of their order.
func ManifestFingerprint(cells []CellFingerprint) string {
	sorted := slices.Clone(cells)
	slices.SortFunc(sorted, func(a, b CellFingerprint) int {
		return CompareCellKeys(a.Key, b.Key)
	})
	f := newFingerprinter()
	f.section("cells", len(sorted))
	for _, c := range sorted {
		f.field(c.Key.Environment, string(c.Key.Platform), c.Fingerprint)
	}
	return f.sum()
}

// Fingerprint returns the manifest fingerprint of the workspace.
func (w *Workspace) Fingerprint() string {
	pairs := make([]CellFingerprint, len(w.Cells))
	for i, c := range w.Cells {
		pairs[i] = CellFingerprint{Key: c.Key, Fingerprint: c.Fingerprint}
	}
	return ManifestFingerprint(pairs)
}

// Cell returns the cell with the given key.
func (w *Workspace) Cell(key CellKey) (*Cell, bool) {
	i, ok := slices.BinarySearchFunc(w.Cells, key, func(c Cell, k CellKey) int {
		return CompareCellKeys(c.Key, k)
	})
	if !ok {
		return nil, false
	}
	return &w.Cells[i], true
}

// Environment returns the environment with the given name.
func (w *Workspace) Environment(name string) (*Environment, bool) {
	for i := range w.Environments {
		if w.Environments[i].Name == name {
			return &w.Environments[i], true
		}
	}
	return nil, false
}

// Keys returns the keys of every cell, sorted.
func (w *Workspace) Keys() []CellKey {
	keys := make([]CellKey, len(w.Cells))
	for i, c := range w.Cells {
		keys[i] = c.Key
	}
	return keys
}

// BuildWorkspace expands a manifest into its cell matrix.
func BuildWorkspace(m *Manifest) (*Workspace, error) {
	var errs []error

	platforms, err := validPlatforms(m.Platforms)
	if err != nil {
		errs = append(errs, err)
	}
	for _, f := range m.Features {
		if _, err := validPlatforms(f.Platforms); err != nil {
			errs = append(errs, zerr.With(err, "feature", f.Name))
		}
		for p := range f.Targets {
			if _, err := ParsePlatform(string(p)); err != nil {
				errs = append(errs, zerr.With(err, "feature", f.Name))
			}
		}
	}

	ws := &Workspace{Root: m.Root, Name: m.Name, Settings: m.Settings}
	for _, decl := range m.environmentDecls() {
		env, cells, err := buildEnvironment(m, decl, platforms)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ws.Environments = append(ws.Environments, env)
		ws.Cells = append(ws.Cells, cells...)
	}
	if len(errs) > 0 {
		return nil, errors.Join(append([]error{ErrManifest}, errs...)...)
	}

	slices.SortFunc(ws.Cells, func(a, b Cell) int {
		return CompareCellKeys(a.Key, b.Key)
	})
	return ws, nil
}

func validPlatforms(in []Platform) ([]Platform, error) {
	out := make([]Platform, 0, len(in))
	for _, p := range in {
		parsed, err := ParsePlatform(string(p))
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, parsed) {
			out = append(out, parsed)
		}
	}
	slices.Sort(out)
	return out, nil
}

func buildEnvironment(m *Manifest, decl *EnvironmentDecl, platforms []Platform) (Environment, []Cell, error) {
	env := Environment{Name: decl.Name}
	if !decl.NoDefaultFeature {
		env.Features = append(env.Features, DefaultFeatureName)
	}
	for _, name := range decl.Features {
		if !slices.Contains(env.Features, name) {
			env.Features = append(env.Features, name)
		}
	}

	features := make([]*Feature, 0, len(env.Features))
	for _, name := range env.Features {
		f, ok := m.Features[name]
		if !ok {
			if name == DefaultFeatureName {
				features = append(features, &Feature{Name: DefaultFeatureName})
				continue
			}
			return env, nil, zerr.With(zerr.With(zerr.Wrap(ErrUnknownFeature, ""), "environment", decl.Name), "feature", name)
		}
		features = append(features, f)
	}

	env.Platforms = slices.Clone(platforms)
	for _, f := range features {
		if len(f.Platforms) == 0 {
			continue
		}
		env.Platforms = slices.DeleteFunc(env.Platforms, func(p Platform) bool {
			return !slices.Contains(f.Platforms, p)
		})
	}
	if len(env.Platforms) == 0 {
		return env, nil, zerr.With(zerr.Wrap(ErrNoPlatforms, ""), "environment", decl.Name)
	}

	cells := make([]Cell, 0, len(env.Platforms))
	for _, p := range env.Platforms {
		cell, err := buildCell(m, CellKey{Environment: decl.Name, Platform: p}, features)
		if err != nil {
			return env, nil, err
		}
		cells = append(cells, cell)
	}
	return env, cells, nil
}

type specKey struct {
	eco  Ecosystem
	name string
}

func buildCell(m *Manifest, key CellKey, features []*Feature) (Cell, error) {
	cell := Cell{
		Key:       key,
		Channels:  slices.Clone(m.Channels),
		IndexURLs: slices.Clone(m.IndexURLs),
	}

	merged := make(map[specKey]DependencySpec)
	var reqs SystemRequirements
	for _, f := range features {
		cell.Channels = appendUnique(cell.Channels, f.Channels...)
		cell.IndexURLs = appendUnique(cell.IndexURLs, f.IndexURLs...)
		reqs = reqs.merge(f.SystemRequirements)

		specs := slices.Concat(f.Dependencies, f.Targets[key.Platform])
		for _, s := range specs {
			if _, err := s.Ecosystem.Scheme().Parse(s.Constraint); err != nil {
				return Cell{}, zerr.With(zerr.With(errors.Join(ErrInvalidConstraint, err),
					"package", s.Name), "feature", f.Name)
			}
			k := specKey{eco: s.Ecosystem, name: NormalizeName(s.Ecosystem, s.Name)}
			s.Name = k.name
			if s.Constraint == "" {
				s.Constraint = AnyVersion
			}
			prev, ok := merged[k]
			if !ok {
				merged[k] = s
				continue
			}
			next, err := mergeSpecs(prev, s)
			if err != nil {
				return Cell{}, zerr.With(zerr.With(err, "environment", key.Environment), "feature", f.Name)
			}
			merged[k] = next
		}
	}

	for _, s := range merged {
		cell.Specs = append(cell.Specs, s)
		if s.Source == "" {
			continue
		}
		if s.Ecosystem == EcosystemPyPI {
			cell.IndexURLs = appendUnique(cell.IndexURLs, s.Source)
		} else {
			cell.Channels = appendUnique(cell.Channels, s.Source)
		}
	}
	slices.SortFunc(cell.Specs, CompareSpecs)
	cell.Virtual = VirtualPackagesFor(key.Platform, reqs)
	cell.Fingerprint = cellFingerprint(&cell)
	return cell, nil
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if v != "" && !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}

func cellFingerprint(c *Cell) string {
	f := newFingerprinter()
	f.field(c.Key.Environment, string(c.Key.Platform))
	f.section("specs", len(c.Specs))
	for _, s := range c.Specs {
		f.field(s.Ecosystem.String(), s.Name, s.Constraint, s.Build, s.Source)
		if len(s.Extras) > 0 {
			f.section("extras", len(s.Extras))
			f.field(s.Extras...)
		}
	}
	f.section("virtual", len(c.Virtual))
	for _, v := range c.Virtual {
		f.field(v.Name, v.Version)
	}
	f.section("channels", len(c.Channels))
	f.field(c.Channels...)
	f.section("index-urls", len(c.IndexURLs))
	f.field(c.IndexURLs...)
	return f.sum()
}
