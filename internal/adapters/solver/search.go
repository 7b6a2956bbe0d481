package solver

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strconv"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/version"
	"go.trai.ch/zerr"
)

// DefaultMaxSteps bounds the number of search states explored for one solve.
const DefaultMaxSteps = 100_000

// candidate is an index entry that can satisfy a name, or a package the solve does not own.
type candidate struct {
	entry domain.IndexEntry
	// provided marks virtual packages and records supplied by an earlier ecosystem.
	provided bool
	// providedName is the record name dependents reference when provided is set.
	providedName string
	locked       bool
}

// problem is the static part of one solve: what is available and how dependencies are read.
type problem struct {
	scheme   version.Scheme
	index    *domain.Index
	provided map[string]candidate
	locked   map[string]domain.ResolvedRecord
	parseDep func(dep, origin string, env markerEnv) (requirement, bool, error)
	// env is the marker environment of the cell being solved.
	env markerEnv
	// accept filters index entries before any requirement is applied.
	accept            func(domain.IndexEntry) bool
	excludePrerelease bool
	maxSteps          int
}

// deadEnd is a name whose requirements admit no candidate.
type deadEnd struct {
	name string
	reqs []requirement
}

type state struct {
	assigned map[string]candidate
	reqs     map[string][]requirement
	// extras holds the extras whose dependencies were added for each assigned name.
	extras map[string][]string
}

func (s state) clone() state {
	out := state{
		assigned: maps.Clone(s.assigned),
		reqs:     make(map[string][]requirement, len(s.reqs)),
		extras:   maps.Clone(s.extras),
	}
	for k, v := range s.reqs {
		out.reqs[k] = slices.Clone(v)
	}
	return out
}

type search struct {
	p     *problem
	steps int
	first *deadEnd
}

// all returns every candidate for name before requirements are applied, in preference order.
func (p *problem) all(name string) []candidate {
	if c, ok := p.provided[name]; ok {
		return []candidate{c}
	}
	entries := p.index.Candidates(name)
	out := make([]candidate, 0, len(entries))
	for _, e := range entries {
		if p.accept != nil && !p.accept(e) {
			continue
		}
		c := candidate{entry: e}
		if l, ok := p.locked[name]; ok && l.Version.String() == e.Version && l.Build == e.Build {
			c.locked = true
		}
		out = append(out, c)
	}
	slices.SortStableFunc(out, p.prefer)
	return out
}

// prefer orders locked candidates first, then newer versions, higher build numbers and stable build strings.
func (p *problem) prefer(a, b candidate) int {
	if a.locked != b.locked {
		if a.locked {
			return -1
		}
		return 1
	}
	return cmp.Or(
		-p.scheme.Compare(a.entry.Version, b.entry.Version),
		-cmp.Compare(a.entry.BuildNumber, b.entry.BuildNumber),
		cmp.Compare(a.entry.Build, b.entry.Build),
		cmp.Compare(a.entry.Channel, b.entry.Channel),
		cmp.Compare(a.entry.Subdir, b.entry.Subdir),
	)
}

func satisfiesAll(c candidate, reqs []requirement) bool {
	for _, r := range reqs {
		if !r.matches(c.entry) {
			return false
		}
	}
	return true
}

// viable returns the candidates of name that satisfy reqs.
func (p *problem) viable(name string, reqs []requirement) []candidate {
	var out, pre []candidate
	allowPre := !p.excludePrerelease || slices.ContainsFunc(reqs, func(r requirement) bool {
		return r.constraint.MentionsPrerelease()
	})
	for _, c := range p.all(name) {
		if !satisfiesAll(c, reqs) {
			continue
		}
		if !allowPre && !c.provided && p.scheme.IsPrerelease(c.entry.Version) {
			pre = append(pre, c)
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return pre
	}
	return out
}

func (s *search) recordDeadEnd(name string, reqs []requirement) {
	if s.first != nil {
		return
	}
	s.first = &deadEnd{name: name, reqs: slices.Clone(reqs)}
}

// run searches for an assignment satisfying roots.
func (s *search) run(ctx context.Context, roots []requirement) (state, bool, error) {
	st := state{
		assigned: make(map[string]candidate),
		reqs:     make(map[string][]requirement),
		extras:   make(map[string][]string),
	}
	for _, r := range roots {
		st.reqs[r.name] = append(st.reqs[r.name], r)
	}
	return s.step(ctx, st)
}

func (s *search) step(ctx context.Context, st state) (state, bool, error) {
	if err := ctx.Err(); err != nil {
		return st, false, err
	}
	s.steps++
	if s.steps > s.p.maxSteps {
		return st, false, zerr.With(zerr.Wrap(domain.ErrSolverStepLimit, ""), "steps", s.p.maxSteps)
	}

	name, cands := s.nextOpen(st)
	if name == "" {
		return st, true, nil
	}
	if len(cands) == 0 {
		s.recordDeadEnd(name, st.reqs[name])
		return st, false, nil
	}

	for _, c := range cands {
		next, ok, err := s.assign(st, name, c)
		if err != nil {
			return st, false, err
		}
		if !ok {
			continue
		}
		final, done, err := s.step(ctx, next)
		if err != nil || done {
			return final, done, err
		}
	}
	return st, false, nil
}

// nextOpen picks the unassigned name with the fewest viable candidates, ties broken by name.
func (s *search) nextOpen(st state) (string, []candidate) {
	best := ""
	var bestCands []candidate
	for _, name := range slices.Sorted(maps.Keys(st.reqs)) {
		if _, done := st.assigned[name]; done {
			continue
		}
		cands := s.p.viable(name, st.reqs[name])
		if best == "" || len(cands) < len(bestCands) {
			best, bestCands = name, cands
			if len(cands) == 0 {
				break
			}
		}
	}
	return best, bestCands
}

// assign selects c for name and adds its dependencies as requirements.
// A requirement asking for new extras of an assigned name adds the dependencies those extras gate.
func (s *search) assign(st state, name string, c candidate) (state, bool, error) {
	next := st.clone()
	next.assigned[name] = c
	if c.provided {
		return next, true, nil
	}
	pending := []string{name}
	for len(pending) > 0 {
		current := pending[0]
		pending = pending[1:]
		chosen := next.assigned[current]
		prev, expanded := next.extras[current]
		active := requestedExtras(next.reqs[current])
		next.extras[current] = active

		origin := chosen.entry.Name + " " + chosen.entry.Version
		for _, dep := range chosen.entry.Depends {
			r, ok, err := s.p.parseDep(dep, origin, s.p.env.withExtras(active))
			if err != nil {
				return st, false, zerr.With(err, "package", origin)
			}
			if !ok {
				continue
			}
			if expanded {
				if _, before, _ := s.p.parseDep(dep, origin, s.p.env.withExtras(prev)); before {
					continue
				}
			}
			next.reqs[r.name] = append(next.reqs[r.name], r)
			target, done := next.assigned[r.name]
			if !done {
				continue
			}
			if !r.matches(target.entry) {
				if len(s.p.viable(r.name, next.reqs[r.name])) == 0 {
					s.recordDeadEnd(r.name, next.reqs[r.name])
				}
				return st, false, nil
			}
			if !target.provided && hasNewExtras(r.extras, next.extras[r.name]) && !slices.Contains(pending, r.name) {
				pending = append(pending, r.name)
			}
		}
	}
	return next, true, nil
}

func hasNewExtras(requested, active []string) bool {
	for _, e := range requested {
		if !slices.Contains(active, e) {
			return true
		}
	}
	return false
}

// minimalConflict reduces the requirements of a dead end to a subset in which every member is needed.
func (p *problem) minimalConflict(d *deadEnd) []requirement {
	all := p.all(d.name)
	unsat := func(reqs []requirement) bool {
		for _, c := range all {
			if satisfiesAll(c, reqs) {
				return false
			}
		}
		return true
	}

	kept := slices.Clone(d.reqs)
	for i := 0; i < len(kept); {
		without := slices.Delete(slices.Clone(kept), i, i+1)
		if len(without) > 0 && unsat(without) {
			kept = without
			continue
		}
		i++
	}
	return kept
}

func (s *search) failure(task domain.CellKey, eco domain.Ecosystem) *domain.SolveFailure {
	f := &domain.SolveFailure{Cell: task, Ecosystem: eco, Cause: domain.ErrUnsatisfiable}
	if s.first == nil {
		f.Diagnostic = "no combination of candidates satisfies the requirements after " +
			strconv.Itoa(s.steps) + " steps"
		return f
	}
	if len(s.p.all(s.first.name)) == 0 {
		f.Diagnostic = "nothing provides " + s.first.name
		if len(s.first.reqs) > 0 {
			f.Conflicts = []string{s.first.reqs[0].String()}
		}
		return f
	}
	for _, r := range s.p.minimalConflict(s.first) {
		f.Conflicts = append(f.Conflicts, r.String())
	}
	if c, ok := s.p.provided[s.first.name]; ok {
		f.Diagnostic = c.providedName + " " + c.entry.Version + " is already provided"
	}
	return f
}
