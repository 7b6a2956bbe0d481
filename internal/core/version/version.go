// Package version implements the version orderings and constraint grammars of the supported
// package ecosystems.
package version

import (
	"strings"

	"go.trai.ch/zerr"
)

// ErrInvalid is returned when a constraint or version cannot be parsed.
var ErrInvalid = zerr.New("invalid version constraint")

// Scheme orders versions and parses constraints of one ecosystem.
type Scheme interface {
	// Name returns the ecosystem name of the scheme.
	Name() string
	// Compare returns -1, 0 or 1 when a sorts before, equal to or after b.
	Compare(a, b string) int
	// Parse parses a constraint expression.
	Parse(constraint string) (Constraint, error)
	// IsPrerelease reports whether v is a pre-release or development version.
	IsPrerelease(v string) bool
}

// Constraint is a parsed version constraint.
type Constraint interface {
	// Matches reports whether v satisfies the constraint.
	Matches(v string) bool
	// MentionsPrerelease reports whether one of the bounds is itself a pre-release.
	MentionsPrerelease() bool
	// String returns the constraint as written.
	String() string
}

var (
	// Conda is the version scheme of the binary ecosystem.
	Conda Scheme = &scheme{
		name:        "conda",
		compare:     compareConda,
		prefix:      condaHasPrefix,
		valid:       validConda,
		prerelease:  condaPrerelease,
		bareIsFuzzy: true,
		allowOr:     true,
		allowFuzzy:  true,
	}

	// PyPI is the version scheme of the wheel ecosystem.
	PyPI Scheme = pep440Scheme{}
)

type scheme struct {
	name        string
	compare     func(a, b string) int
	prefix      func(v, p string) bool
	valid       func(v string) bool
	prerelease  func(v string) bool
	bareIsFuzzy bool
	allowOr     bool
	allowFuzzy  bool
}

func (s *scheme) Name() string {
	return s.name
}

func (s *scheme) Compare(a, b string) int {
	return s.compare(a, b)
}

func (s *scheme) IsPrerelease(v string) bool {
	return s.prerelease(v)
}

type operator uint8

const (
	opEq operator = iota
	opNe
	opGe
	opLe
	opGt
	opLt
	opPrefix
	opNotPrefix
)

type term struct {
	op      operator
	version string
}

type constraint struct {
	s    *scheme
	text string
	// alternatives is a disjunction of conjunctions; an empty list matches everything.
	alternatives [][]term
}

// operators is ordered so that longer tokens are tried first.
var operators = []string{"===", "==", "!=", ">=", "<=", "~=", ">", "<", "="}

func (s *scheme) Parse(text string) (Constraint, error) {
	text = strings.TrimSpace(text)
	c := &constraint{s: s, text: text}
	if text == "" || text == "*" {
		return c, nil
	}

	alts := []string{text}
	if strings.Contains(text, "|") {
		if !s.allowOr {
			return nil, invalid(text, "alternatives are not supported")
		}
		alts = strings.Split(text, "|")
	}

	for _, alt := range alts {
		var conj []term
		for raw := range strings.SplitSeq(alt, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				return nil, invalid(text, "empty clause")
			}
			terms, err := s.parseTerm(raw)
			if err != nil {
				return nil, zerr.With(err, "constraint", text)
			}
			conj = append(conj, terms...)
		}
		c.alternatives = append(c.alternatives, conj)
	}
	return c, nil
}

func (s *scheme) parseTerm(raw string) ([]term, error) {
	op := ""
	for _, candidate := range operators {
		if strings.HasPrefix(raw, candidate) {
			op = candidate
			break
		}
	}
	ver := strings.TrimSpace(raw[len(op):])
	if ver == "" {
		return nil, invalid(raw, "missing version")
	}
	if ver == "*" && op == "" {
		return nil, nil
	}

	wildcard := strings.HasSuffix(ver, ".*") || (s.allowFuzzy && strings.HasSuffix(ver, "*"))
	base := strings.TrimSuffix(strings.TrimSuffix(ver, "*"), ".")
	if !wildcard {
		base = ver
	}
	if !s.valid(base) {
		return nil, invalid(raw, "malformed version")
	}

	switch op {
	case "":
		if wildcard || s.bareIsFuzzy {
			return []term{{op: opPrefix, version: base}}, nil
		}
		return []term{{op: opEq, version: base}}, nil
	case "==", "===":
		if wildcard {
			return []term{{op: opPrefix, version: base}}, nil
		}
		return []term{{op: opEq, version: base}}, nil
	case "=":
		if !s.allowFuzzy {
			return nil, invalid(raw, "single '=' is not a valid operator")
		}
		return []term{{op: opPrefix, version: base}}, nil
	case "!=":
		if wildcard {
			return []term{{op: opNotPrefix, version: base}}, nil
		}
		return []term{{op: opNe, version: base}}, nil
	case "~=":
		return nil, invalid(raw, "compatible release is not supported here")
	case ">=":
		return []term{{op: opGe, version: base}}, nil
	case "<=":
		return []term{{op: opLe, version: base}}, nil
	case ">":
		return []term{{op: opGt, version: base}}, nil
	default:
		return []term{{op: opLt, version: base}}, nil
	}
}

func invalid(text, reason string) error {
	return zerr.With(zerr.With(zerr.Wrap(ErrInvalid, ""), "constraint", text), "reason", reason)
}

func (c *constraint) Matches(v string) bool {
	if len(c.alternatives) == 0 {
		return true
	}
	for _, conj := range c.alternatives {
		if c.matchAll(conj, v) {
			return true
		}
	}
	return false
}

func (c *constraint) matchAll(conj []term, v string) bool {
	for _, t := range conj {
		if !c.match(t, v) {
			return false
		}
	}
	return true
}

func (c *constraint) match(t term, v string) bool {
	switch t.op {
	case opEq:
		return c.s.compare(v, t.version) == 0
	case opNe:
		return c.s.compare(v, t.version) != 0
	case opGe:
		return c.s.compare(v, t.version) >= 0
	case opLe:
		return c.s.compare(v, t.version) <= 0
	case opGt:
		return c.s.compare(v, t.version) > 0
	case opLt:
		return c.s.compare(v, t.version) < 0
	case opPrefix:
		return c.s.prefix(v, t.version)
	case opNotPrefix:
		return !c.s.prefix(v, t.version)
	}
	return false
}

func (c *constraint) MentionsPrerelease() bool {
	for _, conj := range c.alternatives {
		for _, t := range conj {
			if c.s.prerelease(t.version) {
				return true
			}
		}
	}
	return false
}

func (c *constraint) String() string {
	if c.text == "" {
		return "*"
	}
	return c.text
}
