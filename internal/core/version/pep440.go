package version

import (
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
	"go.trai.ch/zerr"
)

// pep440Scheme orders and matches wheel versions with the PEP 440 rules, including the
// exclusive-comparison special cases for pre- and post-releases of the bound.
type pep440Scheme struct{}

func (pep440Scheme) Name() string {
	return "pypi"
}

func (pep440Scheme) Compare(a, b string) int {
	va, errA := pep440.Parse(a)
	vb, errB := pep440.Parse(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return va.Compare(vb)
}

func (pep440Scheme) IsPrerelease(v string) bool {
	pv, err := pep440.Parse(v)
	if err != nil {
		return false
	}
	return pv.IsPreRelease()
}

func (pep440Scheme) Parse(text string) (Constraint, error) {
	text = strings.TrimSpace(text)
	c := &pep440Constraint{text: text}
	if text == "" || text == "*" {
		return c, nil
	}
	if strings.Contains(text, "|") {
		return nil, invalid(text, "alternatives are not supported")
	}

	for raw := range strings.SplitSeq(text, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil, invalid(text, "empty clause")
		}
		if strings.HasPrefix(raw, "=") && !strings.HasPrefix(raw, "==") {
			return nil, invalid(raw, "single '=' is not a valid operator")
		}
		bound := strings.TrimSuffix(strings.TrimLeft(raw, "=!<>~ "), ".*")
		if bound == "" {
			return nil, invalid(raw, "missing version")
		}
		c.bounds = append(c.bounds, bound)
	}

	specs, err := pep440.NewSpecifiers(text)
	if err != nil {
		return nil, zerr.With(invalid(text, "malformed specifier"), "cause", err.Error())
	}
	c.specs = &specs
	return c, nil
}

type pep440Constraint struct {
	text   string
	bounds []string
	// specs is nil when the constraint matches everything.
	specs *pep440.Specifiers
}

func (c *pep440Constraint) Matches(v string) bool {
	if c.specs == nil {
		return true
	}
	pv, err := pep440.Parse(v)
	if err != nil {
		return false
	}
	return c.specs.Check(pv)
}

func (c *pep440Constraint) MentionsPrerelease() bool {
	for _, b := range c.bounds {
		if PyPI.IsPrerelease(b) {
			return true
		}
	}
	return false
}

func (c *pep440Constraint) String() string {
	if c.text == "" {
		return "*"
	}
	return c.text
}
