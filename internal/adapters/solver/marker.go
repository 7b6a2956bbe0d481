package solver

import (
	"slices"
	"strings"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/version"
	"go.trai.ch/zerr"
)

// errMarker is returned when an environment marker cannot be parsed.
var errMarker = zerr.New("invalid environment marker")

// markerEnv holds the values environment markers are evaluated against.
type markerEnv struct {
	vars   map[string]string
	extras []string
}

// newMarkerEnv describes a cell platform with the given python interpreter version.
func newMarkerEnv(platform domain.Platform, python string) markerEnv {
	vars := map[string]string{
		"python_full_version":            python,
		"python_version":                 majorMinor(python),
		"implementation_name":            "cpython",
		"platform_python_implementation": "CPython",
		"implementation_version":         python,
	}
	switch platform.OS() {
	case "linux":
		vars["sys_platform"], vars["platform_system"], vars["os_name"] = "linux", "Linux", "posix"
	case "osx":
		vars["sys_platform"], vars["platform_system"], vars["os_name"] = "darwin", "Darwin", "posix"
	case "win":
		vars["sys_platform"], vars["platform_system"], vars["os_name"] = "win32", "Windows", "nt"
	}
	switch platform {
	case domain.PlatformLinux64, domain.PlatformOSX64, domain.PlatformWin64:
		vars["platform_machine"] = "x86_64"
		if platform == domain.PlatformWin64 {
			vars["platform_machine"] = "AMD64"
		}
	case domain.PlatformLinuxAarch64:
		vars["platform_machine"] = "aarch64"
	case domain.PlatformOSXArm64:
		vars["platform_machine"] = "arm64"
	}
	return markerEnv{vars: vars}
}

// withExtras returns a copy of env in which the given extras are active.
func (env markerEnv) withExtras(extras []string) markerEnv {
	env.extras = extras
	return env
}

func majorMinor(v string) string {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) < 2 {
		return v
	}
	return parts[0] + "." + parts[1]
}

// versionVars are compared with version semantics instead of as strings.
var versionVars = []string{"python_version", "python_full_version", "implementation_version"}

// evalMarker reports whether marker holds in env. An empty marker always holds.
func evalMarker(marker string, env markerEnv) (bool, error) {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return true, nil
	}
	toks, err := tokenizeMarker(marker)
	if err != nil {
		return false, zerr.With(err, "marker", marker)
	}
	p := &markerParser{toks: toks, env: env}
	ok, err := p.or()
	if err == nil && p.pos != len(p.toks) {
		err = zerr.With(zerr.Wrap(errMarker, "unexpected token"), "token", p.toks[p.pos].text)
	}
	if err != nil {
		return false, zerr.With(err, "marker", marker)
	}
	return ok, nil
}

type tokenKind uint8

const (
	tokIdent tokenKind = iota
	tokString
	tokOp
	tokOpen
	tokClose
)

type token struct {
	kind tokenKind
	text string
}

var markerOps = []string{"===", "==", "!=", "<=", ">=", "~=", "<", ">"}

func tokenizeMarker(s string) ([]token, error) {
	var out []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			out = append(out, token{kind: tokOpen, text: "("})
			i++
		case c == ')':
			out = append(out, token{kind: tokClose, text: ")"})
			i++
		case c == '"' || c == '\'':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return nil, zerr.Wrap(errMarker, "unterminated string")
			}
			out = append(out, token{kind: tokString, text: s[i+1 : i+1+end]})
			i += end + 2
		case isNameByte(c):
			j := i
			for j < len(s) && isNameByte(s[j]) {
				j++
			}
			out = append(out, token{kind: tokIdent, text: s[i:j]})
			i = j
		default:
			op := ""
			for _, candidate := range markerOps {
				if strings.HasPrefix(s[i:], candidate) {
					op = candidate
					break
				}
			}
			if op == "" {
				return nil, zerr.With(zerr.Wrap(errMarker, "unexpected character"), "character", string(c))
			}
			out = append(out, token{kind: tokOp, text: op})
			i += len(op)
		}
	}
	return out, nil
}

type markerParser struct {
	toks []token
	pos  int
	env  markerEnv
}

func (p *markerParser) peekIdent(word string) bool {
	return p.pos < len(p.toks) && p.toks[p.pos].kind == tokIdent && p.toks[p.pos].text == word
}

func (p *markerParser) or() (bool, error) {
	left, err := p.and()
	if err != nil {
		return false, err
	}
	for p.peekIdent("or") {
		p.pos++
		right, err := p.and()
		if err != nil {
			return false, err
		}
		left = left || right
	}
	return left, nil
}

func (p *markerParser) and() (bool, error) {
	left, err := p.atom()
	if err != nil {
		return false, err
	}
	for p.peekIdent("and") {
		p.pos++
		right, err := p.atom()
		if err != nil {
			return false, err
		}
		left = left && right
	}
	return left, nil
}

func (p *markerParser) atom() (bool, error) {
	if p.pos < len(p.toks) && p.toks[p.pos].kind == tokOpen {
		p.pos++
		v, err := p.or()
		if err != nil {
			return false, err
		}
		if p.pos >= len(p.toks) || p.toks[p.pos].kind != tokClose {
			return false, zerr.Wrap(errMarker, "missing closing parenthesis")
		}
		p.pos++
		return v, nil
	}

	lhs, err := p.operand()
	if err != nil {
		return false, err
	}
	op, err := p.operator()
	if err != nil {
		return false, err
	}
	rhs, err := p.operand()
	if err != nil {
		return false, err
	}
	return p.compare(lhs, op, rhs), nil
}

// operand is a variable name or a quoted literal.
type operand struct {
	variable string
	literal  string
}

func (p *markerParser) operand() (operand, error) {
	if p.pos >= len(p.toks) {
		return operand{}, zerr.Wrap(errMarker, "missing operand")
	}
	t := p.toks[p.pos]
	p.pos++
	switch t.kind {
	case tokString:
		return operand{literal: t.text}, nil
	case tokIdent:
		return operand{variable: t.text}, nil
	default:
		return operand{}, zerr.With(zerr.Wrap(errMarker, "unexpected token"), "token", t.text)
	}
}

func (p *markerParser) operator() (string, error) {
	if p.pos >= len(p.toks) {
		return "", zerr.Wrap(errMarker, "missing operator")
	}
	t := p.toks[p.pos]
	switch {
	case t.kind == tokOp:
		p.pos++
		return t.text, nil
	case t.kind == tokIdent && t.text == "in":
		p.pos++
		return "in", nil
	case t.kind == tokIdent && t.text == "not" && p.pos+1 < len(p.toks) && p.toks[p.pos+1].text == "in":
		p.pos += 2
		return "not in", nil
	}
	return "", zerr.With(zerr.Wrap(errMarker, "expected operator"), "token", t.text)
}

func (p *markerParser) value(o operand) string {
	if o.variable == "" {
		return o.literal
	}
	return p.env.vars[o.variable]
}

func (p *markerParser) compare(lhs operand, op string, rhs operand) bool {
	if lhs.variable == "extra" || rhs.variable == "extra" {
		return p.compareExtra(lhs, op, rhs)
	}

	left, right := p.value(lhs), p.value(rhs)
	switch op {
	case "in":
		return strings.Contains(right, left)
	case "not in":
		return !strings.Contains(right, left)
	}

	if slices.Contains(versionVars, lhs.variable) || slices.Contains(versionVars, rhs.variable) {
		if ok, matched := compareVersions(left, op, right); ok {
			return matched
		}
	}
	switch op {
	case "==", "===":
		return left == right
	case "!=":
		return left != right
	case "<":
		return left < right
	case "<=":
		return left <= right
	case ">":
		return left > right
	case ">=":
		return left >= right
	}
	return false
}

// compareExtra holds when one of the active extras satisfies the comparison.
func (p *markerParser) compareExtra(lhs operand, op string, rhs operand) bool {
	want := lhs.literal
	if lhs.variable == "extra" {
		want = rhs.literal
	}
	want = domain.NormalizeName(domain.EcosystemPyPI, want)
	active := slices.Contains(p.env.extras, want)
	if op == "!=" || op == "not in" {
		return !active
	}
	return active
}

// compareVersions evaluates "left op right" with the pypi version ordering.
// ok is false when right is not a valid version bound.
func compareVersions(left, op, right string) (ok, matched bool) {
	c, err := version.PyPI.Parse(op + right)
	if err != nil {
		return false, false
	}
	return true, c.Matches(left)
}
