package version

import (
	"strings"
)

type atomKind uint8

const (
	atomString atomKind = iota
	atomNumber
	atomPost
)

// atom is one run of digits or letters inside a conda version segment.
type atom struct {
	kind atomKind
	text string
}

type condaVersion struct {
	epoch    string
	segments [][]atom
	local    [][]atom
}

func parseConda(v string) condaVersion {
	v = strings.ToLower(strings.TrimSpace(v))
	var out condaVersion
	if i := strings.IndexByte(v, '!'); i >= 0 {
		out.epoch = trimZeros(v[:i])
		v = v[i+1:]
	}
	main, local, _ := strings.Cut(v, "+")
	out.segments = condaSegments(main)
	if local != "" {
		out.local = condaSegments(local)
	}
	return out
}

func condaSegments(v string) [][]atom {
	v = strings.ReplaceAll(v, "_", ".")
	v = strings.ReplaceAll(v, "-", ".")
	var segs [][]atom
	for seg := range strings.SplitSeq(v, ".") {
		if seg == "" {
			continue
		}
		var atoms []atom
		for len(seg) > 0 {
			n := runLength(seg)
			text := seg[:n]
			seg = seg[n:]
			switch {
			case isDigit(text[0]):
				atoms = append(atoms, atom{kind: atomNumber, text: trimZeros(text)})
			case text == "post":
				atoms = append(atoms, atom{kind: atomPost, text: text})
			default:
				if len(atoms) == 0 {
					atoms = append(atoms, atom{kind: atomNumber, text: "0"})
				}
				atoms = append(atoms, atom{kind: atomString, text: text})
			}
		}
		segs = append(segs, atoms)
	}
	return segs
}

func runLength(s string) int {
	digit := isDigit(s[0])
	n := 1
	for n < len(s) && isDigit(s[n]) == digit {
		n++
	}
	return n
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func trimZeros(s string) string {
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}

var zeroAtom = atom{kind: atomNumber, text: "0"}

func compareAtom(a, b atom) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	switch a.kind {
	case atomNumber:
		return compareDigits(a.text, b.text)
	case atomString:
		switch {
		case a.text == b.text:
			return 0
		case a.text == "dev":
			return -1
		case b.text == "dev":
			return 1
		}
		return strings.Compare(a.text, b.text)
	}
	return 0
}

// compareDigits compares two digit strings without leading zeros numerically.
func compareDigits(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func compareSegments(a, b [][]atom) int {
	n := max(len(a), len(b))
	for i := range n {
		sa, sb := segmentAt(a, i), segmentAt(b, i)
		m := max(len(sa), len(sb))
		for j := range m {
			if c := compareAtom(atomAt(sa, j), atomAt(sb, j)); c != 0 {
				return c
			}
		}
	}
	return 0
}

func segmentAt(segs [][]atom, i int) []atom {
	if i < len(segs) {
		return segs[i]
	}
	return []atom{zeroAtom}
}

func atomAt(atoms []atom, i int) atom {
	if i < len(atoms) {
		return atoms[i]
	}
	return zeroAtom
}

func compareConda(a, b string) int {
	va, vb := parseConda(a), parseConda(b)
	if c := compareDigits(epochOrZero(va.epoch), epochOrZero(vb.epoch)); c != 0 {
		return c
	}
	if c := compareSegments(va.segments, vb.segments); c != 0 {
		return c
	}
	switch {
	case len(va.local) == 0 && len(vb.local) == 0:
		return 0
	case len(va.local) == 0:
		return -1
	case len(vb.local) == 0:
		return 1
	}
	return compareSegments(va.local, vb.local)
}

func epochOrZero(e string) string {
	if e == "" {
		return "0"
	}
	return e
}

// condaHasPrefix reports whether every segment of p equals the matching segment of v.
func condaHasPrefix(v, p string) bool {
	vv, pv := parseConda(v), parseConda(p)
	if epochOrZero(vv.epoch) != epochOrZero(pv.epoch) {
		return false
	}
	for i, seg := range pv.segments {
		vs := segmentAt(vv.segments, i)
		m := max(len(seg), len(vs))
		for j := range m {
			if compareAtom(atomAt(vs, j), atomAt(seg, j)) != 0 {
				return false
			}
		}
	}
	return true
}

func validConda(v string) bool {
	if v == "" {
		return false
	}
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case isDigit(c), c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c == '.' || c == '_' || c == '+' || c == '!':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func condaPrerelease(v string) bool {
	for _, seg := range parseConda(v).segments {
		for _, a := range seg {
			if a.kind == atomString {
				return true
			}
		}
	}
	return false
}
