package domain

import (
	"slices"
	"strconv"
)

// LockFormatVersion is the only lock document format version this build reads and writes.
const LockFormatVersion = 1

// LockedCell is the resolved graph of one cell together with the fingerprint it was solved from.
type LockedCell struct {
	Key         CellKey
	Fingerprint string
	Records     []ResolvedRecord
}

// LockDocument is the canonical, persisted result of solving a workspace.
type LockDocument struct {
	Version             int
	ManifestFingerprint string
	ContentHash         string
	// Cells is sorted by key.
	Cells []LockedCell
}

// Cell returns the locked cell with the given key.
func (d *LockDocument) Cell(key CellKey) (*LockedCell, bool) {
	if d == nil {
		return nil, false
	}
	i, ok := slices.BinarySearchFunc(d.Cells, key, func(c LockedCell, k CellKey) int {
		return CompareCellKeys(c.Key, k)
	})
	if !ok {
		return nil, false
	}
	return &d.Cells[i], true
}

// CellFingerprints returns the (key, fingerprint) pairs of every cell in the document.
func (d *LockDocument) CellFingerprints() []CellFingerprint {
	out := make([]CellFingerprint, len(d.Cells))
	for i, c := range d.Cells {
		out[i] = CellFingerprint{Key: c.Key, Fingerprint: c.Fingerprint}
	}
	return out
}

// ComputeContentHash digests the canonical body of the document: its version, manifest fingerprint and cells.
func (d *LockDocument) ComputeContentHash() string {
	f := newFingerprinter()
	f.field("strata-lock", strconv.Itoa(d.Version), d.ManifestFingerprint)
	f.section("cells", len(d.Cells))
	for _, c := range d.Cells {
		f.field(c.Key.Environment, string(c.Key.Platform), c.Fingerprint)
		f.section("records", len(c.Records))
		for _, r := range c.Records {
			f.field(r.Ecosystem.String(), r.Name.String(), r.Version.String(), r.Build,
				r.Checksum, r.Source, r.RequiresPython)
			f.section("depends", len(r.Depends))
			f.field(Strings(r.Depends)...)
			if len(r.Extras) > 0 {
				f.section("extras", len(r.Extras))
				f.field(r.Extras...)
			}
		}
	}
	return f.sum()
}
