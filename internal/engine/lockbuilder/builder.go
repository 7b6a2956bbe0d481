// Package lockbuilder assembles solved cells into a canonical lock document.
package lockbuilder

import (
	"slices"

	"go.trai.ch/strata/internal/core/domain"
)

// Build merges freshly solved cells with cells carried over from a previous document.
// Cells that are not part of ws are dropped. A solved cell replaces a carried cell with the same key.
// The result does not depend on the order of solved or carried.
func Build(ws *domain.Workspace, solved, carried []domain.LockedCell) *domain.LockDocument {
	byKey := make(map[domain.CellKey]domain.LockedCell, len(solved)+len(carried))
	for _, c := range carried {
		if _, ok := ws.Cell(c.Key); ok {
			byKey[c.Key] = c
		}
	}
	for _, c := range solved {
		if _, ok := ws.Cell(c.Key); ok {
			byKey[c.Key] = c
		}
	}

	doc := &domain.LockDocument{
		Version: domain.LockFormatVersion,
		Cells:   make([]domain.LockedCell, 0, len(byKey)),
	}
	for _, c := range byKey {
		c.Records = domain.ResolvedGraph{Records: c.Records}.Canonical().Records
		doc.Cells = append(doc.Cells, c)
	}
	slices.SortFunc(doc.Cells, func(a, b domain.LockedCell) int {
		return domain.CompareCellKeys(a.Key, b.Key)
	})

	doc.ManifestFingerprint = domain.ManifestFingerprint(doc.CellFingerprints())
	doc.ContentHash = doc.ComputeContentHash()
	return doc
}
