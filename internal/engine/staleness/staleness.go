// Package staleness decides which cells of a lock document must be solved again.
package staleness

import (
	"go.trai.ch/strata/internal/core/domain"
)

// State summarizes the freshness of a lock document.
type State uint8

const (
	// Fresh means the lock document matches the workspace and no solve is needed.
	Fresh State = iota
	// PartiallyStale means some cells must be solved again. The others are carried over.
	PartiallyStale
	// FullyStale means every cell must be solved.
	FullyStale
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case PartiallyStale:
		return "partially stale"
	case FullyStale:
		return "fully stale"
	default:
		return "unknown"
	}
}

// Report is the result of Detect.
type Report struct {
	State State
	// Stale lists the cells to solve, sorted.
	Stale []domain.CellKey
	// Carried holds the locked cells whose fingerprint still matches the workspace.
	Carried []domain.LockedCell
	// Dropped lists the locked cells that are no longer part of the workspace.
	Dropped []domain.CellKey
	// Reason explains why the document is fully stale.
	Reason string
}

// Detect compares the lock document with the workspace. A nil doc or a non-nil loadErr
// makes every cell stale.
func Detect(ws *domain.Workspace, doc *domain.LockDocument, loadErr error) Report {
	if loadErr != nil {
		return fullyStale(ws, "lock document unreadable: "+loadErr.Error())
	}
	if doc == nil {
		return fullyStale(ws, "no lock document")
	}
	if doc.Version != domain.LockFormatVersion {
		return fullyStale(ws, "unsupported lock document version")
	}

	if doc.ManifestFingerprint == ws.Fingerprint() {
		return Report{State: Fresh, Carried: doc.Cells}
	}

	var r Report
	for i := range ws.Cells {
		cell := &ws.Cells[i]
		locked, ok := doc.Cell(cell.Key)
		if !ok || locked.Fingerprint != cell.Fingerprint {
			r.Stale = append(r.Stale, cell.Key)
			continue
		}
		r.Carried = append(r.Carried, *locked)
	}
	for _, c := range doc.Cells {
		if _, ok := ws.Cell(c.Key); !ok {
			r.Dropped = append(r.Dropped, c.Key)
		}
	}

	if len(r.Carried) == 0 {
		r.State = FullyStale
		r.Reason = "every cell changed"
		return r
	}
	// Stale may be empty here when only dropped cells differ.
	r.State = PartiallyStale
	return r
}

func fullyStale(ws *domain.Workspace, reason string) Report {
	return Report{
		State:  FullyStale,
		Stale:  ws.Keys(),
		Reason: reason,
	}
}
