package domain

import (
	"strings"
)

// SolveFailure describes why one ecosystem of one cell could not be solved.
type SolveFailure struct {
	Cell      CellKey
	Ecosystem Ecosystem
	// Conflicts is the minimal subset of constraints that cannot hold together, when derivable.
	Conflicts []string
	// Diagnostic is the opaque solver message used when no conflict set is available.
	Diagnostic string
	Cause      error
}

// Error renders the failure with its conflicts.
func (f *SolveFailure) Error() string {
	var b strings.Builder
	b.WriteString("cannot solve ")
	b.WriteString(f.Ecosystem.String())
	b.WriteString(" dependencies of ")
	b.WriteString(f.Cell.String())
	if f.Diagnostic != "" {
		b.WriteString(": ")
		b.WriteString(f.Diagnostic)
	}
	if len(f.Conflicts) > 0 {
		b.WriteString(": conflicting requirements: ")
		b.WriteString(strings.Join(f.Conflicts, "; "))
	}
	if f.Diagnostic == "" && len(f.Conflicts) == 0 && f.Cause != nil {
		b.WriteString(": ")
		b.WriteString(f.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes ErrSolveFailed and the underlying cause to errors.Is and errors.As.
func (f *SolveFailure) Unwrap() []error {
	if f.Cause != nil {
		return []error{ErrSolveFailed, f.Cause}
	}
	return []error{ErrSolveFailed}
}

// CellFailure records the error that prevented a cell from being solved.
type CellFailure struct {
	Key CellKey
	Err error
}

// Error renders the failure.
func (f CellFailure) Error() string {
	return f.Key.String() + ": " + f.Err.Error()
}

// Unwrap exposes the underlying error.
func (f CellFailure) Unwrap() error {
	return f.Err
}
