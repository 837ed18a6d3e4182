// Package transform implements the pure table transformations of the
// workspace: structural edits, relational join, concatenation, pivot and
// unpivot, plus the non-mutating filter view.
//
// Every function reads one or two snapshots and returns a brand-new one; no
// input is ever modified. Argument checks run before any work, so a failed
// call has no effect on anything.
package transform

import "errors"

// NoColumn marks an unspecified column argument.
const NoColumn = -1

var (
	ErrNoColumnSelected      = errors.New("no column selected")
	ErrNoRowSelected         = errors.New("no row selected")
	ErrColumnOutOfRange      = errors.New("column index out of range")
	ErrRowOutOfRange         = errors.New("row index out of range")
	ErrColumnNotFound        = errors.New("column not found")
	ErrDuplicateColumnName   = errors.New("duplicate column name")
	ErrInvalidPivotSelection = errors.New("invalid pivot selection: values column must differ from the pivot column")
	ErrInsufficientColumns   = errors.New("insufficient columns: select at least two unique columns to unpivot")
	ErrUnsummable            = errors.New("values cannot be summed")
	ErrUnknownJoinKind       = errors.New("unknown join kind")
	ErrUnknownDirection      = errors.New("unknown append direction")
)
