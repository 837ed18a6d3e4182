// Package table provides the immutable tabular snapshot model.
//
// A Table is an ordered list of named columns that all share one row count.
// Tables are never modified after construction: every transformation builds
// a new Table, usually sharing the unchanged columns of its input. This is
// what lets revision histories keep plain pointers to old snapshots.
package table

import (
	"errors"
	"fmt"
)

// ErrRaggedColumns is returned when columns passed to New differ in length.
var ErrRaggedColumns = errors.New("columns have different row counts")

// Column is a named, kinded sequence of cells.
// The zero value is an empty unnamed column.
type Column struct {
	name  string
	kind  Kind
	cells []Cell
}

// NewColumn creates a column, copying cells.
func NewColumn(name string, kind Kind, cells []Cell) Column {
	cp := make([]Cell, len(cells))
	copy(cp, cells)
	return Column{name: name, kind: kind, cells: cp}
}

// InferColumn creates a column whose kind is inferred from its cells.
func InferColumn(name string, cells []Cell) Column {
	return NewColumn(name, InferKind(cells), cells)
}

// newColumnOwned wraps cells without copying. Callers must not retain cells.
func newColumnOwned(name string, kind Kind, cells []Cell) Column {
	return Column{name: name, kind: kind, cells: cells}
}

// InferKind returns the common kind of the non-missing cells.
// All-missing input yields KindMissing and mixed input yields KindText.
func InferKind(cells []Cell) Kind {
	kind := KindMissing
	for _, c := range cells {
		if c.IsMissing() {
			continue
		}
		if kind == KindMissing {
			kind = c.Kind()
			continue
		}
		if c.Kind() != kind {
			return KindText
		}
	}
	return kind
}

// Name returns the column name.
func (c Column) Name() string { return c.name }

// Kind returns the column's coarse kind.
func (c Column) Kind() Kind { return c.kind }

// Len returns the number of cells.
func (c Column) Len() int { return len(c.cells) }

// Cell returns the cell at row i.
func (c Column) Cell(i int) Cell { return c.cells[i] }

// Cells returns a copy of the column's cells.
func (c Column) Cells() []Cell {
	cp := make([]Cell, len(c.cells))
	copy(cp, c.cells)
	return cp
}

// Renamed returns the same column under a new name. Cells are shared.
func (c Column) Renamed(name string) Column {
	return Column{name: name, kind: c.kind, cells: c.cells}
}

// Take returns a column built from the rows listed in idx, in that order.
// A negative index yields a missing cell. The kind is kept.
func (c Column) Take(idx []int) Column {
	cells := make([]Cell, len(idx))
	for i, src := range idx {
		if src >= 0 {
			cells[i] = c.cells[src]
		}
	}
	return newColumnOwned(c.name, c.kind, cells)
}

// Filled returns a column of n copies of cell.
func Filled(name string, kind Kind, n int, cell Cell) Column {
	cells := make([]Cell, n)
	for i := range cells {
		cells[i] = cell
	}
	return newColumnOwned(name, kind, cells)
}

// Table is an immutable snapshot.
type Table struct {
	cols []Column
	rows int
}

// New builds a table from columns. All columns must have the same length.
// Column names are not required to be unique.
func New(cols ...Column) (*Table, error) {
	rows := 0
	if len(cols) > 0 {
		rows = cols[0].Len()
	}
	for _, c := range cols {
		if c.Len() != rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d", ErrRaggedColumns, c.name, c.Len(), rows)
		}
	}
	cp := make([]Column, len(cols))
	copy(cp, cols)
	return &Table{cols: cp, rows: rows}, nil
}

// MustNew is like New but panics on error. Intended for tests and literals.
func MustNew(cols ...Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// EmptyTable returns a table with no columns and no rows.
func EmptyTable() *Table { return &Table{} }

// FromRows builds a table from a header and row-major cells. Short rows are
// padded with missing cells; extra cells are ignored. Column kinds are inferred.
func FromRows(header []string, rows [][]Cell) *Table {
	cols := make([]Column, len(header))
	for j, name := range header {
		cells := make([]Cell, len(rows))
		for i, row := range rows {
			if j < len(row) {
				cells[i] = row[j]
			}
		}
		cols[j] = newColumnOwned(name, InferKind(cells), cells)
	}
	return &Table{cols: cols, rows: len(rows)}
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Column returns column j.
func (t *Table) Column(j int) Column { return t.cols[j] }

// Columns returns a copy of the column list. Cell storage is shared.
func (t *Table) Columns() []Column {
	cp := make([]Column, len(t.cols))
	copy(cp, t.cols)
	return cp
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for j, c := range t.cols {
		names[j] = c.name
	}
	return names
}

// ColumnIndex returns the index of the first column named name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for j, c := range t.cols {
		if c.name == name {
			return j
		}
	}
	return -1
}

// HasColumn reports whether any column is named name.
func (t *Table) HasColumn(name string) bool { return t.ColumnIndex(name) >= 0 }

// Cell returns the cell at (row, col).
func (t *Table) Cell(row, col int) Cell { return t.cols[col].cells[row] }

// Row returns a copy of row i across all columns.
func (t *Table) Row(i int) []Cell {
	row := make([]Cell, len(t.cols))
	for j, c := range t.cols {
		row[j] = c.cells[i]
	}
	return row
}

// Equal reports whether two tables have the same column names, kinds and cells.
func (t *Table) Equal(o *Table) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || t.rows != o.rows || len(t.cols) != len(o.cols) {
		return false
	}
	for j := range t.cols {
		a, b := t.cols[j], o.cols[j]
		if a.name != b.name || a.kind != b.kind {
			return false
		}
		for i := range a.cells {
			if a.cells[i] != b.cells[i] {
				return false
			}
		}
	}
	return true
}
