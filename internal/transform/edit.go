package transform

import (
	"fmt"
	"sort"

	"github.com/JonMunkholm/tabwork/internal/table"
)

// Edit is a structural edit of a single table.
type Edit interface {
	// Apply returns the edited snapshot. t is never modified.
	Apply(t *table.Table) (*table.Table, error)

	// Op names the edit for logs and the audit trail.
	Op() string
}

// InsertRows inserts one empty row above the first selected row, or below
// the last one when Below is set.
type InsertRows struct {
	Rows  []int
	Below bool
}

func (e InsertRows) Op() string {
	if e.Below {
		return "insert_row_below"
	}
	return "insert_row_above"
}

func (e InsertRows) Apply(t *table.Table) (*table.Table, error) {
	if len(e.Rows) == 0 {
		return nil, ErrNoRowSelected
	}
	for _, r := range e.Rows {
		// An empty table accepts row 0 so it can gain its first row.
		if r == 0 && t.NumRows() == 0 {
			continue
		}
		if err := checkRow(t, r); err != nil {
			return nil, err
		}
	}

	pos := minOf(e.Rows)
	if e.Below {
		pos = maxOf(e.Rows) + 1
	}
	if pos > t.NumRows() {
		pos = t.NumRows()
	}

	cols := t.Columns()
	for j, c := range cols {
		cells := make([]table.Cell, 0, c.Len()+1)
		for i := 0; i < pos; i++ {
			cells = append(cells, c.Cell(i))
		}
		cells = append(cells, table.Empty(c.Kind()))
		for i := pos; i < c.Len(); i++ {
			cells = append(cells, c.Cell(i))
		}
		cols[j] = table.NewColumn(c.Name(), c.Kind(), cells)
	}
	return table.New(cols...)
}

// InsertColumn inserts one empty text column named "New Column {n}" at the
// first selected column, or after the last one when Right is set. n is the
// position of the new column.
type InsertColumn struct {
	Columns []int
	Right   bool
}

func (e InsertColumn) Op() string {
	if e.Right {
		return "insert_column_right"
	}
	return "insert_column_left"
}

func (e InsertColumn) Apply(t *table.Table) (*table.Table, error) {
	if len(e.Columns) == 0 {
		return nil, ErrNoColumnSelected
	}
	for _, j := range e.Columns {
		if j == 0 && t.NumCols() == 0 {
			continue
		}
		if err := checkColumn(t, j); err != nil {
			return nil, err
		}
	}

	pos := minOf(e.Columns)
	if e.Right {
		pos = maxOf(e.Columns) + 1
	}
	if pos > t.NumCols() {
		pos = t.NumCols()
	}

	name := fmt.Sprintf("New Column %d", pos)
	if t.HasColumn(name) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateColumnName, name)
	}

	cols := t.Columns()
	added := table.Filled(name, table.KindText, t.NumRows(), table.Text(""))
	out := make([]table.Column, 0, len(cols)+1)
	out = append(out, cols[:pos]...)
	out = append(out, added)
	out = append(out, cols[pos:]...)
	return table.New(out...)
}

// DeleteRows removes the listed rows.
type DeleteRows struct {
	Rows []int
}

func (e DeleteRows) Op() string { return "delete_rows" }

func (e DeleteRows) Apply(t *table.Table) (*table.Table, error) {
	if len(e.Rows) == 0 {
		return nil, ErrNoRowSelected
	}
	drop := make(map[int]bool, len(e.Rows))
	for _, r := range e.Rows {
		if err := checkRow(t, r); err != nil {
			return nil, err
		}
		drop[r] = true
	}

	keep := make([]int, 0, t.NumRows()-len(drop))
	for i := 0; i < t.NumRows(); i++ {
		if !drop[i] {
			keep = append(keep, i)
		}
	}
	return takeRows(t, keep)
}

// DeleteColumns removes every column whose name is listed.
type DeleteColumns struct {
	Names []string
}

func (e DeleteColumns) Op() string { return "delete_columns" }

func (e DeleteColumns) Apply(t *table.Table) (*table.Table, error) {
	if len(e.Names) == 0 {
		return nil, ErrNoColumnSelected
	}
	drop := make(map[string]bool, len(e.Names))
	for _, name := range e.Names {
		if !t.HasColumn(name) {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
		}
		drop[name] = true
	}

	var out []table.Column
	for _, c := range t.Columns() {
		if !drop[c.Name()] {
			out = append(out, c)
		}
	}
	return table.New(out...)
}

// RenameColumn renames one column. Renaming to the current name returns t
// unchanged.
type RenameColumn struct {
	Column int
	Name   string
}

func (e RenameColumn) Op() string { return "rename_column" }

func (e RenameColumn) Apply(t *table.Table) (*table.Table, error) {
	if err := checkColumn(t, e.Column); err != nil {
		return nil, err
	}
	if t.Column(e.Column).Name() == e.Name {
		return t, nil
	}
	if t.HasColumn(e.Name) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateColumnName, e.Name)
	}

	cols := t.Columns()
	cols[e.Column] = cols[e.Column].Renamed(e.Name)
	return table.New(cols...)
}

// SortColumn stably reorders all rows by one column. Missing cells go last
// in both directions.
type SortColumn struct {
	Column     int
	Descending bool
}

func (e SortColumn) Op() string {
	if e.Descending {
		return "sort_descending"
	}
	return "sort_ascending"
}

func (e SortColumn) Apply(t *table.Table) (*table.Table, error) {
	if err := checkColumn(t, e.Column); err != nil {
		return nil, err
	}
	key := t.Column(e.Column)

	order := make([]int, t.NumRows())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := key.Cell(order[a]), key.Cell(order[b])
		if e.Descending && !ca.IsMissing() && !cb.IsMissing() {
			return table.Compare(cb, ca) < 0
		}
		return table.Compare(ca, cb) < 0
	})
	return takeRows(t, order)
}

// takeRows builds a snapshot from the given row order.
func takeRows(t *table.Table, rows []int) (*table.Table, error) {
	cols := t.Columns()
	for j, c := range cols {
		cols[j] = c.Take(rows)
	}
	return table.New(cols...)
}

func checkColumn(t *table.Table, j int) error {
	if j == NoColumn {
		return ErrNoColumnSelected
	}
	if j < 0 || j >= t.NumCols() {
		return fmt.Errorf("%w: %d (table has %d columns)", ErrColumnOutOfRange, j, t.NumCols())
	}
	return nil
}

func checkRow(t *table.Table, i int) error {
	if i < 0 || i >= t.NumRows() {
		return fmt.Errorf("%w: %d (table has %d rows)", ErrRowOutOfRange, i, t.NumRows())
	}
	return nil
}

func minOf(xs []int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs []int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
