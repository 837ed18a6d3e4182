package transform

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/tabwork/internal/table"
)

// Direction selects how Concat lays two tables out.
type Direction string

const (
	Vertical   Direction = "vertical"
	Horizontal Direction = "horizontal"
)

// ParseDirection accepts "vertical"/"vertically" and
// "horizontal"/"horizontally", case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vertical", "vertically", "rows":
		return Vertical, nil
	case "horizontal", "horizontally", "columns":
		return Horizontal, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// Concat appends b to a.
//
// Vertical stacks rows: the result has the union of both column sets in
// first-appearance order, with missing cells where a table lacks a column.
// A name repeated within a table is matched by occurrence: the second "id"
// of a stacks on the second "id" of b.
// Horizontal places the columns side by side aligned by row position; the
// shorter table is padded with missing cells. Duplicate names are kept.
func Concat(a, b *table.Table, dir Direction) (*table.Table, error) {
	switch dir {
	case Vertical:
		return concatVertical(a, b)
	case Horizontal:
		return concatHorizontal(a, b)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDirection, dir)
}

// slot is the k-th column named name in a table. Vertical append pairs the
// k-th occurrence in a with the k-th occurrence in b, so tables with
// repeated names (such as a horizontal append result) keep every column.
type slot struct {
	name string
	k    int
}

func concatVertical(a, b *table.Table) (*table.Table, error) {
	var slots []slot
	seen := make(map[slot]bool)
	for _, t := range []*table.Table{a, b} {
		count := make(map[string]int)
		for _, name := range t.ColumnNames() {
			sl := slot{name, count[name]}
			count[name]++
			if !seen[sl] {
				seen[sl] = true
				slots = append(slots, sl)
			}
		}
	}

	rows := a.NumRows() + b.NumRows()
	out := make([]table.Column, len(slots))
	for j, sl := range slots {
		ja, jb := occurrence(a, sl), occurrence(b, sl)
		cells := make([]table.Cell, 0, rows)
		cells = appendColumn(cells, a, ja)
		cells = appendColumn(cells, b, jb)
		out[j] = table.NewColumn(sl.name, unionKind(a, b, ja, jb, cells), cells)
	}
	return table.New(out...)
}

// occurrence returns the index of the sl.k-th column named sl.name in t, or
// -1 when t has fewer such columns.
func occurrence(t *table.Table, sl slot) int {
	k := sl.k
	for j, name := range t.ColumnNames() {
		if name != sl.name {
			continue
		}
		if k == 0 {
			return j
		}
		k--
	}
	return -1
}

// appendColumn appends t's cells from column j, or missing cells when j < 0.
func appendColumn(dst []table.Cell, t *table.Table, j int) []table.Cell {
	for i := 0; i < t.NumRows(); i++ {
		if j < 0 {
			dst = append(dst, table.Missing())
		} else {
			dst = append(dst, t.Cell(i, j))
		}
	}
	return dst
}

// unionKind keeps the declared kind when every table that owns the column
// agrees on it, otherwise infers from the stacked cells.
func unionKind(a, b *table.Table, ja, jb int, cells []table.Cell) table.Kind {
	switch {
	case ja >= 0 && jb < 0:
		return a.Column(ja).Kind()
	case jb >= 0 && ja < 0:
		return b.Column(jb).Kind()
	case a.Column(ja).Kind() == b.Column(jb).Kind():
		return a.Column(ja).Kind()
	}
	return table.InferKind(cells)
}

func concatHorizontal(a, b *table.Table) (*table.Table, error) {
	rows := a.NumRows()
	if b.NumRows() > rows {
		rows = b.NumRows()
	}

	out := make([]table.Column, 0, a.NumCols()+b.NumCols())
	for _, t := range []*table.Table{a, b} {
		idx := make([]int, rows)
		for i := range idx {
			idx[i] = -1
			if i < t.NumRows() {
				idx[i] = i
			}
		}
		for _, c := range t.Columns() {
			out = append(out, c.Take(idx))
		}
	}
	return table.New(out...)
}
