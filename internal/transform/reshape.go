package transform

import (
	"fmt"
	"sort"

	"github.com/google/btree"

	"github.com/JonMunkholm/tabwork/internal/table"
)

// Column names produced by Unpivot.
const (
	VariableColumn = "Variable"
	ValueColumn    = "Value"
)

// btreeDegree is the node degree of the ordered key sets used by Pivot.
const btreeDegree = 16

func cellLess(a, b table.Cell) bool { return table.Compare(a, b) < 0 }

type pivotKey struct {
	group, spread table.Cell
}

// Pivot reshapes long data to wide.
//
// The result has one row per distinct group value and one column per
// distinct spread value, both in sorted order. Each cell holds the sum of
// the value column over the rows sharing that (group, spread) pair, or a
// missing cell when no row contributes. Rows with a missing group or spread
// key are skipped, as are missing values; a group or spread value seen only
// with missing values therefore produces no row or column.
func Pivot(t *table.Table, group, spread, value int) (*table.Table, error) {
	for _, j := range []int{group, spread, value} {
		if err := checkColumn(t, j); err != nil {
			return nil, err
		}
	}
	if value == spread {
		return nil, ErrInvalidPivotSelection
	}
	if group == spread || group == value {
		return nil, fmt.Errorf("%w: group column must differ from the pivot and values columns", ErrInvalidPivotSelection)
	}

	gcol, scol, vcol := t.Column(group), t.Column(spread), t.Column(value)
	groups := btree.NewG[table.Cell](btreeDegree, cellLess)
	spreads := btree.NewG[table.Cell](btreeDegree, cellLess)
	sums := make(map[pivotKey]table.Cell)

	for i := 0; i < t.NumRows(); i++ {
		g, s, v := gcol.Cell(i), scol.Cell(i), vcol.Cell(i)
		if g.IsMissing() || s.IsMissing() || v.IsMissing() {
			continue
		}
		k := pivotKey{g, s}
		sum, err := addCells(sums[k], v)
		if err != nil {
			return nil, fmt.Errorf("pivot %q at row %d: %w", vcol.Name(), i, err)
		}
		sums[k] = sum
		groups.ReplaceOrInsert(g)
		spreads.ReplaceOrInsert(s)
	}

	var groupKeys, spreadKeys []table.Cell
	groups.Ascend(func(c table.Cell) bool {
		groupKeys = append(groupKeys, c)
		return true
	})
	spreads.Ascend(func(c table.Cell) bool {
		spreadKeys = append(spreadKeys, c)
		return true
	})

	out := make([]table.Column, 0, len(spreadKeys)+1)
	out = append(out, table.NewColumn(gcol.Name(), gcol.Kind(), groupKeys))
	for _, s := range spreadKeys {
		cells := make([]table.Cell, len(groupKeys))
		for i, g := range groupKeys {
			cells[i] = sums[pivotKey{g, s}]
		}
		out = append(out, table.InferColumn(s.String(), cells))
	}
	return table.New(out...)
}

// addCells folds v into acc. The first value is taken as-is; afterwards
// numbers add and text concatenates.
func addCells(acc, v table.Cell) (table.Cell, error) {
	if acc.IsMissing() {
		return v, nil
	}
	if a, ok := acc.Float(); ok {
		if b, ok := v.Float(); ok {
			return table.Numeric(a + b), nil
		}
	}
	if a, ok := acc.Str(); ok {
		if b, ok := v.Str(); ok {
			return table.Text(a + b), nil
		}
	}
	return table.Missing(), fmt.Errorf("%w: %s + %s", ErrUnsummable, acc.Kind(), v.Kind())
}

// Unpivot reshapes wide data to long (melt).
//
// The selected columns become (Variable, Value) pairs; all other columns are
// kept as identifiers. Rows are stacked one selected column at a time, in
// table order, so the result has rows(t) * len(selected) rows. An identifier
// column already named Variable or Value is ErrDuplicateColumnName.
func Unpivot(t *table.Table, columns []int) (*table.Table, error) {
	selected := make(map[int]bool, len(columns))
	for _, j := range columns {
		if err := checkColumn(t, j); err != nil {
			return nil, err
		}
		selected[j] = true
	}
	if len(selected) < 2 {
		return nil, ErrInsufficientColumns
	}
	for j, c := range t.Columns() {
		if !selected[j] && (c.Name() == VariableColumn || c.Name() == ValueColumn) {
			return nil, fmt.Errorf("%w: identifier %q clashes with an unpivot output column", ErrDuplicateColumnName, c.Name())
		}
	}

	valueCols := make([]int, 0, len(selected))
	for j := range selected {
		valueCols = append(valueCols, j)
	}
	sort.Ints(valueCols)

	n := t.NumRows()
	total := n * len(valueCols)

	// Identifier rows repeat the input row order once per value column.
	repeat := make([]int, total)
	for k := range valueCols {
		for i := 0; i < n; i++ {
			repeat[k*n+i] = i
		}
	}

	out := make([]table.Column, 0, t.NumCols()-len(valueCols)+2)
	for j, c := range t.Columns() {
		if !selected[j] {
			out = append(out, c.Take(repeat))
		}
	}

	variables := make([]table.Cell, 0, total)
	values := make([]table.Cell, 0, total)
	kind := t.Column(valueCols[0]).Kind()
	for _, j := range valueCols {
		c := t.Column(j)
		if c.Kind() != kind {
			kind = table.KindMissing
		}
		name := table.Text(c.Name())
		for i := 0; i < n; i++ {
			variables = append(variables, name)
			values = append(values, c.Cell(i))
		}
	}
	if kind == table.KindMissing {
		kind = table.InferKind(values)
	}

	out = append(out,
		table.NewColumn(VariableColumn, table.KindText, variables),
		table.NewColumn(ValueColumn, kind, values),
	)
	return table.New(out...)
}
