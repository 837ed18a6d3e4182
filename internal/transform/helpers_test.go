package transform

import (
	"testing"

	"github.com/JonMunkholm/tabwork/internal/table"
	"github.com/stretchr/testify/require"
)

var (
	n = table.Numeric
	s = table.Text
	m = table.Missing
)

func num(name string, vals ...float64) table.Column {
	cells := make([]table.Cell, len(vals))
	for i, v := range vals {
		cells[i] = table.Numeric(v)
	}
	return table.NewColumn(name, table.KindNumeric, cells)
}

func text(name string, vals ...string) table.Column {
	cells := make([]table.Cell, len(vals))
	for i, v := range vals {
		cells[i] = table.Text(v)
	}
	return table.NewColumn(name, table.KindText, cells)
}

func cells(name string, kind table.Kind, vals ...table.Cell) table.Column {
	return table.NewColumn(name, kind, vals)
}

// column returns the cells of the named column, failing the test if absent.
func column(t *testing.T, tbl *table.Table, name string) []table.Cell {
	t.Helper()
	j := tbl.ColumnIndex(name)
	require.GreaterOrEqual(t, j, 0, "column %q not in %v", name, tbl.ColumnNames())
	return tbl.Column(j).Cells()
}
