package csvio

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/JonMunkholm/tabwork/internal/table"
)

const dateLayout = "2006-01-02"

// Write encodes t as delimited text with a header row. Missing cells are
// written empty and timestamps at midnight UTC are written as plain dates.
// A zero delimiter means comma.
func Write(w io.Writer, t *table.Table, delimiter rune) error {
	cw := csv.NewWriter(w)
	if delimiter != 0 {
		cw.Comma = delimiter
	}

	if err := cw.Write(t.ColumnNames()); err != nil {
		return err
	}
	rec := make([]string, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j := range rec {
			rec[j] = FormatCell(t.Cell(i, j))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatCell returns the export text of a cell.
func FormatCell(c table.Cell) string {
	if ts, ok := c.Time(); ok {
		if ts.Equal(ts.Truncate(24 * time.Hour)) {
			return ts.Format(dateLayout)
		}
		return ts.Format(time.RFC3339Nano)
	}
	return c.String()
}
