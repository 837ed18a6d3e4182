package web

import (
	"math"
	"strconv"

	"github.com/JonMunkholm/tabwork/internal/core"
	"github.com/JonMunkholm/tabwork/internal/csvio"
	"github.com/JonMunkholm/tabwork/internal/table"
	"github.com/JonMunkholm/tabwork/internal/transform"
)

// Page bounds for table data responses.
const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// ColumnResponse describes one column.
type ColumnResponse struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// TableResponse is a snapshot with one page of row-major data. ID and Name
// are empty for an uncommitted preview.
type TableResponse struct {
	ID      core.TableID     `json:"id,omitempty"`
	Name    string           `json:"name,omitempty"`
	Rows    int              `json:"rows"`
	Columns []ColumnResponse `json:"columns"`
	Offset  int              `json:"offset"`
	Data    [][]any          `json:"data"`

	History *core.HistoryInfo `json:"history,omitempty"`
}

// TransformResponse is the result of a join, concat, pivot or unpivot.
// Committed is "same", "new" or empty for a preview.
type TransformResponse struct {
	Committed string        `json:"committed,omitempty"`
	Table     TableResponse `json:"table"`
}

// page selects rows [Offset, Offset+Limit) of a snapshot.
type page struct {
	Offset int
	Limit  int
}

func newTableResponse(snap *table.Table, p page) TableResponse {
	cols := make([]ColumnResponse, snap.NumCols())
	for j := range cols {
		c := snap.Column(j)
		cols[j] = ColumnResponse{Name: c.Name(), Kind: c.Kind().String()}
	}

	start := min(p.Offset, snap.NumRows())
	end := min(start+p.Limit, snap.NumRows())
	data := make([][]any, 0, end-start)
	for i := start; i < end; i++ {
		row := make([]any, snap.NumCols())
		for j := range row {
			row[j] = cellValue(snap.Cell(i, j))
		}
		data = append(data, row)
	}

	return TableResponse{
		Rows:    snap.NumRows(),
		Columns: cols,
		Offset:  start,
		Data:    data,
	}
}

// cellValue converts a cell to its JSON value: null, number or string.
// Timestamps use the export format; infinities become strings because JSON
// has no literal for them.
func cellValue(c table.Cell) any {
	switch c.Kind() {
	case table.KindNumeric:
		f, _ := c.Float()
		if math.IsInf(f, 0) {
			return c.String()
		}
		return f
	case table.KindText:
		s, _ := c.Str()
		return s
	case table.KindTimestamp:
		return csvio.FormatCell(c)
	default:
		return nil
	}
}

// CreateTableRequest creates a table from JSON. Column kinds are optional;
// an empty kind is inferred from the values.
type CreateTableRequest struct {
	Name    string       `json:"name"`
	Columns []ColumnSpec `json:"columns"`
	Rows    [][]any      `json:"rows"`
}

// ColumnSpec names a column and optionally fixes its kind.
type ColumnSpec struct {
	Name string `json:"name"`
	Kind string `json:"kind,omitempty"`
}

// buildTable converts a create request into a snapshot. Short rows are
// padded with missing cells.
func (req CreateTableRequest) buildTable() (*table.Table, error) {
	cols := make([]table.Column, len(req.Columns))
	for j, spec := range req.Columns {
		kind, ok := table.ParseKind(spec.Kind)
		if !ok {
			return nil, badRequest("column %q has unknown kind %q", spec.Name, spec.Kind)
		}

		cells := make([]table.Cell, len(req.Rows))
		for i, row := range req.Rows {
			if len(row) > len(req.Columns) {
				return nil, badRequest("row %d has %d values for %d columns", i, len(row), len(req.Columns))
			}
			if j >= len(row) {
				continue
			}
			c, err := decodeCell(row[j], kind)
			if err != nil {
				return nil, badRequest("row %d, column %q: %v", i, spec.Name, err)
			}
			cells[i] = c
		}

		if kind == table.KindMissing {
			cols[j] = inferColumn(spec.Name, cells)
		} else {
			cols[j] = table.NewColumn(spec.Name, kind, cells)
		}
	}
	return table.New(cols...)
}

// inferColumn infers a kind and, for mixed values, converts every present
// cell to text so the column holds one kind.
func inferColumn(name string, cells []table.Cell) table.Column {
	kind := table.InferKind(cells)
	if kind == table.KindText {
		for i, c := range cells {
			if !c.IsMissing() && c.Kind() != table.KindText {
				cells[i] = table.Text(c.String())
			}
		}
	}
	return table.NewColumn(name, kind, cells)
}

type cellError string

func (e cellError) Error() string { return string(e) }

// decodeCell converts a decoded JSON value to a cell of kind. KindMissing
// means the kind is not fixed and the value's own type decides.
func decodeCell(v any, kind table.Kind) (table.Cell, error) {
	if v == nil {
		return table.Missing(), nil
	}

	switch kind {
	case table.KindNumeric:
		switch x := v.(type) {
		case float64:
			return table.Numeric(x), nil
		case string:
			if x == "" {
				return table.Missing(), nil
			}
			if f, ok := csvio.ParseNumber(x); ok {
				return table.Numeric(f), nil
			}
		}
		return table.Cell{}, cellError("not a number")

	case table.KindTimestamp:
		if x, ok := v.(string); ok {
			if x == "" {
				return table.Missing(), nil
			}
			if ts, ok := csvio.ParseTimestamp(x); ok {
				return table.Timestamp(ts), nil
			}
		}
		return table.Cell{}, cellError("not a date or timestamp")

	case table.KindText:
		return table.Text(scalarText(v)), nil
	}

	switch x := v.(type) {
	case float64:
		return table.Numeric(x), nil
	case string:
		return table.Text(x), nil
	case bool:
		return table.Text(strconv.FormatBool(x)), nil
	}
	return table.Cell{}, cellError("unsupported value")
}

func scalarText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// commitMode selects what happens to a computed snapshot.
type commitMode string

const (
	commitPreview commitMode = ""
	commitSame    commitMode = "same"
	commitNew     commitMode = "new"
)

func parseCommitMode(s string) (commitMode, error) {
	switch m := commitMode(s); m {
	case commitPreview, commitSame, commitNew:
		return m, nil
	}
	return "", badRequest("commit must be \"same\", \"new\" or empty, got %q", s)
}

// column converts an optional JSON column index, treating absent as
// transform.NoColumn.
func column(j *int) int {
	if j == nil {
		return transform.NoColumn
	}
	return *j
}

// EditRequest is a structural edit of one table. Op is one of the edit
// names reported in the audit trail, for example "insert_row_above" or
// "sort_descending".
type EditRequest struct {
	Op      string   `json:"op"`
	Rows    []int    `json:"rows,omitempty"`
	Columns []int    `json:"columns,omitempty"`
	Names   []string `json:"names,omitempty"`
	Column  *int     `json:"column,omitempty"`
	Name    string   `json:"name,omitempty"`
}

func (req EditRequest) edit() (transform.Edit, error) {
	switch req.Op {
	case "insert_row_above", "insert_row_below":
		return transform.InsertRows{Rows: req.Rows, Below: req.Op == "insert_row_below"}, nil
	case "insert_column_left", "insert_column_right":
		return transform.InsertColumn{Columns: req.Columns, Right: req.Op == "insert_column_right"}, nil
	case "delete_rows":
		return transform.DeleteRows{Rows: req.Rows}, nil
	case "delete_columns":
		return transform.DeleteColumns{Names: req.Names}, nil
	case "rename_column":
		if req.Name == "" {
			return nil, badRequest("rename_column needs a name")
		}
		return transform.RenameColumn{Column: column(req.Column), Name: req.Name}, nil
	case "sort_ascending", "sort_descending":
		return transform.SortColumn{Column: column(req.Column), Descending: req.Op == "sort_descending"}, nil
	case "":
		return nil, badRequest("op is required")
	}
	return nil, badRequest("unknown op %q", req.Op)
}

// FilterRequest is a filter view over one column.
type FilterRequest struct {
	Column *int `json:"column"`
	transform.Query
}

// FilterResponse lists the visible rows of a filter view.
type FilterResponse struct {
	Rows  []int `json:"rows"`
	Count int   `json:"count"`
	Total int   `json:"total"`
}

// PivotRequest reshapes one table from long to wide.
type PivotRequest struct {
	Group  *int   `json:"group"`
	Spread *int   `json:"spread"`
	Value  *int   `json:"value"`
	Commit string `json:"commit,omitempty"`
	Name   string `json:"name,omitempty"`
}

// UnpivotRequest reshapes one table from wide to long.
type UnpivotRequest struct {
	Columns []int  `json:"columns"`
	Commit  string `json:"commit,omitempty"`
	Name    string `json:"name,omitempty"`
}

// JoinRequest joins two tables. Commit "same" replaces the left table.
type JoinRequest struct {
	Left     core.TableID `json:"left"`
	Right    core.TableID `json:"right"`
	LeftKey  *int         `json:"leftKey"`
	RightKey *int         `json:"rightKey"`
	Kind     string       `json:"kind"`
	Commit   string       `json:"commit,omitempty"`
	Name     string       `json:"name,omitempty"`
}

func (req JoinRequest) toCore(kind transform.JoinKind) core.JoinRequest {
	return core.JoinRequest{
		Left:     req.Left,
		Right:    req.Right,
		LeftKey:  column(req.LeftKey),
		RightKey: column(req.RightKey),
		Kind:     kind,
	}
}

// ConcatRequest appends Second to First. Commit "same" replaces First.
type ConcatRequest struct {
	First     core.TableID `json:"first"`
	Second    core.TableID `json:"second"`
	Direction string       `json:"direction"`
	Commit    string       `json:"commit,omitempty"`
	Name      string       `json:"name,omitempty"`
}

// RenameRequest renames a table.
type RenameRequest struct {
	Name string `json:"name"`
}

// MoveRequest shifts a table in the display order. Direction "up" or "down"
// is shorthand for a delta of -1 or 1.
type MoveRequest struct {
	Delta     int    `json:"delta"`
	Direction string `json:"direction,omitempty"`
}

func (req MoveRequest) delta() (int, error) {
	switch req.Direction {
	case "":
		if req.Delta == 0 {
			return 0, badRequest("delta or direction is required")
		}
		return req.Delta, nil
	case "up":
		return -1, nil
	case "down":
		return 1, nil
	}
	return 0, badRequest("direction must be \"up\" or \"down\", got %q", req.Direction)
}

// HealthResponse reports server state.
type HealthResponse struct {
	Status  string                   `json:"status"`
	Tables  int                      `json:"tables"`
	Imports core.ImportLimiterStatus `json:"imports"`
}
