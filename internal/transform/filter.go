package transform

import (
	"strings"

	"github.com/JonMunkholm/tabwork/internal/table"
)

// Query is a row filter over one column's display text.
type Query struct {
	Text          string `json:"text"`
	CaseSensitive bool   `json:"caseSensitive"`
	WholeWord     bool   `json:"wholeWord"`
	StartsWith    bool   `json:"startsWith"`
}

// Match reports whether a cell passes the query. WholeWord (exact match)
// takes precedence over StartsWith, which takes precedence over substring
// matching. A missing cell passes only an empty, non-whole-word query.
func (q Query) Match(c table.Cell) bool {
	if c.IsMissing() {
		return q.Text == "" && !q.WholeWord
	}

	text, query := c.String(), q.Text
	if !q.CaseSensitive {
		text, query = strings.ToLower(text), strings.ToLower(query)
	}

	switch {
	case q.WholeWord:
		return text == query
	case q.StartsWith:
		return strings.HasPrefix(text, query)
	default:
		return strings.Contains(text, query)
	}
}

// Filter returns the indices of the rows whose cell in column passes q.
// It is a view computation and never produces a new snapshot.
func Filter(t *table.Table, column int, q Query) ([]int, error) {
	if err := checkColumn(t, column); err != nil {
		return nil, err
	}
	col := t.Column(column)
	visible := make([]int, 0, t.NumRows())
	for i := 0; i < col.Len(); i++ {
		if q.Match(col.Cell(i)) {
			visible = append(visible, i)
		}
	}
	return visible, nil
}

// Visibility returns one flag per row, true when the row is shown.
func Visibility(t *table.Table, column int, q Query) ([]bool, error) {
	rows, err := Filter(t, column, q)
	if err != nil {
		return nil, err
	}
	flags := make([]bool, t.NumRows())
	for _, i := range rows {
		flags[i] = true
	}
	return flags, nil
}
