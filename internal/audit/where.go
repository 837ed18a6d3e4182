package audit

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder assembles a parameterized SQL WHERE clause.
// Empty values are skipped so optional filters can be added unconditionally.
type WhereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

// NewWhereBuilder returns an empty builder whose first placeholder is $1.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

// Add appends "column = $n" unless value is empty.
func (wb *WhereBuilder) Add(column, value string) {
	if value == "" {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = $%d", column, wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

// AddTimestampRange appends "column >= $n" and "column < $n+1" for the
// non-zero bounds.
func (wb *WhereBuilder) AddTimestampRange(column string, since, until time.Time) {
	if !since.IsZero() {
		wb.conditions = append(wb.conditions, fmt.Sprintf("%s >= $%d", column, wb.argIndex))
		wb.args = append(wb.args, since)
		wb.argIndex++
	}
	if !until.IsZero() {
		wb.conditions = append(wb.conditions, fmt.Sprintf("%s < $%d", column, wb.argIndex))
		wb.args = append(wb.args, until)
		wb.argIndex++
	}
}

// NextArgIndex returns the placeholder number the next argument would use.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// Build returns the clause (with a leading " WHERE ") and its arguments.
// With no conditions it returns "" and nil.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}
