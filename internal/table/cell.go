package table

// cell.go defines the coarse-kinded cell value stored in every column.
//
// A Cell is a small comparable value: it can be copied freely, compared with
// ==, and used directly as a map key. Kind-specific accessors report whether
// the cell actually holds a value of that kind.

import (
	"math"
	"strconv"
	"time"
)

// Kind is the coarse type tag of a cell or column.
type Kind uint8

const (
	KindMissing Kind = iota
	KindNumeric
	KindText
	KindTimestamp
)

// String returns the lowercase kind name used in JSON and logs.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	case KindTimestamp:
		return "timestamp"
	default:
		return "missing"
	}
}

// ParseKind converts a kind name back to a Kind.
// Unknown names return false.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "numeric", "number":
		return KindNumeric, true
	case "text", "string":
		return KindText, true
	case "timestamp", "date", "datetime":
		return KindTimestamp, true
	case "missing", "":
		return KindMissing, true
	}
	return KindMissing, false
}

// Cell is a single table value.
type Cell struct {
	kind Kind
	num  float64
	text string
	ts   int64 // Unix nanoseconds, UTC
}

// Missing returns the empty cell.
func Missing() Cell { return Cell{} }

// Numeric returns a numeric cell. NaN is stored as a missing cell.
func Numeric(f float64) Cell {
	if math.IsNaN(f) {
		return Cell{}
	}
	if f == 0 {
		f = 0 // fold -0 so equal keys hash and print identically
	}
	return Cell{kind: KindNumeric, num: f}
}

// Text returns a text cell. The empty string is a valid text value.
func Text(s string) Cell { return Cell{kind: KindText, text: s} }

// Timestamp returns a timestamp cell holding t in UTC.
func Timestamp(t time.Time) Cell { return Cell{kind: KindTimestamp, ts: t.UTC().UnixNano()} }

// Kind returns the cell's coarse kind.
func (c Cell) Kind() Kind { return c.kind }

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool { return c.kind == KindMissing }

// Float returns the numeric value.
func (c Cell) Float() (float64, bool) {
	if c.kind != KindNumeric {
		return 0, false
	}
	return c.num, true
}

// Str returns the text value.
func (c Cell) Str() (string, bool) {
	if c.kind != KindText {
		return "", false
	}
	return c.text, true
}

// Time returns the timestamp value.
func (c Cell) Time() (time.Time, bool) {
	if c.kind != KindTimestamp {
		return time.Time{}, false
	}
	return time.Unix(0, c.ts).UTC(), true
}

// String returns the display text of the cell. Missing cells render as "".
func (c Cell) String() string {
	switch c.kind {
	case KindNumeric:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case KindText:
		return c.text
	case KindTimestamp:
		return time.Unix(0, c.ts).UTC().Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// Equal reports whether two cells hold the same kind and value.
// Two missing cells are equal.
func (c Cell) Equal(o Cell) bool { return c == o }

// kindRank orders kinds for mixed-kind comparisons. Missing is handled
// separately because it always sorts last.
func kindRank(k Kind) int {
	switch k {
	case KindNumeric:
		return 0
	case KindTimestamp:
		return 1
	default:
		return 2
	}
}

// Compare orders two cells: missing after everything else, then by kind
// (numeric, timestamp, text), then by value within the kind.
// It returns -1, 0 or +1.
func Compare(a, b Cell) int {
	switch {
	case a.kind == KindMissing && b.kind == KindMissing:
		return 0
	case a.kind == KindMissing:
		return 1
	case b.kind == KindMissing:
		return -1
	}

	if ra, rb := kindRank(a.kind), kindRank(b.kind); ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch a.kind {
	case KindNumeric:
		return cmp3(a.num < b.num, a.num > b.num)
	case KindTimestamp:
		return cmp3(a.ts < b.ts, a.ts > b.ts)
	default:
		return cmp3(a.text < b.text, a.text > b.text)
	}
}

func cmp3(less, greater bool) int {
	if less {
		return -1
	}
	if greater {
		return 1
	}
	return 0
}

// Empty returns the blank cell used when a row is inserted into a column of
// kind k: an empty string for text columns, missing otherwise.
func Empty(k Kind) Cell {
	if k == KindText {
		return Text("")
	}
	return Missing()
}
