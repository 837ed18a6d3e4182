// Package csvio imports delimited text files into table snapshots and
// exports snapshots back to CSV.
//
// Import infers one kind per column: a column whose non-empty cells all
// parse as numbers is numeric, one whose cells all parse as dates or
// timestamps is a timestamp column, and anything else is text. Empty cells
// are missing in every kind.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/tabwork/internal/table"
)

var (
	ErrEmptyFile       = errors.New("empty file: no header row")
	ErrInvalidCSV      = errors.New("invalid csv")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// DefaultMaxBytes bounds an import when Options.MaxBytes is zero.
const DefaultMaxBytes = 100 << 20

// Options controls Read.
type Options struct {
	// Delimiter separates fields. Zero means comma.
	Delimiter rune

	// MaxBytes bounds the raw input size. Zero means DefaultMaxBytes and a
	// negative value disables the check.
	MaxBytes int64

	// RawText disables kind inference; every non-empty cell is text.
	RawText bool
}

// DelimiterFor returns the field delimiter for a file name's extension.
// Plain .txt files are read as tab-separated.
func DelimiterFor(fileName string) (rune, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return ',', nil
	case ".tsv", ".tab", ".txt":
		return '\t', nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, filepath.Ext(fileName))
	}
}

// Read parses a delimited file whose first record is the header. Short
// records are padded with missing cells and long ones are truncated to the
// header width.
func Read(r io.Reader, opts Options) (*table.Table, error) {
	limit := opts.MaxBytes
	if limit == 0 {
		limit = DefaultMaxBytes
	}

	cr := csv.NewReader(wrapReader(r, limit))
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, readError(err)
	}
	names := headerNames(header)

	raw := make([][]string, len(names))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readError(err)
		}
		for j := range raw {
			v := ""
			if j < len(rec) {
				v = CleanCell(rec[j])
			}
			raw[j] = append(raw[j], v)
		}
	}

	cols := make([]table.Column, len(names))
	for j, name := range names {
		cols[j] = buildColumn(name, raw[j], opts.RawText)
	}
	return table.New(cols...)
}

func readError(err error) error {
	if errors.Is(err, ErrFileTooLarge) {
		return err
	}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: line %d: %v", ErrInvalidCSV, pe.Line, pe.Err)
	}
	return fmt.Errorf("%w: %v", ErrInvalidCSV, err)
}

// headerNames cleans header cells, naming blank ones "Unnamed: {j}" and
// suffixing repeats with ".1", ".2" and so on.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for j, h := range header {
		base := CleanCell(h)
		if base == "" {
			base = "Unnamed: " + strconv.Itoa(j)
		}
		name := base
		for n := 1; used[name]; n++ {
			name = base + "." + strconv.Itoa(n)
		}
		used[name] = true
		names[j] = name
	}
	return names
}

func buildColumn(name string, vals []string, rawText bool) table.Column {
	if !rawText {
		if cells, ok := numericCells(vals); ok {
			return table.NewColumn(name, table.KindNumeric, cells)
		}
		if cells, ok := timestampCells(vals); ok {
			return table.NewColumn(name, table.KindTimestamp, cells)
		}
	}
	cells := make([]table.Cell, len(vals))
	for i, v := range vals {
		if v != "" {
			cells[i] = table.Text(v)
		}
	}
	return table.InferColumn(name, cells)
}

func numericCells(vals []string) ([]table.Cell, bool) {
	cells := make([]table.Cell, len(vals))
	found := false
	for i, v := range vals {
		if v == "" {
			continue
		}
		f, ok := ParseNumber(v)
		if !ok {
			return nil, false
		}
		cells[i] = table.Numeric(f)
		found = true
	}
	return cells, found
}

func timestampCells(vals []string) ([]table.Cell, bool) {
	cells := make([]table.Cell, len(vals))
	found := false
	for i, v := range vals {
		if v == "" {
			continue
		}
		t, ok := ParseTimestamp(v)
		if !ok {
			return nil, false
		}
		cells[i] = table.Timestamp(t)
		found = true
	}
	return cells, found
}
