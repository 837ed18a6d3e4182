package transform

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/tabwork/internal/table"
)

// JoinKind selects relational matching semantics.
type JoinKind string

const (
	InnerJoin JoinKind = "inner"
	LeftJoin  JoinKind = "left"
	RightJoin JoinKind = "right"
	OuterJoin JoinKind = "outer"
)

// Suffixes applied to non-key columns present on both sides of a join.
const (
	LeftSuffix  = "_x"
	RightSuffix = "_y"
)

// ParseJoinKind accepts "inner", "left", "right", "outer" (or "full"),
// case-insensitively. Only the first word counts, so "Left Join" is valid.
func ParseJoinKind(s string) (JoinKind, error) {
	word := strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(word, " _-"); i >= 0 {
		word = word[:i]
	}
	switch word {
	case "inner":
		return InnerJoin, nil
	case "left":
		return LeftJoin, nil
	case "right":
		return RightJoin, nil
	case "outer", "full":
		return OuterJoin, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownJoinKind, s)
}

// rowPair is one output row of a join; -1 marks the absent side.
type rowPair struct {
	left, right int
}

// Join merges left and right on one key column from each.
//
// Output columns are the left columns followed by the right columns. When
// both key columns have the same name only one key column is emitted. Other
// names present on both sides get LeftSuffix and RightSuffix; a suffixed
// name that clashes with another output column is ErrDuplicateColumnName.
// Keys match on exact cell equality; missing keys match each other.
func Join(left, right *table.Table, leftKey, rightKey int, kind JoinKind) (*table.Table, error) {
	if leftKey == NoColumn || rightKey == NoColumn {
		return nil, ErrNoColumnSelected
	}
	if err := checkColumn(left, leftKey); err != nil {
		return nil, fmt.Errorf("left table: %w", err)
	}
	if err := checkColumn(right, rightKey); err != nil {
		return nil, fmt.Errorf("right table: %w", err)
	}

	pairs, err := matchRows(left.Column(leftKey), right.Column(rightKey), kind)
	if err != nil {
		return nil, err
	}

	lidx := make([]int, len(pairs))
	ridx := make([]int, len(pairs))
	for i, p := range pairs {
		lidx[i], ridx[i] = p.left, p.right
	}

	leftKeyName := left.Column(leftKey).Name()
	sharedKey := leftKeyName == right.Column(rightKey).Name()

	leftNames := make(map[string]bool, left.NumCols())
	for j, c := range left.Columns() {
		if sharedKey && j == leftKey {
			continue
		}
		leftNames[c.Name()] = true
	}
	rightNames := make(map[string]bool, right.NumCols())
	for j, c := range right.Columns() {
		if sharedKey && j == rightKey {
			continue
		}
		rightNames[c.Name()] = true
	}

	out := make([]table.Column, 0, left.NumCols()+right.NumCols())
	suffixed := make(map[string]bool)
	for j, c := range left.Columns() {
		switch {
		case sharedKey && j == leftKey:
			out = append(out, coalesceKey(c, right.Column(rightKey), lidx, ridx))
		case rightNames[c.Name()]:
			suffixed[c.Name()+LeftSuffix] = true
			out = append(out, c.Take(lidx).Renamed(c.Name()+LeftSuffix))
		default:
			out = append(out, c.Take(lidx))
		}
	}
	for j, c := range right.Columns() {
		switch {
		case sharedKey && j == rightKey:
			continue
		case leftNames[c.Name()]:
			suffixed[c.Name()+RightSuffix] = true
			out = append(out, c.Take(ridx).Renamed(c.Name()+RightSuffix))
		default:
			out = append(out, c.Take(ridx))
		}
	}
	if err := checkSuffixed(out, suffixed); err != nil {
		return nil, err
	}
	return table.New(out...)
}

// checkSuffixed rejects a suffixed name that another output column already
// carries, such as a left "a" renamed to "a_y" beside a left "a_y".
func checkSuffixed(cols []table.Column, suffixed map[string]bool) error {
	count := make(map[string]int, len(cols))
	for _, c := range cols {
		count[c.Name()]++
	}
	for _, c := range cols {
		if suffixed[c.Name()] && count[c.Name()] > 1 {
			return fmt.Errorf("%w: join output %q", ErrDuplicateColumnName, c.Name())
		}
	}
	return nil
}

// matchRows computes the output row pairs for a join kind.
func matchRows(lkey, rkey table.Column, kind JoinKind) ([]rowPair, error) {
	rindex := indexCells(rkey)

	var pairs []rowPair
	switch kind {
	case InnerJoin, LeftJoin, OuterJoin:
		for l := 0; l < lkey.Len(); l++ {
			matches := rindex[lkey.Cell(l)]
			for _, r := range matches {
				pairs = append(pairs, rowPair{l, r})
			}
			if len(matches) == 0 && kind != InnerJoin {
				pairs = append(pairs, rowPair{l, -1})
			}
		}
		if kind == OuterJoin {
			lindex := indexCells(lkey)
			for r := 0; r < rkey.Len(); r++ {
				if len(lindex[rkey.Cell(r)]) == 0 {
					pairs = append(pairs, rowPair{-1, r})
				}
			}
		}
	case RightJoin:
		lindex := indexCells(lkey)
		for r := 0; r < rkey.Len(); r++ {
			matches := lindex[rkey.Cell(r)]
			for _, l := range matches {
				pairs = append(pairs, rowPair{l, r})
			}
			if len(matches) == 0 {
				pairs = append(pairs, rowPair{-1, r})
			}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownJoinKind, kind)
	}
	return pairs, nil
}

// indexCells maps each distinct cell to the rows holding it, in row order.
func indexCells(c table.Column) map[table.Cell][]int {
	idx := make(map[table.Cell][]int, c.Len())
	for i := 0; i < c.Len(); i++ {
		idx[c.Cell(i)] = append(idx[c.Cell(i)], i)
	}
	return idx
}

// coalesceKey builds the single key column of a same-named join, taking the
// key from whichever side contributed the row.
func coalesceKey(lcol, rcol table.Column, lidx, ridx []int) table.Column {
	cells := make([]table.Cell, len(lidx))
	for i := range lidx {
		if lidx[i] >= 0 {
			cells[i] = lcol.Cell(lidx[i])
		} else if ridx[i] >= 0 {
			cells[i] = rcol.Cell(ridx[i])
		}
	}
	kind := lcol.Kind()
	if kind != rcol.Kind() {
		kind = table.InferKind(cells)
	}
	return table.NewColumn(lcol.Name(), kind, cells)
}

// JoinStats summarizes how two key columns match, giving the row count each
// join kind would produce.
type JoinStats struct {
	MatchedPairs   int `json:"matchedPairs"`
	UnmatchedLeft  int `json:"unmatchedLeft"`
	UnmatchedRight int `json:"unmatchedRight"`
	InnerRows      int `json:"innerRows"`
	LeftRows       int `json:"leftRows"`
	RightRows      int `json:"rightRows"`
	OuterRows      int `json:"outerRows"`
}

// RowsFor returns the row count for kind.
func (s JoinStats) RowsFor(kind JoinKind) int {
	switch kind {
	case InnerJoin:
		return s.InnerRows
	case LeftJoin:
		return s.LeftRows
	case RightJoin:
		return s.RightRows
	case OuterJoin:
		return s.OuterRows
	}
	return 0
}

// AnalyzeJoin computes JoinStats without building the joined table.
func AnalyzeJoin(left, right *table.Table, leftKey, rightKey int) (JoinStats, error) {
	if leftKey == NoColumn || rightKey == NoColumn {
		return JoinStats{}, ErrNoColumnSelected
	}
	if err := checkColumn(left, leftKey); err != nil {
		return JoinStats{}, fmt.Errorf("left table: %w", err)
	}
	if err := checkColumn(right, rightKey); err != nil {
		return JoinStats{}, fmt.Errorf("right table: %w", err)
	}

	lkey, rkey := left.Column(leftKey), right.Column(rightKey)
	lindex, rindex := indexCells(lkey), indexCells(rkey)

	var s JoinStats
	for l := 0; l < lkey.Len(); l++ {
		n := len(rindex[lkey.Cell(l)])
		s.MatchedPairs += n
		if n == 0 {
			s.UnmatchedLeft++
		}
	}
	for r := 0; r < rkey.Len(); r++ {
		if len(lindex[rkey.Cell(r)]) == 0 {
			s.UnmatchedRight++
		}
	}
	s.InnerRows = s.MatchedPairs
	s.LeftRows = s.MatchedPairs + s.UnmatchedLeft
	s.RightRows = s.MatchedPairs + s.UnmatchedRight
	s.OuterRows = s.MatchedPairs + s.UnmatchedLeft + s.UnmatchedRight
	return s, nil
}
