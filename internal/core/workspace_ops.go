package core

import (
	"context"

	"github.com/JonMunkholm/tabwork/internal/audit"
	"github.com/JonMunkholm/tabwork/internal/logging"
	"github.com/JonMunkholm/tabwork/internal/revision"
	"github.com/JonMunkholm/tabwork/internal/table"
	"github.com/JonMunkholm/tabwork/internal/transform"
)

// ApplyEdit applies a structural edit to a table's current snapshot and
// pushes the result. An edit that returns the snapshot unchanged (such as
// renaming a column to its own name) pushes nothing.
func (w *Workspace) ApplyEdit(ctx context.Context, id TableID, edit transform.Edit) (*table.Table, error) {
	var (
		next   *table.Table
		pushed bool
		info   HistoryInfo
	)
	name, err := w.withStore(id, func(s *revision.Store) error {
		cur := s.Current()
		out, err := edit.Apply(cur)
		if err != nil {
			return err
		}
		next = out
		if out != cur {
			s.Push(out)
			pushed = true
		}
		info = historyInfo(s)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if pushed {
		w.recordCommit(ctx, audit.ActionCommit, id, name, edit.Op(), next, info)
	}
	return next, nil
}

// Join computes a join of two tables' current snapshots. The registry is not
// changed; commit the result with CommitAsSame or CommitAsNew.
func (w *Workspace) Join(ctx context.Context, req JoinRequest) (*table.Table, error) {
	left, right, err := w.pair(req.Left, req.Right)
	if err != nil {
		return nil, err
	}
	out, err := transform.Join(left, right, req.LeftKey, req.RightKey, req.Kind)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug("join computed",
		"left_id", req.Left,
		"right_id", req.Right,
		"kind", string(req.Kind),
		"rows", out.NumRows(),
	)
	return out, nil
}

// AnalyzeJoin reports the row count each join kind would produce.
func (w *Workspace) AnalyzeJoin(req JoinRequest) (transform.JoinStats, error) {
	left, right, err := w.pair(req.Left, req.Right)
	if err != nil {
		return transform.JoinStats{}, err
	}
	return transform.AnalyzeJoin(left, right, req.LeftKey, req.RightKey)
}

// Concat appends b's current snapshot to a's.
func (w *Workspace) Concat(ctx context.Context, a, b TableID, dir transform.Direction) (*table.Table, error) {
	first, second, err := w.pair(a, b)
	if err != nil {
		return nil, err
	}
	out, err := transform.Concat(first, second, dir)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug("concat computed",
		"first_id", a,
		"second_id", b,
		"direction", string(dir),
		"rows", out.NumRows(),
		"columns", out.NumCols(),
	)
	return out, nil
}

// Pivot reshapes a table's current snapshot from long to wide.
func (w *Workspace) Pivot(ctx context.Context, id TableID, group, spread, value int) (*table.Table, error) {
	snap, err := w.CurrentSnapshot(id)
	if err != nil {
		return nil, err
	}
	return transform.Pivot(snap, group, spread, value)
}

// Unpivot reshapes a table's current snapshot from wide to long.
func (w *Workspace) Unpivot(ctx context.Context, id TableID, columns []int) (*table.Table, error) {
	snap, err := w.CurrentSnapshot(id)
	if err != nil {
		return nil, err
	}
	return transform.Unpivot(snap, columns)
}

// Filter returns the rows of a table's current snapshot that pass q.
// It records nothing.
func (w *Workspace) Filter(id TableID, column int, q transform.Query) ([]int, error) {
	snap, err := w.CurrentSnapshot(id)
	if err != nil {
		return nil, err
	}
	return transform.Filter(snap, column, q)
}

// pair reads two current snapshots. Fewer than two registered tables fails
// with ErrEmptyTableSet before either ID is resolved.
func (w *Workspace) pair(a, b TableID) (*table.Table, *table.Table, error) {
	if w.Len() < 2 {
		return nil, nil, ErrEmptyTableSet
	}
	first, err := w.CurrentSnapshot(a)
	if err != nil {
		return nil, nil, err
	}
	second, err := w.CurrentSnapshot(b)
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}
