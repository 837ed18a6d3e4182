package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/tabwork/internal/audit"
	"github.com/JonMunkholm/tabwork/internal/revision"
	"github.com/JonMunkholm/tabwork/internal/table"
)

// CommitAsSame pushes snap onto a table's history.
func (w *Workspace) CommitAsSame(ctx context.Context, id TableID, snap *table.Table) error {
	if snap == nil {
		return fmt.Errorf("commit %s: nil snapshot", id)
	}
	var info HistoryInfo
	name, err := w.withStore(id, func(s *revision.Store) error {
		s.Push(snap)
		info = historyInfo(s)
		return nil
	})
	if err != nil {
		return err
	}
	w.recordCommit(ctx, audit.ActionCommit, id, name, "commit", snap, info)
	return nil
}

// CommitAsNew registers snap as a new table named "{hint} {n}" with the
// smallest free n >= 1. An empty hint uses DefaultNameHint.
func (w *Workspace) CommitAsNew(ctx context.Context, hint string, snap *table.Table) (TableID, error) {
	if snap == nil {
		return "", fmt.Errorf("commit as new: nil snapshot")
	}
	hint = strings.TrimSpace(hint)
	if hint == "" {
		hint = DefaultNameHint
	}

	w.mu.Lock()
	name := w.generateNameLocked(hint)
	e := &entry{
		id:    newTableID(),
		name:  name,
		store: revision.New(snap, w.capacity),
	}
	w.byID[e.id] = e
	w.order = append(w.order, e)
	w.mu.Unlock()

	w.recordCommit(ctx, audit.ActionCommitNew, e.id, name, "commit_new", snap, HistoryInfo{Len: 1, Capacity: w.capacity})
	return e.id, nil
}

// generateNameLocked returns the first "{prefix} {n}" not in use.
// Caller holds w.mu.
func (w *Workspace) generateNameLocked(prefix string) string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s %d", prefix, i)
		if !w.nameTakenLocked(name, nil) {
			return name
		}
	}
}

// Undo moves a table's cursor back one snapshot and returns it.
func (w *Workspace) Undo(ctx context.Context, id TableID) (*table.Table, error) {
	return w.moveCursor(ctx, id, audit.ActionUndo, (*revision.Store).Undo)
}

// Redo moves a table's cursor forward one snapshot and returns it.
func (w *Workspace) Redo(ctx context.Context, id TableID) (*table.Table, error) {
	return w.moveCursor(ctx, id, audit.ActionRedo, (*revision.Store).Redo)
}

// Rollback moves a table's cursor to its oldest retained snapshot.
func (w *Workspace) Rollback(ctx context.Context, id TableID) (*table.Table, error) {
	return w.moveCursor(ctx, id, audit.ActionRollback, func(s *revision.Store) (*table.Table, error) {
		return s.Rollback(), nil
	})
}

func (w *Workspace) moveCursor(ctx context.Context, id TableID, action audit.Action, move func(*revision.Store) (*table.Table, error)) (*table.Table, error) {
	var (
		snap *table.Table
		info HistoryInfo
	)
	name, err := w.withStore(id, func(s *revision.Store) error {
		out, err := move(s)
		if err != nil {
			return err
		}
		snap = out
		info = historyInfo(s)
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.record(ctx, audit.Params{
		Action:    action,
		TableID:   string(id),
		TableName: name,
		Op:        string(action),
		Revision:  info.Cursor,
		Rows:      snap.NumRows(),
		Columns:   snap.NumCols(),
	})
	opLogger(ctx, id, name, string(action)).Debug("cursor moved", "revision", info.Cursor, "revisions", info.Len)
	return snap, nil
}

func (w *Workspace) recordCommit(ctx context.Context, action audit.Action, id TableID, name, op string, snap *table.Table, info HistoryInfo) {
	w.record(ctx, audit.Params{
		Action:    action,
		TableID:   string(id),
		TableName: name,
		Op:        op,
		Revision:  info.Cursor,
		Rows:      snap.NumRows(),
		Columns:   snap.NumCols(),
	})
	opLogger(ctx, id, name, op).Info("snapshot committed",
		"rows", snap.NumRows(),
		"columns", snap.NumCols(),
		"revision", info.Cursor,
	)
}
