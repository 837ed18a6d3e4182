// Package revision keeps the bounded undo/redo history of one table.
//
// A Store is a linear, append-only log of snapshots with a movable cursor.
// Push always appends at the end, even after an undo: snapshots ahead of the
// cursor are kept and stay reachable through repeated Undo calls. When the
// log is full the oldest snapshot is evicted.
//
// A Store is not safe for concurrent use; callers serialize access per table.
package revision

import (
	"errors"

	"github.com/JonMunkholm/tabwork/internal/table"
)

// DefaultCapacity is the number of snapshots kept per table.
const DefaultCapacity = 10

var (
	// ErrNoMoreUndo is returned by Undo when the cursor is at the oldest snapshot.
	ErrNoMoreUndo = errors.New("nothing to undo")

	// ErrNoMoreRedo is returned by Redo when the cursor is at the newest snapshot.
	ErrNoMoreRedo = errors.New("nothing to redo")
)

// Store is the revision history of a single table.
type Store struct {
	history  []*table.Table
	cursor   int
	capacity int
}

// New creates a store whose only snapshot is initial.
// A capacity below 1 falls back to DefaultCapacity.
func New(initial *table.Table, capacity int) *Store {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if initial == nil {
		initial = table.EmptyTable()
	}
	history := make([]*table.Table, 1, capacity)
	history[0] = initial
	return &Store{history: history, capacity: capacity}
}

// Current returns the snapshot at the cursor.
func (s *Store) Current() *table.Table {
	return s.history[s.cursor]
}

// Push appends snap and moves the cursor to it.
func (s *Store) Push(snap *table.Table) {
	if snap == nil {
		return
	}
	if len(s.history) >= s.capacity {
		// Shift down in place so the backing array is reused.
		copy(s.history, s.history[1:])
		s.history[len(s.history)-1] = nil
		s.history = s.history[:len(s.history)-1]
		if s.cursor > 0 {
			s.cursor--
		}
	}
	s.history = append(s.history, snap)
	s.cursor = len(s.history) - 1
}

// Undo moves the cursor one snapshot back and returns it.
func (s *Store) Undo() (*table.Table, error) {
	if s.cursor == 0 {
		return nil, ErrNoMoreUndo
	}
	s.cursor--
	return s.history[s.cursor], nil
}

// Redo moves the cursor one snapshot forward and returns it.
func (s *Store) Redo() (*table.Table, error) {
	if s.cursor == len(s.history)-1 {
		return nil, ErrNoMoreRedo
	}
	s.cursor++
	return s.history[s.cursor], nil
}

// Rollback moves the cursor to the oldest retained snapshot without
// discarding anything.
func (s *Store) Rollback() *table.Table {
	s.cursor = 0
	return s.history[0]
}

// Len returns the number of retained snapshots.
func (s *Store) Len() int { return len(s.history) }

// Cursor returns the index of the current snapshot.
func (s *Store) Cursor() int { return s.cursor }

// Capacity returns the maximum number of retained snapshots.
func (s *Store) Capacity() int { return s.capacity }

// CanUndo reports whether Undo would succeed.
func (s *Store) CanUndo() bool { return s.cursor > 0 }

// CanRedo reports whether Redo would succeed.
func (s *Store) CanRedo() bool { return s.cursor < len(s.history)-1 }

// Snapshots returns the retained snapshots, oldest first.
func (s *Store) Snapshots() []*table.Table {
	cp := make([]*table.Table, len(s.history))
	copy(cp, s.history)
	return cp
}
