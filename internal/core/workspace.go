package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/JonMunkholm/tabwork/internal/audit"
	"github.com/JonMunkholm/tabwork/internal/logging"
	"github.com/JonMunkholm/tabwork/internal/revision"
	"github.com/JonMunkholm/tabwork/internal/table"
)

var (
	ErrDuplicateName = errors.New("duplicate table name")
	ErrTableNotFound = errors.New("table not found")
	ErrEmptyTableSet = errors.New("at least two tables are required")
	ErrInvalidName   = errors.New("invalid table name")
	ErrAlreadyAtEdge = errors.New("table is already at the edge of the list")
)

// entry is one registered table.
type entry struct {
	id  TableID
	src Source

	// name is guarded by Workspace.mu.
	name string

	mu      sync.Mutex
	store   *revision.Store
	deleted bool
}

// Workspace is the registry of named tables.
// All methods are safe for concurrent use.
type Workspace struct {
	mu    sync.RWMutex
	byID  map[TableID]*entry
	order []*entry

	capacity int
	audit    audit.Recorder
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithHistoryCapacity sets the number of snapshots kept per table.
func WithHistoryCapacity(n int) Option {
	return func(w *Workspace) { w.capacity = n }
}

// WithAudit sets the recorder that receives an entry for every state change.
func WithAudit(r audit.Recorder) Option {
	return func(w *Workspace) {
		if r != nil {
			w.audit = r
		}
	}
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(opts ...Option) *Workspace {
	w := &Workspace{
		byID:     make(map[TableID]*entry),
		capacity: revision.DefaultCapacity,
		audit:    audit.Discard,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.capacity < 1 {
		w.capacity = revision.DefaultCapacity
	}
	return w
}

// Len returns the number of registered tables.
func (w *Workspace) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.order)
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is blank", ErrInvalidName)
	}
	return name, nil
}

// nameTakenLocked reports whether a table other than except uses name.
// Caller holds w.mu.
func (w *Workspace) nameTakenLocked(name string, except *entry) bool {
	for _, e := range w.order {
		if e != except && e.name == name {
			return true
		}
	}
	return false
}

// CreateTable registers a new table whose history starts at snap.
// A nil snap registers an empty table.
func (w *Workspace) CreateTable(ctx context.Context, name string, snap *table.Table, src Source) (TableID, error) {
	return w.addTable(ctx, name, snap, src, false)
}

// ImportTable registers a table loaded from a file. Unlike CreateTable a
// taken name is not an error: the table is named "{name} (n)" with n one
// past the highest such suffix already in use.
func (w *Workspace) ImportTable(ctx context.Context, name string, snap *table.Table, src Source) (TableID, error) {
	return w.addTable(ctx, name, snap, src, true)
}

func (w *Workspace) addTable(ctx context.Context, name string, snap *table.Table, src Source, dedupe bool) (TableID, error) {
	name, err := normalizeName(name)
	if err != nil {
		return "", err
	}
	if snap == nil {
		snap = table.EmptyTable()
	}

	w.mu.Lock()
	if w.nameTakenLocked(name, nil) {
		if !dedupe {
			w.mu.Unlock()
			return "", fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		name = w.importNameLocked(name)
	}
	e := &entry{
		id:    newTableID(),
		name:  name,
		src:   src,
		store: revision.New(snap, w.capacity),
	}
	w.byID[e.id] = e
	w.order = append(w.order, e)
	w.mu.Unlock()

	w.record(ctx, audit.Params{
		Action:    audit.ActionTableCreate,
		TableID:   string(e.id),
		TableName: name,
		Rows:      snap.NumRows(),
		Columns:   snap.NumCols(),
		Detail:    src.FileName,
	})
	logging.WithFields(ctx, "table", name, "table_id", e.id).Info("table created",
		"rows", snap.NumRows(),
		"columns", snap.NumCols(),
	)
	return e.id, nil
}

// importNameLocked returns "{base} (n)" for the next free n. Caller holds w.mu.
func (w *Workspace) importNameLocked(base string) string {
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `\s*\((\d+)\)$`)
	next := 1
	for _, e := range w.order {
		m := re.FindStringSubmatch(e.name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n >= next {
			next = n + 1
		}
	}
	for {
		name := fmt.Sprintf("%s (%d)", base, next)
		if !w.nameTakenLocked(name, nil) {
			return name
		}
		next++
	}
}

// RenameTable changes a table's name. Renaming to the current name is a no-op.
func (w *Workspace) RenameTable(ctx context.Context, id TableID, newName string) error {
	newName, err := normalizeName(newName)
	if err != nil {
		return err
	}

	w.mu.Lock()
	e, ok := w.byID[id]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	oldName := e.name
	if oldName == newName {
		w.mu.Unlock()
		return nil
	}
	if w.nameTakenLocked(newName, e) {
		w.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateName, newName)
	}
	e.name = newName
	w.mu.Unlock()

	w.record(ctx, audit.Params{
		Action:    audit.ActionTableRename,
		TableID:   string(id),
		TableName: newName,
		Detail:    fmt.Sprintf("renamed from %q", oldName),
	})
	logging.WithFields(ctx, "table", newName, "table_id", id).Info("table renamed", "old_name", oldName)
	return nil
}

// DeleteTable removes a table and its history.
func (w *Workspace) DeleteTable(ctx context.Context, id TableID) error {
	w.mu.Lock()
	e, ok := w.byID[id]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	delete(w.byID, id)
	for i, o := range w.order {
		if o == e {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	name := e.name
	w.mu.Unlock()

	// Operations that looked the entry up before removal see it as gone.
	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()

	w.record(ctx, audit.Params{
		Action:    audit.ActionTableDelete,
		TableID:   string(id),
		TableName: name,
	})
	logging.WithFields(ctx, "table", name, "table_id", id).Info("table deleted")
	return nil
}

// MoveTable shifts a table delta positions in the display order; negative
// moves up. Moving past either end fails with ErrAlreadyAtEdge.
func (w *Workspace) MoveTable(ctx context.Context, id TableID, delta int) error {
	w.mu.Lock()
	e, ok := w.byID[id]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	from := -1
	for i, o := range w.order {
		if o == e {
			from = i
			break
		}
	}
	to := from + delta
	if to < 0 || to >= len(w.order) {
		w.mu.Unlock()
		return fmt.Errorf("%w: %q at position %d", ErrAlreadyAtEdge, e.name, from)
	}
	if to == from {
		w.mu.Unlock()
		return nil
	}
	w.order = append(w.order[:from], w.order[from+1:]...)
	w.order = append(w.order[:to], append([]*entry{e}, w.order[to:]...)...)
	name := e.name
	w.mu.Unlock()

	w.record(ctx, audit.Params{
		Action:    audit.ActionTableMove,
		TableID:   string(id),
		TableName: name,
		Detail:    fmt.Sprintf("moved from %d to %d", from, to),
	})
	return nil
}

// ListTables returns the tables in display order.
func (w *Workspace) ListTables() []TableSummary {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]TableSummary, 0, len(w.order))
	for _, e := range w.order {
		e.mu.Lock()
		cur := e.store.Current()
		out = append(out, TableSummary{
			ID:        e.id,
			Name:      e.name,
			Rows:      cur.NumRows(),
			Columns:   cur.NumCols(),
			Revision:  e.store.Cursor(),
			Revisions: e.store.Len(),
			Source:    e.src,
		})
		e.mu.Unlock()
	}
	return out
}

// Lookup returns the ID of the table with the given name.
func (w *Workspace) Lookup(name string) (TableID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, e := range w.order {
		if e.name == name {
			return e.id, true
		}
	}
	return "", false
}

// Name returns a table's current name.
func (w *Workspace) Name(id TableID) (string, error) {
	_, name, err := w.get(id)
	return name, err
}

// CurrentSnapshot returns the snapshot at a table's cursor.
func (w *Workspace) CurrentSnapshot(id TableID) (*table.Table, error) {
	var snap *table.Table
	_, err := w.withStore(id, func(s *revision.Store) error {
		snap = s.Current()
		return nil
	})
	return snap, err
}

// History describes a table's revision history.
func (w *Workspace) History(id TableID) (HistoryInfo, error) {
	var info HistoryInfo
	_, err := w.withStore(id, func(s *revision.Store) error {
		info = historyInfo(s)
		return nil
	})
	return info, err
}

func historyInfo(s *revision.Store) HistoryInfo {
	return HistoryInfo{
		Cursor:   s.Cursor(),
		Len:      s.Len(),
		Capacity: s.Capacity(),
		CanUndo:  s.CanUndo(),
		CanRedo:  s.CanRedo(),
	}
}

// get resolves an ID under the registry read lock.
func (w *Workspace) get(id TableID) (*entry, string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	e, ok := w.byID[id]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	return e, e.name, nil
}

// withStore runs fn with exclusive access to a table's history and returns
// the table's name as of lookup.
func (w *Workspace) withStore(id TableID, fn func(s *revision.Store) error) (string, error) {
	e, name, err := w.get(id)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return "", fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	return name, fn(e.store)
}

// record forwards an entry to the audit recorder. Failures are logged only.
func (w *Workspace) record(ctx context.Context, p audit.Params) {
	if _, err := w.audit.Record(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("audit record failed",
			"action", string(p.Action),
			"table_id", p.TableID,
			"error", err,
		)
	}
}

// opLogger returns the operation logger for a table.
func opLogger(ctx context.Context, id TableID, name, op string) *slog.Logger {
	return logging.WithFields(ctx, "table", name, "table_id", id, "op", op)
}
