package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/JonMunkholm/tabwork/internal/audit"
	"github.com/JonMunkholm/tabwork/internal/revision"
	"github.com/JonMunkholm/tabwork/internal/table"
	"github.com/JonMunkholm/tabwork/internal/transform"
)

func numbers(name string, vals ...float64) table.Column {
	cells := make([]table.Cell, len(vals))
	for i, v := range vals {
		cells[i] = table.Numeric(v)
	}
	return table.NewColumn(name, table.KindNumeric, cells)
}

func strs(name string, vals ...string) table.Column {
	cells := make([]table.Cell, len(vals))
	for i, v := range vals {
		cells[i] = table.Text(v)
	}
	return table.NewColumn(name, table.KindText, cells)
}

func mustCreate(t *testing.T, w *Workspace, name string, snap *table.Table) TableID {
	t.Helper()
	id, err := w.CreateTable(context.Background(), name, snap, Source{})
	if err != nil {
		t.Fatalf("CreateTable(%q) error = %v", name, err)
	}
	return id
}

func names(w *Workspace) []string {
	var out []string
	for _, s := range w.ListTables() {
		out = append(out, s.Name)
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestWorkspace_CreateTable(t *testing.T) {
	w := NewWorkspace()
	ctx := context.Background()

	id := mustCreate(t, w, "Sales", table.MustNew(numbers("id", 1, 2)))
	if w.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", w.Len())
	}

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "duplicate name", input: "Sales", wantErr: ErrDuplicateName},
		{name: "duplicate after trimming", input: "  Sales ", wantErr: ErrDuplicateName},
		{name: "blank name", input: "   ", wantErr: ErrInvalidName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.CreateTable(ctx, tt.input, nil, Source{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateTable(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}

	got, ok := w.Lookup("Sales")
	if !ok || got != id {
		t.Errorf("Lookup(Sales) = %q, %v, want %q, true", got, ok, id)
	}

	emptyID := mustCreate(t, w, "Blank", nil)
	snap, _ := w.CurrentSnapshot(emptyID)
	if snap.NumCols() != 0 || snap.NumRows() != 0 {
		t.Errorf("nil snapshot registered as %dx%d, want empty", snap.NumRows(), snap.NumCols())
	}
}

func TestWorkspace_ImportTable(t *testing.T) {
	w := NewWorkspace()
	ctx := context.Background()
	snap := table.MustNew(numbers("id", 1))

	tests := []struct {
		input string
		want  string
	}{
		{"people", "people"},
		{"people", "people (1)"},
		{" people ", "people (2)"},
		{"people (2)", "people (2) (1)"},
		{"a.b", "a.b"},
		{"a.b", "a.b (1)"},
	}
	for _, tt := range tests {
		id, err := w.ImportTable(ctx, tt.input, snap, Source{FileName: tt.input + ".csv"})
		if err != nil {
			t.Fatalf("ImportTable(%q) error = %v", tt.input, err)
		}
		if got, _ := w.Name(id); got != tt.want {
			t.Errorf("ImportTable(%q) name = %q, want %q", tt.input, got, tt.want)
		}
	}

	// The next suffix follows the highest in use, not the first gap.
	mustCreate(t, w, "sales (5)", nil)
	id, err := w.ImportTable(ctx, "sales", snap, Source{})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := w.Name(id); got != "sales" {
		t.Errorf("free base name = %q, want sales", got)
	}
	id, _ = w.ImportTable(ctx, "sales", snap, Source{})
	if got, _ := w.Name(id); got != "sales (6)" {
		t.Errorf("name = %q, want sales (6)", got)
	}

	if _, err := w.ImportTable(ctx, "  ", snap, Source{}); !errors.Is(err, ErrInvalidName) {
		t.Errorf("blank import error = %v, want ErrInvalidName", err)
	}
}

func TestWorkspace_RenameTable(t *testing.T) {
	w := NewWorkspace()
	ctx := context.Background()
	a := mustCreate(t, w, "A", nil)
	mustCreate(t, w, "B", nil)

	if err := w.RenameTable(ctx, a, "B"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("rename to taken name error = %v, want ErrDuplicateName", err)
	}
	if err := w.RenameTable(ctx, a, "A"); err != nil {
		t.Errorf("rename to own name error = %v, want nil", err)
	}
	if err := w.RenameTable(ctx, a, "Customers"); err != nil {
		t.Fatalf("RenameTable() error = %v", err)
	}
	if name, _ := w.Name(a); name != "Customers" {
		t.Errorf("Name() = %q, want Customers", name)
	}
	if _, ok := w.Lookup("A"); ok {
		t.Error("old name should no longer resolve")
	}
	if err := w.RenameTable(ctx, "nope", "X"); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("rename unknown table error = %v, want ErrTableNotFound", err)
	}
}

func TestWorkspace_DeleteTable(t *testing.T) {
	w := NewWorkspace()
	ctx := context.Background()
	a := mustCreate(t, w, "A", nil)
	mustCreate(t, w, "B", nil)

	if err := w.DeleteTable(ctx, a); err != nil {
		t.Fatalf("DeleteTable() error = %v", err)
	}
	if got := names(w); !sameStrings(got, []string{"B"}) {
		t.Errorf("ListTables() = %v, want [B]", got)
	}
	if _, err := w.CurrentSnapshot(a); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("CurrentSnapshot(deleted) error = %v, want ErrTableNotFound", err)
	}
	if err := w.DeleteTable(ctx, a); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("second DeleteTable() error = %v, want ErrTableNotFound", err)
	}

	// The name is free again.
	mustCreate(t, w, "A", nil)
}

func TestWorkspace_MoveTable(t *testing.T) {
	w := NewWorkspace()
	ctx := context.Background()
	a := mustCreate(t, w, "A", nil)
	b := mustCreate(t, w, "B", nil)
	c := mustCreate(t, w, "C", nil)

	if err := w.MoveTable(ctx, c, -1); err != nil {
		t.Fatalf("MoveTable(C, -1) error = %v", err)
	}
	if got := names(w); !sameStrings(got, []string{"A", "C", "B"}) {
		t.Errorf("after moving C up: %v, want [A C B]", got)
	}

	if err := w.MoveTable(ctx, a, -1); !errors.Is(err, ErrAlreadyAtEdge) {
		t.Errorf("MoveTable(A, -1) error = %v, want ErrAlreadyAtEdge", err)
	}
	if err := w.MoveTable(ctx, b, 1); !errors.Is(err, ErrAlreadyAtEdge) {
		t.Errorf("MoveTable(B, +1) error = %v, want ErrAlreadyAtEdge", err)
	}
	if err := w.MoveTable(ctx, a, 2); err != nil {
		t.Fatalf("MoveTable(A, +2) error = %v", err)
	}
	if got := names(w); !sameStrings(got, []string{"C", "B", "A"}) {
		t.Errorf("after moving A down: %v, want [C B A]", got)
	}
}

func TestWorkspace_ApplyEdit(t *testing.T) {
	w := NewWorkspace()
	ctx := context.Background()
	id := mustCreate(t, w, "T", table.MustNew(numbers("id", 3, 1, 2), strs("name", "c", "a", "b")))

	out, err := w.ApplyEdit(ctx, id, transform.SortColumn{Column: 0})
	if err != nil {
		t.Fatalf("ApplyEdit(sort) error = %v", err)
	}
	if got := out.Cell(0, 1).String(); got != "a" {
		t.Errorf("first name after sort = %q, want a", got)
	}
	info, _ := w.History(id)
	if info.Len != 2 || info.Cursor != 1 {
		t.Errorf("History() = %+v, want 2 revisions at cursor 1", info)
	}

	// Renaming a column to its own name commits nothing.
	if _, err := w.ApplyEdit(ctx, id, transform.RenameColumn{Column: 1, Name: "name"}); err != nil {
		t.Fatalf("ApplyEdit(no-op rename) error = %v", err)
	}
	if info, _ := w.History(id); info.Len != 2 {
		t.Errorf("no-op rename pushed a revision: %+v", info)
	}

	// A failed edit leaves history alone.
	_, err = w.ApplyEdit(ctx, id, transform.DeleteRows{})
	if !errors.Is(err, transform.ErrNoRowSelected) {
		t.Errorf("ApplyEdit(no rows) error = %v, want ErrNoRowSelected", err)
	}
	if info, _ := w.History(id); info.Len != 2 {
		t.Errorf("failed edit changed history: %+v", info)
	}
}

func TestWorkspace_UndoRedoRollback(t *testing.T) {
	w := NewWorkspace()
	ctx := context.Background()
	id := mustCreate(t, w, "T", table.MustNew(numbers("id", 1)))

	if _, err := w.Undo(ctx, id); !errors.Is(err, revision.ErrNoMoreUndo) {
		t.Errorf("Undo() at start error = %v, want ErrNoMoreUndo", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := w.ApplyEdit(ctx, id, transform.InsertRows{Rows: []int{0}}); err != nil {
			t.Fatalf("InsertRows error = %v", err)
		}
	}

	snap, err := w.Undo(ctx, id)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if snap.NumRows() != 3 {
		t.Errorf("after Undo rows = %d, want 3", snap.NumRows())
	}

	snap, err = w.Redo(ctx, id)
	if err != nil {
		t.Fatalf("Redo() error = %v", err)
	}
	if snap.NumRows() != 4 {
		t.Errorf("after Redo rows = %d, want 4", snap.NumRows())
	}
	if _, err := w.Redo(ctx, id); !errors.Is(err, revision.ErrNoMoreRedo) {
		t.Errorf("Redo() at newest error = %v, want ErrNoMoreRedo", err)
	}

	snap, err = w.Rollback(ctx, id)
	if err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}
	if snap.NumRows() != 1 {
		t.Errorf("after Rollback rows = %d, want 1", snap.NumRows())
	}
	info, _ := w.History(id)
	if info.Cursor != 0 || !info.CanRedo || info.CanUndo {
		t.Errorf("History() after Rollback = %+v", info)
	}

	// Committing after a rollback appends; the undone snapshots stay
	// reachable through undo.
	if _, err := w.ApplyEdit(ctx, id, transform.InsertRows{Rows: []int{0}}); err != nil {
		t.Fatalf("InsertRows error = %v", err)
	}
	if info, _ := w.History(id); info.Len != 5 || info.Cursor != 4 || info.CanRedo {
		t.Errorf("History() after commit = %+v, want 5 revisions at cursor 4", info)
	}
	if snap, _ := w.Undo(ctx, id); snap.NumRows() != 4 {
		t.Errorf("Undo() past new commit rows = %d, want 4", snap.NumRows())
	}
}

func TestWorkspace_HistoryIsBounded(t *testing.T) {
	w := NewWorkspace()
	ctx := context.Background()
	id := mustCreate(t, w, "T", table.MustNew(numbers("id", 1)))

	for i := 0; i < 15; i++ {
		if _, err := w.ApplyEdit(ctx, id, transform.InsertRows{Rows: []int{0}}); err != nil {
			t.Fatalf("InsertRows error = %v", err)
		}
	}

	info, _ := w.History(id)
	if info.Len != revision.DefaultCapacity {
		t.Errorf("History().Len = %d, want %d", info.Len, revision.DefaultCapacity)
	}
	snap, _ := w.Rollback(ctx, id)
	// 16 snapshots were produced; the oldest 6 were evicted.
	if snap.NumRows() != 7 {
		t.Errorf("oldest retained rows = %d, want 7", snap.NumRows())
	}
}

func TestWorkspace_CommitAsNew(t *testing.T) {
	w := NewWorkspace()
	ctx := context.Background()
	snap := table.MustNew(numbers("id", 1))

	first, err := w.CommitAsNew(ctx, "", snap)
	if err != nil {
		t.Fatalf("CommitAsNew() error = %v", err)
	}
	second, _ := w.CommitAsNew(ctx, "", snap)
	if n, _ := w.Name(first); n != "Query 1" {
		t.Errorf("first name = %q, want Query 1", n)
	}
	if n, _ := w.Name(second); n != "Query 2" {
		t.Errorf("second name = %q, want Query 2", n)
	}

	// Gaps are reused.
	if err := w.DeleteTable(ctx, first); err != nil {
		t.Fatal(err)
	}
	third, _ := w.CommitAsNew(ctx, "Query", snap)
	if n, _ := w.Name(third); n != "Query 1" {
		t.Errorf("name after delete = %q, want Query 1", n)
	}

	merged, _ := w.CommitAsNew(ctx, "Merged", snap)
	if n, _ := w.Name(merged); n != "Merged 1" {
		t.Errorf("hinted name = %q, want Merged 1", n)
	}

	if _, err := w.CommitAsNew(ctx, "", nil); err == nil {
		t.Error("CommitAsNew(nil) should fail")
	}
}

func TestWorkspace_CommitAsSame(t *testing.T) {
	w := NewWorkspace()
	ctx := context.Background()
	a := mustCreate(t, w, "A", table.MustNew(numbers("k", 1, 2), strs("a", "x", "y")))
	b := mustCreate(t, w, "B", table.MustNew(numbers("k", 2), strs("b", "z")))

	joined, err := w.Join(ctx, JoinRequest{Left: a, Right: b, LeftKey: 0, RightKey: 0, Kind: transform.InnerJoin})
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if info, _ := w.History(a); info.Len != 1 {
		t.Errorf("Join() changed history of A: %+v", info)
	}

	if err := w.CommitAsSame(ctx, a, joined); err != nil {
		t.Fatalf("CommitAsSame() error = %v", err)
	}
	cur, _ := w.CurrentSnapshot(a)
	if !cur.Equal(joined) {
		t.Error("CurrentSnapshot() is not the committed join")
	}

	undone, _ := w.Undo(ctx, a)
	if undone.NumRows() != 2 || undone.NumCols() != 2 {
		t.Errorf("Undo() after commit = %dx%d, want 2x2", undone.NumRows(), undone.NumCols())
	}

	if err := w.CommitAsSame(ctx, "missing", joined); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("CommitAsSame(unknown) error = %v, want ErrTableNotFound", err)
	}
}

func TestWorkspace_TwoTableOperations(t *testing.T) {
	w := NewWorkspace()
	ctx := context.Background()
	a := mustCreate(t, w, "A", table.MustNew(numbers("k", 1, 2)))

	req := JoinRequest{Left: a, Right: a, Kind: transform.InnerJoin}
	if _, err := w.Join(ctx, req); !errors.Is(err, ErrEmptyTableSet) {
		t.Errorf("Join() with one table error = %v, want ErrEmptyTableSet", err)
	}
	if _, err := w.AnalyzeJoin(req); !errors.Is(err, ErrEmptyTableSet) {
		t.Errorf("AnalyzeJoin() with one table error = %v, want ErrEmptyTableSet", err)
	}
	if _, err := w.Concat(ctx, a, a, transform.Vertical); !errors.Is(err, ErrEmptyTableSet) {
		t.Errorf("Concat() with one table error = %v, want ErrEmptyTableSet", err)
	}

	b := mustCreate(t, w, "B", table.MustNew(numbers("k", 2, 3)))

	stats, err := w.AnalyzeJoin(JoinRequest{Left: a, Right: b})
	if err != nil {
		t.Fatalf("AnalyzeJoin() error = %v", err)
	}
	if stats.InnerRows != 1 || stats.OuterRows != 3 {
		t.Errorf("AnalyzeJoin() = %+v, want 1 inner and 3 outer rows", stats)
	}

	out, err := w.Concat(ctx, a, b, transform.Vertical)
	if err != nil {
		t.Fatalf("Concat() error = %v", err)
	}
	if out.NumRows() != 4 {
		t.Errorf("Concat() rows = %d, want 4", out.NumRows())
	}

	if _, err := w.Concat(ctx, a, "missing", transform.Vertical); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("Concat(unknown) error = %v, want ErrTableNotFound", err)
	}
}

func TestWorkspace_PivotUnpivotFilter(t *testing.T) {
	w := NewWorkspace()
	ctx := context.Background()
	id := mustCreate(t, w, "Long", table.MustNew(
		numbers("id", 1, 1, 2),
		strs("month", "jan", "feb", "jan"),
		numbers("amount", 10, 20, 5),
	))

	wide, err := w.Pivot(ctx, id, 0, 1, 2)
	if err != nil {
		t.Fatalf("Pivot() error = %v", err)
	}
	if got := wide.ColumnNames(); !sameStrings(got, []string{"id", "feb", "jan"}) {
		t.Errorf("Pivot() columns = %v, want [id feb jan]", got)
	}
	if _, err := w.Pivot(ctx, id, 0, 1, 1); !errors.Is(err, transform.ErrInvalidPivotSelection) {
		t.Errorf("Pivot(value == spread) error = %v, want ErrInvalidPivotSelection", err)
	}

	long, err := w.Unpivot(ctx, id, []int{1, 2})
	if err != nil {
		t.Fatalf("Unpivot() error = %v", err)
	}
	if long.NumRows() != 6 {
		t.Errorf("Unpivot() rows = %d, want 6", long.NumRows())
	}

	rows, err := w.Filter(id, 1, transform.Query{Text: "jan", WholeWord: true})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(rows) != 2 || rows[0] != 0 || rows[1] != 2 {
		t.Errorf("Filter() = %v, want [0 2]", rows)
	}
	if info, _ := w.History(id); info.Len != 1 {
		t.Errorf("read-only operations changed history: %+v", info)
	}
}

func TestWorkspace_AuditTrail(t *testing.T) {
	log := audit.NewMemoryLog(0)
	w := NewWorkspace(WithAudit(log))
	ctx := audit.ContextWithRequestID(context.Background(), "req-42")

	id := mustCreate(t, w, "T", table.MustNew(numbers("id", 2, 1)))
	if _, err := w.ApplyEdit(ctx, id, transform.SortColumn{Column: 0}); err != nil {
		t.Fatal(err)
	}
	if _, err := w.ApplyEdit(ctx, id, transform.RenameColumn{Column: 0, Name: "id"}); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Undo(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := w.DeleteTable(ctx, id); err != nil {
		t.Fatal(err)
	}

	res, err := log.Query(ctx, audit.Filter{TableID: string(id)})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	// Newest first; the no-op rename is absent.
	want := []audit.Action{audit.ActionTableDelete, audit.ActionUndo, audit.ActionCommit, audit.ActionTableCreate}
	if len(res.Entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(res.Entries), len(want))
	}
	for i, e := range res.Entries {
		if e.Action != want[i] {
			t.Errorf("entry %d action = %q, want %q", i, e.Action, want[i])
		}
	}
	if commit := res.Entries[2]; commit.Op != "sort_ascending" || commit.Revision != 1 || commit.RequestID != "req-42" {
		t.Errorf("commit entry = %+v", commit)
	}
}

func TestWorkspace_ConcurrentAccess(t *testing.T) {
	w := NewWorkspace(WithHistoryCapacity(50))
	ctx := context.Background()
	id := mustCreate(t, w, "Shared", table.MustNew(numbers("id", 1)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := w.ApplyEdit(ctx, id, transform.InsertRows{Rows: []int{0}}); err != nil {
				t.Errorf("ApplyEdit error = %v", err)
			}
			if _, err := w.CommitAsNew(ctx, "", table.EmptyTable()); err != nil {
				t.Errorf("CommitAsNew error = %v", err)
			}
			_ = w.ListTables()
			if _, err := w.CreateTable(ctx, fmt.Sprintf("T%d", i), nil, Source{}); err != nil {
				t.Errorf("CreateTable error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	snap, _ := w.CurrentSnapshot(id)
	if snap.NumRows() != 9 {
		t.Errorf("rows = %d, want 9", snap.NumRows())
	}
	if w.Len() != 17 {
		t.Errorf("Len() = %d, want 17", w.Len())
	}

	seen := make(map[string]bool)
	for _, s := range w.ListTables() {
		if seen[s.Name] {
			t.Errorf("duplicate name %q", s.Name)
		}
		seen[s.Name] = true
	}
}
