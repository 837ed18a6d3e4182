// Package audit records the operations committed against a workspace.
//
// Every state change of a named table (creation, rename, deletion, reorder,
// a committed snapshot, undo, redo, rollback) produces one Entry. Entries are
// written to a Recorder: [MemoryLog] keeps a bounded in-process ring, and
// [PostgresLog] persists to PostgreSQL through pgx. Old entries are purged by
// [StartRetentionScheduler].
//
// Recording is best-effort from the workspace's point of view. A failing sink
// is logged and never blocks or fails the operation that produced the entry.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action identifies the kind of operation an entry describes.
type Action string

const (
	ActionTableCreate Action = "table_create"
	ActionTableRename Action = "table_rename"
	ActionTableDelete Action = "table_delete"
	ActionTableMove   Action = "table_move"
	ActionCommit      Action = "commit"
	ActionCommitNew   Action = "commit_new"
	ActionUndo        Action = "undo"
	ActionRedo        Action = "redo"
	ActionRollback    Action = "rollback"
)

// Severity grades entries for filtering.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// DefaultLimit is the page size used when a Filter does not set one.
const DefaultLimit = 100

// MaxLimit caps the page size of a single query.
const MaxLimit = 1000

// Entry is a single audit record.
type Entry struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	Severity  Severity  `json:"severity"`
	TableID   string    `json:"tableId"`
	TableName string    `json:"tableName"`
	Op        string    `json:"op,omitempty"`
	Revision  int       `json:"revision"`
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Params describes an entry to record. Request metadata missing from Params
// is taken from the context (see ContextWithIPAddress).
type Params struct {
	Action    Action
	TableID   string
	TableName string
	Op        string
	Revision  int
	Rows      int
	Columns   int
	IPAddress string
	UserAgent string
	RequestID string
	Detail    string
}

// Filter selects entries. Zero fields match everything.
type Filter struct {
	TableID  string
	Action   Action
	Severity Severity
	Since    time.Time
	Until    time.Time
	Limit    int
	Offset   int
}

// normalize applies the default and maximum page sizes.
func (f Filter) normalize() Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func (f Filter) matches(e *Entry) bool {
	if f.TableID != "" && e.TableID != f.TableID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Severity != "" && e.Severity != f.Severity {
		return false
	}
	if !f.Since.IsZero() && e.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !e.CreatedAt.Before(f.Until) {
		return false
	}
	return true
}

// Result is one page of entries, newest first.
type Result struct {
	Entries    []Entry `json:"entries"`
	TotalCount int64   `json:"totalCount"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	TotalPages int     `json:"totalPages"`
}

func newResult(entries []Entry, total int64, f Filter) *Result {
	totalPages := int((total + int64(f.Limit) - 1) / int64(f.Limit))
	if totalPages < 1 {
		totalPages = 1
	}
	return &Result{
		Entries:    entries,
		TotalCount: total,
		Page:       f.Offset/f.Limit + 1,
		PageSize:   f.Limit,
		TotalPages: totalPages,
	}
}

// Recorder writes and reads audit entries.
type Recorder interface {
	Record(ctx context.Context, p Params) (*Entry, error)
	Query(ctx context.Context, f Filter) (*Result, error)
}

// Purger deletes entries created before a cutoff.
type Purger interface {
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// Log is a Recorder with retention support.
type Log interface {
	Recorder
	Purger
}

// SeverityFor returns the severity assigned to an action.
func SeverityFor(action Action) Severity {
	switch action {
	case ActionTableDelete:
		return SeverityCritical
	case ActionCommit, ActionCommitNew, ActionRollback:
		return SeverityHigh
	case ActionTableMove:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// newEntry builds the stored form of p, filling request metadata from ctx.
func newEntry(ctx context.Context, p Params, now time.Time) *Entry {
	if p.IPAddress == "" {
		p.IPAddress = IPAddressFromContext(ctx)
	}
	if p.UserAgent == "" {
		p.UserAgent = UserAgentFromContext(ctx)
	}
	if p.RequestID == "" {
		p.RequestID = RequestIDFromContext(ctx)
	}
	return &Entry{
		ID:        uuid.New().String(),
		Action:    p.Action,
		Severity:  SeverityFor(p.Action),
		TableID:   p.TableID,
		TableName: p.TableName,
		Op:        p.Op,
		Revision:  p.Revision,
		Rows:      p.Rows,
		Columns:   p.Columns,
		IPAddress: p.IPAddress,
		UserAgent: p.UserAgent,
		RequestID: p.RequestID,
		Detail:    p.Detail,
		CreatedAt: now.UTC(),
	}
}

// Discard is a Recorder that drops every entry.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Record(ctx context.Context, p Params) (*Entry, error) {
	return newEntry(ctx, p, time.Now()), nil
}

func (discard) Query(_ context.Context, f Filter) (*Result, error) {
	return newResult([]Entry{}, 0, f.normalize()), nil
}
