package core

import (
	"github.com/google/uuid"

	"github.com/JonMunkholm/tabwork/internal/transform"
)

// TableID is the stable handle of a registered table. It survives renames.
type TableID string

func newTableID() TableID { return TableID(uuid.New().String()) }

// DefaultNameHint is the base name used by CommitAsNew when no hint is given.
const DefaultNameHint = "Query"

// Source describes where a table's initial snapshot came from.
type Source struct {
	FileName  string `json:"fileName,omitempty"`
	Sheet     string `json:"sheet,omitempty"`
	Extension string `json:"extension,omitempty"`
}

// TableSummary is one row of ListTables.
type TableSummary struct {
	ID        TableID `json:"id"`
	Name      string  `json:"name"`
	Rows      int     `json:"rows"`
	Columns   int     `json:"columns"`
	Revision  int     `json:"revision"`
	Revisions int     `json:"revisions"`
	Source    Source  `json:"source"`
}

// HistoryInfo describes a table's revision history.
type HistoryInfo struct {
	Cursor   int  `json:"cursor"`
	Len      int  `json:"len"`
	Capacity int  `json:"capacity"`
	CanUndo  bool `json:"canUndo"`
	CanRedo  bool `json:"canRedo"`
}

// JoinRequest selects the two tables, key columns and kind of a join.
type JoinRequest struct {
	Left     TableID
	Right    TableID
	LeftKey  int
	RightKey int
	Kind     transform.JoinKind
}
