package core

// error_messages.go maps operation errors to user-facing messages with a
// support code.
//
// # Error Codes Reference
//
// # History Errors (HIST001-HIST099)
//
//	HIST001 - Nothing to undo: the table is at its oldest retained revision
//	HIST002 - Nothing to redo: the table is at its newest revision
//
// # Selection Errors (SEL001-SEL099)
//
//	SEL001 - No column selected
//	SEL002 - No row selected
//	SEL003 - Column index out of range
//	SEL004 - Row index out of range
//
// # Table Errors (TBL001-TBL099)
//
//	TBL001 - Table not found
//	TBL002 - Duplicate table name
//	TBL003 - Fewer than two tables loaded for join or append
//	TBL004 - Blank table name
//	TBL005 - Table already at the top or bottom of the list
//
// # Transformation Errors (COL, PIV, OPT)
//
//	COL001 - Duplicate column name
//	COL002 - Column not found
//	PIV001 - Pivot values column equals the pivot column
//	PIV002 - Fewer than two distinct columns selected for unpivot
//	PIV003 - Pivot values cannot be summed
//	OPT001 - Unknown join kind
//	OPT002 - Unknown append direction
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large           Patterns: "file too large"
//	FILE002 - Invalid CSV              Patterns: "invalid csv"
//	FILE003 - Empty file               Patterns: "empty file"
//	FILE004 - No file                  Patterns: "no file provided"
//	FILE005 - Unsupported file type    Patterns: "unsupported file type"
//	IMP001  - Too many imports         Patterns: "too many concurrent imports"
//
// # Request Errors
//
//	REQ001  - Request cancelled        Patterns: "context canceled"
//	REQ002  - Request timed out        Patterns: "context deadline exceeded"
//	RATE001 - Rate limited             Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the application logs for the
// original error.
//
// # Matching
//
// Sentinel errors are checked first with errors.Is, in table order. Errors
// that cross a process or library boundary without a sentinel are then
// matched case-insensitively by substring; the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/tabwork/internal/revision"
	"github.com/JonMunkholm/tabwork/internal/transform"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Support reference
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

// sentinelMessages maps the package sentinels to user messages.
var sentinelMessages = []sentinelMessage{
	{revision.ErrNoMoreUndo, UserMessage{
		Message: "Nothing to undo",
		Action:  "This table is at its oldest saved revision",
		Code:    "HIST001",
	}},
	{revision.ErrNoMoreRedo, UserMessage{
		Message: "Nothing to redo",
		Action:  "This table is at its newest revision",
		Code:    "HIST002",
	}},

	{transform.ErrNoColumnSelected, UserMessage{
		Message: "No column selected",
		Action:  "Select a column and try again",
		Code:    "SEL001",
	}},
	{transform.ErrNoRowSelected, UserMessage{
		Message: "No row selected",
		Action:  "Select a row and try again",
		Code:    "SEL002",
	}},
	{transform.ErrColumnOutOfRange, UserMessage{
		Message: "The selected column does not exist",
		Action:  "Refresh the table and select the column again",
		Code:    "SEL003",
	}},
	{transform.ErrRowOutOfRange, UserMessage{
		Message: "The selected row does not exist",
		Action:  "Refresh the table and select the row again",
		Code:    "SEL004",
	}},

	{ErrTableNotFound, UserMessage{
		Message: "Table not found",
		Action:  "The table may have been deleted. Refresh the table list",
		Code:    "TBL001",
	}},
	{ErrDuplicateName, UserMessage{
		Message: "A table with this name already exists",
		Action:  "Choose a different name",
		Code:    "TBL002",
	}},
	{ErrEmptyTableSet, UserMessage{
		Message: "At least two tables are required",
		Action:  "Load another table before joining or appending",
		Code:    "TBL003",
	}},
	{ErrInvalidName, UserMessage{
		Message: "Table name cannot be blank",
		Action:  "Enter a name for the table",
		Code:    "TBL004",
	}},
	{ErrAlreadyAtEdge, UserMessage{
		Message: "The table cannot be moved further",
		Action:  "It is already at the top or bottom of the list",
		Code:    "TBL005",
	}},

	{transform.ErrDuplicateColumnName, UserMessage{
		Message: "A column with this name already exists",
		Action:  "Choose a different column name",
		Code:    "COL001",
	}},
	{transform.ErrColumnNotFound, UserMessage{
		Message: "Column not found",
		Action:  "Check the column name and try again",
		Code:    "COL002",
	}},
	{transform.ErrInvalidPivotSelection, UserMessage{
		Message: "Invalid pivot selection",
		Action:  "The values column must differ from the pivot column",
		Code:    "PIV001",
	}},
	{transform.ErrInsufficientColumns, UserMessage{
		Message: "Not enough columns selected",
		Action:  "Select at least two unique columns to unpivot",
		Code:    "PIV002",
	}},
	{transform.ErrUnsummable, UserMessage{
		Message: "The values column cannot be summed",
		Action:  "Pick a numeric or text values column",
		Code:    "PIV003",
	}},
	{transform.ErrUnknownJoinKind, UserMessage{
		Message: "Unknown join kind",
		Action:  "Use inner, left, right or outer",
		Code:    "OPT001",
	}},
	{transform.ErrUnknownDirection, UserMessage{
		Message: "Unknown append direction",
		Action:  "Use vertical or horizontal",
		Code:    "OPT002",
	}},

	{ErrTooManyImports, UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP001",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "REQ002",
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma or tab separated with consistent quoting",
			Code:    "FILE002",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with a header row",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or TSV file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "Unsupported file type",
			Action:  "Upload a .csv or .tsv file",
			Code:    "FILE005",
		},
	},
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "REQ002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message. Known sentinels
// win over text patterns; anything else maps to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original error for logging
	User      UserMessage // Message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err and wraps it. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
