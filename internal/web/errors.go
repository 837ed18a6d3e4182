package web

// errors.go provides unified error response handling for the web layer.
//
// Every failed request is:
//   - Logged with full technical details and the request ID (server-side)
//   - Returned to the client as a JSON user message with a support code
//
// The status code is chosen from the error chain with errors.Is, so a
// wrapped sentinel from any package maps the same way it would unwrapped.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/tabwork/internal/core"
	"github.com/JonMunkholm/tabwork/internal/csvio"
	"github.com/JonMunkholm/tabwork/internal/logging"
	"github.com/JonMunkholm/tabwork/internal/revision"
	"github.com/JonMunkholm/tabwork/internal/table"
	"github.com/JonMunkholm/tabwork/internal/transform"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// errBadRequest marks malformed input: undecodable JSON, missing or unknown
// parameters.
var errBadRequest = errors.New("bad request")

// badRequest wraps a message as a REQ003 user error.
func badRequest(format string, args ...any) error {
	err := fmt.Errorf("%w: "+format, append([]any{errBadRequest}, args...)...)
	return &core.UserError{
		Technical: err,
		User: core.UserMessage{
			Message: "Invalid request",
			Action:  capitalize(fmt.Sprintf(format, args...)),
			Code:    "REQ003",
		},
	}
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// statusGroups maps error sentinels to HTTP status codes. Order matters only
// within the chain of a single error; groups are disjoint.
var statusGroups = []struct {
	status  int
	targets []error
}{
	{http.StatusBadRequest, []error{
		errBadRequest,
		csvio.ErrInvalidCSV,
		csvio.ErrEmptyFile,
		errNoFile,
	}},
	{http.StatusNotFound, []error{
		core.ErrTableNotFound,
	}},
	{http.StatusConflict, []error{
		core.ErrDuplicateName,
		transform.ErrDuplicateColumnName,
	}},
	{http.StatusRequestEntityTooLarge, []error{
		csvio.ErrFileTooLarge,
	}},
	{http.StatusUnsupportedMediaType, []error{
		csvio.ErrUnsupportedType,
	}},
	{http.StatusUnprocessableEntity, []error{
		revision.ErrNoMoreUndo,
		revision.ErrNoMoreRedo,
		transform.ErrNoColumnSelected,
		transform.ErrNoRowSelected,
		transform.ErrColumnOutOfRange,
		transform.ErrRowOutOfRange,
		transform.ErrColumnNotFound,
		transform.ErrInvalidPivotSelection,
		transform.ErrInsufficientColumns,
		transform.ErrUnsummable,
		transform.ErrUnknownJoinKind,
		transform.ErrUnknownDirection,
		table.ErrRaggedColumns,
		core.ErrEmptyTableSet,
		core.ErrInvalidName,
		core.ErrAlreadyAtEdge,
	}},
	{http.StatusTooManyRequests, []error{
		core.ErrTooManyImports,
	}},
	{http.StatusGatewayTimeout, []error{
		context.DeadlineExceeded,
	}},
}

// statusFor returns the HTTP status for err, defaulting to 500.
func statusFor(err error) int {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	for _, g := range statusGroups {
		for _, target := range g.targets {
			if errors.Is(err, target) {
				return g.status
			}
		}
	}
	return http.StatusInternalServerError
}

// respondError logs the technical error and writes the mapped user message.
// Errors with no specific user message log at error level whatever their
// status.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	ue := core.NewUserError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError || !core.IsUserFacing(err) {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", ue.Technical.Error(),
		"code", ue.User.Code,
	)

	writeJSONStatus(w, status, ErrorResponse{
		Error:   ue.User.Message,
		Message: ue.User.Message,
		Action:  ue.User.Action,
		Code:    ue.User.Code,
	})
}

// logErr logs an error that can no longer be reported to the client.
func logErr(r *http.Request, msg string, err error) {
	logging.FromContext(r.Context()).Error(msg,
		"path", r.URL.Path,
		"method", r.Method,
		"error", err,
	)
}
