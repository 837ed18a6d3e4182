package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/tabwork/internal/core"
	"github.com/JonMunkholm/tabwork/internal/table"
)

// handleHistory returns a table's revision cursor and bounds.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	info, err := s.ws.History(tableID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, info)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.moveCursor(w, r, s.ws.Undo)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.moveCursor(w, r, s.ws.Redo)
}

// handleRollback moves the cursor to the oldest retained revision.
func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	s.moveCursor(w, r, s.ws.Rollback)
}

// moveCursor runs an undo, redo or rollback and returns the table at its
// new cursor.
func (s *Server) moveCursor(w http.ResponseWriter, r *http.Request, move func(context.Context, core.TableID) (*table.Table, error)) {
	id := tableID(r)
	if _, err := move(WithRequestMetadata(r.Context(), r), id); err != nil {
		respondError(w, r, err)
		return
	}
	s.respondTable(w, r, http.StatusOK, id)
}
