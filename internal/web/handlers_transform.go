package web

import (
	"net/http"

	"github.com/JonMunkholm/tabwork/internal/core"
	"github.com/JonMunkholm/tabwork/internal/table"
	"github.com/JonMunkholm/tabwork/internal/transform"
)

// handleEdit applies a structural edit and pushes the result as a new
// revision of the table.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	edit, err := req.edit()
	if err != nil {
		respondError(w, r, err)
		return
	}
	id := tableID(r)
	if _, err := s.ws.ApplyEdit(WithRequestMetadata(r.Context(), r), id, edit); err != nil {
		respondError(w, r, err)
		return
	}
	s.respondTable(w, r, http.StatusOK, id)
}

// handleFilter returns the rows of the current snapshot that pass a query.
// Nothing is committed.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id := tableID(r)
	rows, err := s.ws.Filter(id, column(req.Column), req.Query)
	if err != nil {
		respondError(w, r, err)
		return
	}
	snap, err := s.ws.CurrentSnapshot(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, FilterResponse{Rows: rows, Count: len(rows), Total: snap.NumRows()})
}

func (s *Server) handlePivot(w http.ResponseWriter, r *http.Request) {
	var req PivotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	mode, err := parseCommitMode(req.Commit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx := WithRequestMetadata(r.Context(), r)
	id := tableID(r)
	out, err := s.ws.Pivot(ctx, id, column(req.Group), column(req.Spread), column(req.Value))
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.commit(w, r, mode, id, req.Name, out)
}

func (s *Server) handleUnpivot(w http.ResponseWriter, r *http.Request) {
	var req UnpivotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	mode, err := parseCommitMode(req.Commit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx := WithRequestMetadata(r.Context(), r)
	id := tableID(r)
	out, err := s.ws.Unpivot(ctx, id, req.Columns)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.commit(w, r, mode, id, req.Name, out)
}

// handleJoin joins two tables. Commit "same" replaces the left table.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	kind, err := transform.ParseJoinKind(req.Kind)
	if err != nil {
		respondError(w, r, err)
		return
	}
	mode, err := parseCommitMode(req.Commit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx := WithRequestMetadata(r.Context(), r)
	out, err := s.ws.Join(ctx, req.toCore(kind))
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.commit(w, r, mode, req.Left, req.Name, out)
}

// handleJoinInfo reports the row count each join kind would produce.
func (s *Server) handleJoinInfo(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	stats, err := s.ws.AnalyzeJoin(req.toCore(""))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, stats)
}

// handleConcat appends one table to another. Commit "same" replaces the
// first table.
func (s *Server) handleConcat(w http.ResponseWriter, r *http.Request) {
	var req ConcatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	dir, err := transform.ParseDirection(req.Direction)
	if err != nil {
		respondError(w, r, err)
		return
	}
	mode, err := parseCommitMode(req.Commit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ctx := WithRequestMetadata(r.Context(), r)
	out, err := s.ws.Concat(ctx, req.First, req.Second, dir)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.commit(w, r, mode, req.First, req.Name, out)
}

// commit makes a computed snapshot visible according to mode and writes the
// response. A preview returns the snapshot without touching the workspace.
func (s *Server) commit(w http.ResponseWriter, r *http.Request, mode commitMode, source core.TableID, hint string, snap *table.Table) {
	ctx := WithRequestMetadata(r.Context(), r)

	var (
		id     core.TableID
		status = http.StatusOK
	)
	switch mode {
	case commitPreview:
		writeJSON(w, TransformResponse{Table: newTableResponse(snap, pageParams(r))})
		return
	case commitSame:
		if err := s.ws.CommitAsSame(ctx, source, snap); err != nil {
			respondError(w, r, err)
			return
		}
		id = source
	case commitNew:
		newID, err := s.ws.CommitAsNew(ctx, hint, snap)
		if err != nil {
			respondError(w, r, err)
			return
		}
		id, status = newID, http.StatusCreated
	}

	resp, err := s.tableResponse(r, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSONStatus(w, status, TransformResponse{Committed: string(mode), Table: resp})
}
