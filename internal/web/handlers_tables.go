package web

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/tabwork/internal/core"
	"github.com/JonMunkholm/tabwork/internal/csvio"
)

// errNoFile is returned when a multipart import has no "file" part.
var errNoFile = errors.New("no file provided")

// multipartMemory is the part of an import form held in memory; the rest
// spills to temporary files.
const multipartMemory = 32 << 20

// multipartOverhead allows for form boundaries and fields around the file.
const multipartOverhead = 1 << 20

// handleListTables returns every table in display order.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.ws.ListTables())
}

// handleCreateTable creates a table from a JSON body or imports a CSV/TSV
// file from a multipart form.
func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	if isMultipart(r) {
		s.handleImport(w, r)
		return
	}

	var req CreateTableRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	snap, err := req.buildTable()
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	id, err := s.ws.CreateTable(ctx, req.Name, snap, core.Source{})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.respondTable(w, r, http.StatusCreated, id)
}

// handleImport parses an uploaded delimited file into a new table.
//
// Form fields:
//   - file: the .csv, .tsv, .tab or .txt file (required)
//   - name: table name (default: the file name without extension)
//   - raw: "true" keeps every cell as text
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Workspace.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			respondError(w, r, fmt.Errorf("%w: limit is %d bytes", csvio.ErrFileTooLarge, maxSize))
			return
		}
		respondError(w, r, badRequest("invalid multipart form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	delim, err := csvio.DelimiterFor(header.Filename)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.imports.Acquire(ctx); err != nil {
		respondError(w, r, err)
		return
	}
	defer s.imports.Release()

	snap, err := csvio.Read(file, csvio.Options{
		Delimiter: delim,
		MaxBytes:  maxSize,
		RawText:   r.FormValue("raw") == "true",
	})
	if err != nil {
		respondError(w, r, fmt.Errorf("import %s: %w", header.Filename, err))
		return
	}

	ext := filepath.Ext(header.Filename)
	name := r.FormValue("name")
	if strings.TrimSpace(name) == "" {
		name = strings.TrimSuffix(filepath.Base(header.Filename), ext)
	}

	id, err := s.ws.ImportTable(ctx, name, snap, core.Source{
		FileName:  header.Filename,
		Extension: strings.TrimPrefix(strings.ToLower(ext), "."),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.respondTable(w, r, http.StatusCreated, id)
}

// handleGetTable returns one page of a table's current snapshot with its
// history. Query params: offset, limit.
func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	s.respondTable(w, r, http.StatusOK, tableID(r))
}

// handleRenameTable renames a table.
func (s *Server) handleRenameTable(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id := tableID(r)
	if err := s.ws.RenameTable(WithRequestMetadata(r.Context(), r), id, req.Name); err != nil {
		respondError(w, r, err)
		return
	}
	s.respondTable(w, r, http.StatusOK, id)
}

// handleDeleteTable removes a table and its history.
func (s *Server) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.DeleteTable(WithRequestMetadata(r.Context(), r), tableID(r)); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMoveTable shifts a table in the display order and returns the new
// order.
func (s *Server) handleMoveTable(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	delta, err := req.delta()
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.ws.MoveTable(WithRequestMetadata(r.Context(), r), tableID(r), delta); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, s.ws.ListTables())
}

// handleExportTable streams a table's current snapshot as CSV, or as TSV
// with format=tsv.
func (s *Server) handleExportTable(w http.ResponseWriter, r *http.Request) {
	id := tableID(r)
	name, err := s.ws.Name(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	snap, err := s.ws.CurrentSnapshot(id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	delim, ext, contentType := ',', "csv", "text/csv"
	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
	case "tsv":
		delim, ext, contentType = '\t', "tsv", "text/tab-separated-values"
	default:
		respondError(w, r, badRequest("format must be csv or tsv, got %q", format))
		return
	}

	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFileName(name, ext)))
	if err := csvio.Write(w, snap, delim); err != nil {
		// Headers are already sent.
		logErr(r, "export failed", err)
	}
}

// exportFileName turns a table name into a safe download name.
func exportFileName(name, ext string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	return safe + "." + ext
}

// respondTable writes a table's current snapshot, name and history.
func (s *Server) respondTable(w http.ResponseWriter, r *http.Request, status int, id core.TableID) {
	resp, err := s.tableResponse(r, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSONStatus(w, status, resp)
}

// tableResponse reads the page of id selected by r's query.
func (s *Server) tableResponse(r *http.Request, id core.TableID) (TableResponse, error) {
	name, err := s.ws.Name(id)
	if err != nil {
		return TableResponse{}, err
	}
	snap, err := s.ws.CurrentSnapshot(id)
	if err != nil {
		return TableResponse{}, err
	}
	info, err := s.ws.History(id)
	if err != nil {
		return TableResponse{}, err
	}

	resp := newTableResponse(snap, pageParams(r))
	resp.ID = id
	resp.Name = name
	resp.History = &info
	return resp, nil
}
