package web

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/tabwork/internal/audit"
)

// handleAuditLog returns one page of audit entries, newest first.
//
// Query params:
//   - table_id, action, severity: exact filters
//   - since, until: RFC 3339 timestamps, until exclusive
//   - limit (default 100, max 1000), offset
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAuditFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := s.audit.Query(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func parseAuditFilter(r *http.Request) (audit.Filter, error) {
	q := r.URL.Query()
	f := audit.Filter{
		TableID:  q.Get("table_id"),
		Action:   audit.Action(q.Get("action")),
		Severity: audit.Severity(q.Get("severity")),
		Limit:    parseIntParam(r, "limit", audit.DefaultLimit),
		Offset:   parseIntParam(r, "offset", 0),
	}

	for _, p := range []struct {
		name string
		dst  *time.Time
	}{
		{"since", &f.Since},
		{"until", &f.Until},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return audit.Filter{}, badRequest("%s must be an RFC 3339 timestamp, got %q", p.name, v)
		}
		*p.dst = ts
	}
	return f, nil
}
