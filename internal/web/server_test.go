package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/tabwork/internal/audit"
	"github.com/JonMunkholm/tabwork/internal/config"
	"github.com/JonMunkholm/tabwork/internal/core"
)

type testServer struct {
	*Server
	log *audit.MemoryLog
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Workspace: config.WorkspaceConfig{
			HistoryCapacity:      10,
			MaxUploadBytes:       1 << 20,
			MaxConcurrentImports: 2,
			ImportWait:           time.Second,
		},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	log := audit.NewMemoryLog(100)
	ws := core.NewWorkspace(
		core.WithHistoryCapacity(cfg.Workspace.HistoryCapacity),
		core.WithAudit(log),
	)
	s := NewServer(ws, log, nil, cfg)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return &testServer{Server: s, log: log}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %T: %v (body %q)", v, err, rec.Body.String())
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rec, status)
	if got := decode[ErrorResponse](t, rec); got.Code != code {
		t.Errorf("code = %q, want %q (%+v)", got.Code, code, got)
	}
}

var salesBody = map[string]any{
	"name":    "Sales",
	"columns": []map[string]string{{"name": "region"}, {"name": "month"}, {"name": "amount"}},
	"rows": [][]any{
		{"east", "jan", 10},
		{"east", "feb", 5},
		{"west", "jan", 7},
	},
}

var regionsBody = map[string]any{
	"name":    "Regions",
	"columns": []map[string]string{{"name": "region"}, {"name": "manager"}},
	"rows":    [][]any{{"east", "Ann"}, {"north", "Bob"}},
}

func (s *testServer) create(t *testing.T, body any) core.TableID {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/tables", body)
	expectStatus(t, rec, http.StatusCreated)
	return decode[TableResponse](t, rec).ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	s.create(t, salesBody)

	rec := s.do(t, http.MethodGet, "/healthz", nil)
	expectStatus(t, rec, http.StatusOK)
	got := decode[HealthResponse](t, rec)
	if got.Status != "ok" || got.Tables != 1 || got.Imports.MaxConcurrent != 2 {
		t.Errorf("health = %+v", got)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy header")
	}
}

func TestCreateAndGetTable(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.create(t, salesBody)

	rec := s.do(t, http.MethodGet, "/api/tables/"+string(id), nil)
	expectStatus(t, rec, http.StatusOK)
	got := decode[TableResponse](t, rec)

	if got.Name != "Sales" || got.Rows != 3 {
		t.Fatalf("table = %+v", got)
	}
	kinds := []string{got.Columns[0].Kind, got.Columns[1].Kind, got.Columns[2].Kind}
	if strings.Join(kinds, ",") != "text,text,numeric" {
		t.Errorf("kinds = %v", kinds)
	}
	if got.Data[0][2] != float64(10) {
		t.Errorf("data[0][2] = %v, want 10", got.Data[0][2])
	}
	if got.History == nil || got.History.Len != 1 || got.History.Capacity != 10 {
		t.Errorf("history = %+v", got.History)
	}

	// Paging
	rec = s.do(t, http.MethodGet, "/api/tables/"+string(id)+"?offset=2&limit=5", nil)
	paged := decode[TableResponse](t, rec)
	if paged.Offset != 2 || len(paged.Data) != 1 || paged.Data[0][0] != "west" {
		t.Errorf("page = %+v", paged)
	}

	rec = s.do(t, http.MethodGet, "/api/tables", nil)
	list := decode[[]core.TableSummary](t, rec)
	if len(list) != 1 || list[0].ID != id || list[0].Rows != 3 {
		t.Errorf("list = %+v", list)
	}
}

func TestCreateTable_Errors(t *testing.T) {
	s := newTestServer(t, nil)
	s.create(t, salesBody)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{name: "duplicate name", body: salesBody, status: http.StatusConflict, code: "TBL002"},
		{
			name:   "blank name",
			body:   map[string]any{"name": "  ", "columns": []any{}},
			status: http.StatusUnprocessableEntity,
			code:   "TBL004",
		},
		{name: "malformed json", body: "{", status: http.StatusBadRequest, code: "REQ003"},
		{name: "unknown field", body: `{"name":"x","colour":"red"}`, status: http.StatusBadRequest, code: "REQ003"},
		{
			name: "unknown kind",
			body: map[string]any{
				"name":    "x",
				"columns": []map[string]string{{"name": "a", "kind": "blob"}},
			},
			status: http.StatusBadRequest,
			code:   "REQ003",
		},
		{
			name: "row too long",
			body: map[string]any{
				"name":    "x",
				"columns": []map[string]string{{"name": "a"}},
				"rows":    [][]any{{1, 2}},
			},
			status: http.StatusBadRequest,
			code:   "REQ003",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, s.do(t, http.MethodPost, "/api/tables", tt.body), tt.status, tt.code)
		})
	}
}

func TestGetTable_NotFound(t *testing.T) {
	s := newTestServer(t, nil)
	expectError(t, s.do(t, http.MethodGet, "/api/tables/missing", nil), http.StatusNotFound, "TBL001")
}

func TestRenameMoveDelete(t *testing.T) {
	s := newTestServer(t, nil)
	sales := s.create(t, salesBody)
	regions := s.create(t, regionsBody)
	salesPath := "/api/tables/" + string(sales)

	expectError(t, s.do(t, http.MethodPatch, salesPath, RenameRequest{Name: "Regions"}), http.StatusConflict, "TBL002")

	rec := s.do(t, http.MethodPatch, salesPath, RenameRequest{Name: "Revenue"})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[TableResponse](t, rec); got.Name != "Revenue" {
		t.Errorf("name = %q, want Revenue", got.Name)
	}

	expectError(t, s.do(t, http.MethodPost, salesPath+"/move", MoveRequest{Direction: "up"}),
		http.StatusUnprocessableEntity, "TBL005")
	expectError(t, s.do(t, http.MethodPost, salesPath+"/move", MoveRequest{}), http.StatusBadRequest, "REQ003")

	rec = s.do(t, http.MethodPost, salesPath+"/move", MoveRequest{Direction: "down"})
	expectStatus(t, rec, http.StatusOK)
	order := decode[[]core.TableSummary](t, rec)
	if order[0].ID != regions || order[1].ID != sales {
		t.Errorf("order = %v, want Regions then Revenue", order)
	}

	expectStatus(t, s.do(t, http.MethodDelete, salesPath, nil), http.StatusNoContent)
	expectError(t, s.do(t, http.MethodGet, salesPath, nil), http.StatusNotFound, "TBL001")
	expectError(t, s.do(t, http.MethodDelete, salesPath, nil), http.StatusNotFound, "TBL001")
}

func TestEditUndoRedo(t *testing.T) {
	s := newTestServer(t, nil)
	path := "/api/tables/" + string(s.create(t, salesBody))

	rec := s.do(t, http.MethodPost, path+"/edit", map[string]any{"op": "sort_ascending", "column": 2})
	expectStatus(t, rec, http.StatusOK)
	got := decode[TableResponse](t, rec)
	if got.Data[0][2] != float64(5) || got.History.Len != 2 || got.History.Cursor != 1 {
		t.Fatalf("after sort: data[0] = %v, history = %+v", got.Data[0], got.History)
	}

	rec = s.do(t, http.MethodPost, path+"/undo", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[TableResponse](t, rec); got.Data[0][2] != float64(10) || !got.History.CanRedo {
		t.Errorf("after undo: data[0] = %v, history = %+v", got.Data[0], got.History)
	}

	expectError(t, s.do(t, http.MethodPost, path+"/undo", nil), http.StatusUnprocessableEntity, "HIST001")

	rec = s.do(t, http.MethodPost, path+"/redo", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[TableResponse](t, rec); got.Data[0][2] != float64(5) {
		t.Errorf("after redo: data[0] = %v", got.Data[0])
	}
	expectError(t, s.do(t, http.MethodPost, path+"/redo", nil), http.StatusUnprocessableEntity, "HIST002")

	rec = s.do(t, http.MethodPost, path+"/rollback", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[TableResponse](t, rec); got.History.Cursor != 0 {
		t.Errorf("after rollback: cursor = %d, want 0", got.History.Cursor)
	}

	rec = s.do(t, http.MethodGet, path+"/history", nil)
	if info := decode[core.HistoryInfo](t, rec); info.Len != 2 || info.CanUndo {
		t.Errorf("history = %+v", info)
	}
}

func TestEdit_Errors(t *testing.T) {
	s := newTestServer(t, nil)
	path := "/api/tables/" + string(s.create(t, salesBody)) + "/edit"

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{name: "unknown op", body: map[string]any{"op": "explode"}, status: http.StatusBadRequest, code: "REQ003"},
		{name: "missing op", body: map[string]any{}, status: http.StatusBadRequest, code: "REQ003"},
		{name: "no column", body: map[string]any{"op": "sort_ascending"}, status: http.StatusUnprocessableEntity, code: "SEL001"},
		{name: "no rows", body: map[string]any{"op": "delete_rows"}, status: http.StatusUnprocessableEntity, code: "SEL002"},
		{name: "column out of range", body: map[string]any{"op": "sort_ascending", "column": 9}, status: http.StatusUnprocessableEntity, code: "SEL003"},
		{
			name:   "duplicate column name",
			body:   map[string]any{"op": "rename_column", "column": 0, "name": "month"},
			status: http.StatusConflict,
			code:   "COL001",
		},
		{
			name:   "unknown column name",
			body:   map[string]any{"op": "delete_columns", "names": []string{"nope"}},
			status: http.StatusUnprocessableEntity,
			code:   "COL002",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, s.do(t, http.MethodPost, path, tt.body), tt.status, tt.code)
		})
	}
}

func TestFilter(t *testing.T) {
	s := newTestServer(t, nil)
	path := "/api/tables/" + string(s.create(t, salesBody)) + "/filter"

	rec := s.do(t, http.MethodPost, path, map[string]any{"column": 0, "text": "EA"})
	expectStatus(t, rec, http.StatusOK)
	got := decode[FilterResponse](t, rec)
	if got.Count != 2 || got.Total != 3 || got.Rows[0] != 0 || got.Rows[1] != 1 {
		t.Errorf("filter = %+v", got)
	}

	rec = s.do(t, http.MethodPost, path, map[string]any{"column": 0, "text": "EA", "caseSensitive": true})
	if got := decode[FilterResponse](t, rec); got.Count != 0 {
		t.Errorf("case-sensitive count = %d, want 0", got.Count)
	}
}

func TestPivotAndUnpivot(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.create(t, salesBody)
	path := "/api/tables/" + string(id)

	rec := s.do(t, http.MethodPost, path+"/pivot", map[string]any{"group": 0, "spread": 1, "value": 2})
	expectStatus(t, rec, http.StatusOK)
	got := decode[TransformResponse](t, rec)
	if got.Committed != "" || got.Table.ID != "" {
		t.Errorf("preview should not commit: %+v", got)
	}
	names := []string{got.Table.Columns[0].Name, got.Table.Columns[1].Name, got.Table.Columns[2].Name}
	if strings.Join(names, ",") != "region,feb,jan" {
		t.Errorf("columns = %v", names)
	}
	if got.Table.Data[1][1] != nil || got.Table.Data[1][2] != float64(7) {
		t.Errorf("west row = %v, want [west <nil> 7]", got.Table.Data[1])
	}

	expectError(t, s.do(t, http.MethodPost, path+"/pivot", map[string]any{"group": 0, "spread": 1, "value": 1}),
		http.StatusUnprocessableEntity, "PIV001")
	expectError(t, s.do(t, http.MethodPost, path+"/unpivot", map[string]any{"columns": []int{1}}),
		http.StatusUnprocessableEntity, "PIV002")

	rec = s.do(t, http.MethodPost, path+"/unpivot", map[string]any{"columns": []int{1, 2}, "commit": "same"})
	expectStatus(t, rec, http.StatusOK)
	got = decode[TransformResponse](t, rec)
	if got.Committed != "same" || got.Table.ID != id || got.Table.Rows != 6 || got.Table.History.Len != 2 {
		t.Errorf("unpivot as same = committed %q, id %q, rows %d, history %+v",
			got.Committed, got.Table.ID, got.Table.Rows, got.Table.History)
	}
}

func TestJoin(t *testing.T) {
	s := newTestServer(t, nil)
	sales := s.create(t, salesBody)

	req := map[string]any{"left": sales, "right": "x", "leftKey": 0, "rightKey": 0, "kind": "inner"}
	expectError(t, s.do(t, http.MethodPost, "/api/join", req), http.StatusUnprocessableEntity, "TBL003")

	regions := s.create(t, regionsBody)
	req["right"] = regions

	rec := s.do(t, http.MethodPost, "/api/join/info", req)
	expectStatus(t, rec, http.StatusOK)
	var stats struct {
		InnerRows, LeftRows, RightRows, OuterRows int
	}
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.InnerRows != 2 || stats.LeftRows != 3 || stats.RightRows != 3 || stats.OuterRows != 4 {
		t.Errorf("stats = %+v", stats)
	}

	rec = s.do(t, http.MethodPost, "/api/join", req)
	expectStatus(t, rec, http.StatusOK)
	preview := decode[TransformResponse](t, rec)
	if preview.Table.Rows != 2 || len(preview.Table.Columns) != 4 {
		t.Errorf("inner join = %d rows, %d columns, want 2 and 4", preview.Table.Rows, len(preview.Table.Columns))
	}

	req["commit"] = "new"
	rec = s.do(t, http.MethodPost, "/api/join", req)
	expectStatus(t, rec, http.StatusCreated)
	created := decode[TransformResponse](t, rec)
	if created.Committed != "new" || created.Table.Name != "Query 1" {
		t.Errorf("join as new = %q named %q, want new named Query 1", created.Committed, created.Table.Name)
	}

	req["commit"] = "later"
	expectError(t, s.do(t, http.MethodPost, "/api/join", req), http.StatusBadRequest, "REQ003")

	req["commit"] = ""
	req["kind"] = "sideways"
	expectError(t, s.do(t, http.MethodPost, "/api/join", req), http.StatusUnprocessableEntity, "OPT001")
}

func TestConcat(t *testing.T) {
	s := newTestServer(t, nil)
	sales := s.create(t, salesBody)
	regions := s.create(t, regionsBody)

	rec := s.do(t, http.MethodPost, "/api/concat", map[string]any{
		"first": sales, "second": regions, "direction": "vertical", "commit": "same",
	})
	expectStatus(t, rec, http.StatusOK)
	got := decode[TransformResponse](t, rec)
	if got.Table.ID != sales || got.Table.Rows != 5 || len(got.Table.Columns) != 4 {
		t.Errorf("concat = id %q, %d rows, %d columns", got.Table.ID, got.Table.Rows, len(got.Table.Columns))
	}

	rec = s.do(t, http.MethodPost, "/api/concat", map[string]any{
		"first": sales, "second": regions, "direction": "diagonal",
	})
	expectError(t, rec, http.StatusUnprocessableEntity, "OPT002")
}

func TestExport(t *testing.T) {
	s := newTestServer(t, nil)
	path := "/api/tables/" + string(s.create(t, salesBody)) + "/export"

	rec := s.do(t, http.MethodGet, path, nil)
	expectStatus(t, rec, http.StatusOK)
	want := "region,month,amount\neast,jan,10\neast,feb,5\nwest,jan,7\n"
	if rec.Body.String() != want {
		t.Errorf("csv = %q, want %q", rec.Body.String(), want)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="Sales.csv"` {
		t.Errorf("Content-Disposition = %q", cd)
	}

	rec = s.do(t, http.MethodGet, path+"?format=tsv", nil)
	if !strings.HasPrefix(rec.Body.String(), "region\tmonth\tamount\n") {
		t.Errorf("tsv = %q", rec.Body.String())
	}

	expectError(t, s.do(t, http.MethodGet, path+"?format=xlsx", nil), http.StatusBadRequest, "REQ003")
}

func upload(t *testing.T, s *testServer, fileName, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/tables", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestImport(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Workspace.MaxUploadBytes = 64 })

	rec := upload(t, s, "people.csv", "\xEF\xBB\xBFid,name\n1,ann\n2,bob\n", nil)
	expectStatus(t, rec, http.StatusCreated)
	got := decode[TableResponse](t, rec)
	if got.Name != "people" || got.Rows != 2 || got.Columns[0].Name != "id" || got.Columns[0].Kind != "numeric" {
		t.Errorf("import = %+v", got)
	}

	rec = upload(t, s, "scores.tsv", "team\tscore\nred\t3\n", map[string]string{"name": "Scores", "raw": "true"})
	expectStatus(t, rec, http.StatusCreated)
	got = decode[TableResponse](t, rec)
	if got.Name != "Scores" || got.Columns[1].Kind != "text" {
		t.Errorf("raw import = %+v", got)
	}

	list := s.ws.ListTables()
	if list[0].Source.FileName != "people.csv" || list[0].Source.Extension != "csv" {
		t.Errorf("source = %+v", list[0].Source)
	}

	for _, want := range []string{"people (1)", "people (2)"} {
		rec = upload(t, s, "people.txt", "id\tname\n3\tcy\n", nil)
		expectStatus(t, rec, http.StatusCreated)
		if got := decode[TableResponse](t, rec); got.Name != want || got.Columns[1].Name != "name" {
			t.Errorf("repeated import = %+v, want name %q", got, want)
		}
	}

	tests := []struct {
		name     string
		fileName string
		content  string
		status   int
		code     string
	}{
		{name: "unsupported type", fileName: "book.xlsx", content: "x", status: http.StatusUnsupportedMediaType, code: "FILE005"},
		{name: "no file", status: http.StatusBadRequest, code: "FILE004"},
		{name: "empty file", fileName: "empty.csv", content: "", status: http.StatusBadRequest, code: "FILE003"},
		{name: "too large", fileName: "big.csv", content: "a\n" + strings.Repeat("1\n", 64), status: http.StatusRequestEntityTooLarge, code: "FILE001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, upload(t, s, tt.fileName, tt.content, nil), tt.status, tt.code)
		})
	}

	if st := s.imports.Status(); st.Active != 0 {
		t.Errorf("active imports = %d after all requests, want 0", st.Active)
	}
}

func TestAuditLog(t *testing.T) {
	s := newTestServer(t, nil)
	path := "/api/tables/" + string(s.create(t, salesBody))
	s.do(t, http.MethodPost, path+"/edit", map[string]any{"op": "sort_descending", "column": 2})

	rec := s.do(t, http.MethodGet, "/api/audit-log", nil)
	expectStatus(t, rec, http.StatusOK)
	got := decode[audit.Result](t, rec)
	if got.TotalCount != 2 {
		t.Fatalf("TotalCount = %d, want 2", got.TotalCount)
	}
	latest := got.Entries[0]
	if latest.Action != audit.ActionCommit || latest.Op != "sort_descending" {
		t.Errorf("latest = %+v", latest)
	}
	if latest.RequestID == "" || latest.IPAddress != "192.0.2.1" {
		t.Errorf("request metadata = id %q, ip %q", latest.RequestID, latest.IPAddress)
	}

	rec = s.do(t, http.MethodGet, "/api/audit-log?action=table_create", nil)
	if got := decode[audit.Result](t, rec); got.TotalCount != 1 || got.Entries[0].TableName != "Sales" {
		t.Errorf("filtered = %+v", got)
	}

	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	rec = s.do(t, http.MethodGet, "/api/audit-log?since="+future, nil)
	if got := decode[audit.Result](t, rec); got.TotalCount != 0 {
		t.Errorf("since future TotalCount = %d, want 0", got.TotalCount)
	}

	expectError(t, s.do(t, http.MethodGet, "/api/audit-log?until=yesterday", nil), http.StatusBadRequest, "REQ003")
}

func TestAPIKey(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"k1"}
	})

	expectStatus(t, s.do(t, http.MethodGet, "/api/tables", nil), http.StatusUnauthorized)

	req := httptest.NewRequest(http.MethodGet, "/api/tables", nil)
	req.Header.Set("X-API-Key", "k1")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)

	expectStatus(t, s.do(t, http.MethodGet, "/healthz", nil), http.StatusOK)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1, UploadLimit: 1}
	})

	expectStatus(t, s.do(t, http.MethodGet, "/api/tables", nil), http.StatusOK)
	rec := s.do(t, http.MethodGet, "/api/tables", nil)
	expectStatus(t, rec, http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	expectStatus(t, s.do(t, http.MethodGet, "/healthz", nil), http.StatusOK)
}
