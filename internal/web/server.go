// Package web provides the JSON HTTP API over a table workspace.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/tabwork/internal/audit"
	"github.com/JonMunkholm/tabwork/internal/config"
	"github.com/JonMunkholm/tabwork/internal/core"
	webmw "github.com/JonMunkholm/tabwork/internal/web/middleware"
)

// maxJSONBody bounds JSON request bodies. File imports use
// Workspace.MaxUploadBytes instead.
const maxJSONBody = 10 << 20

// Server is the HTTP server for the workspace API.
type Server struct {
	ws      *core.Workspace
	audit   audit.Recorder
	imports *core.ImportLimiter
	cfg     *config.Config

	router   *chi.Mux
	server   *http.Server
	limiters []*webmw.RateLimiter
}

// NewServer creates a Server. A nil recorder serves an empty audit log and a
// nil limiter uses the configured import concurrency.
func NewServer(ws *core.Workspace, rec audit.Recorder, imports *core.ImportLimiter, cfg *config.Config) *Server {
	if rec == nil {
		rec = audit.Discard
	}
	if imports == nil {
		imports = core.NewImportLimiter(cfg.Workspace.MaxConcurrentImports, cfg.Workspace.ImportWait)
	}
	s := &Server{
		ws:      ws,
		audit:   rec,
		imports: imports,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(webmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(webmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(webmw.APIKeyAuth(s.cfg.Security))
		if s.cfg.Rate.Enabled {
			r.Use(s.newLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst).Middleware)
		}

		// Tables
		r.Get("/tables", s.handleListTables)
		r.With(s.uploadLimit()).Post("/tables", s.handleCreateTable)

		r.Route("/tables/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetTable)
			r.Patch("/", s.handleRenameTable)
			r.Delete("/", s.handleDeleteTable)
			r.Post("/move", s.handleMoveTable)
			r.Get("/export", s.handleExportTable)

			// History
			r.Get("/history", s.handleHistory)
			r.Post("/undo", s.handleUndo)
			r.Post("/redo", s.handleRedo)
			r.Post("/rollback", s.handleRollback)

			// Single-table transforms
			r.Post("/edit", s.handleEdit)
			r.Post("/filter", s.handleFilter)
			r.Post("/pivot", s.handlePivot)
			r.Post("/unpivot", s.handleUnpivot)
		})

		// Multi-table transforms
		r.Post("/join", s.handleJoin)
		r.Post("/join/info", s.handleJoinInfo)
		r.Post("/concat", s.handleConcat)

		// Audit log
		r.Get("/audit-log", s.handleAuditLog)
	})
}

func (s *Server) newLimiter(perMinute, burst int) *webmw.RateLimiter {
	rl := webmw.NewRateLimiter(perMinute, burst)
	s.limiters = append(s.limiters, rl)
	return rl
}

// uploadLimit applies the stricter upload rate to multipart imports only.
func (s *Server) uploadLimit() func(http.Handler) http.Handler {
	if !s.cfg.Rate.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	rl := s.newLimiter(s.cfg.Rate.UploadLimit, s.cfg.Rate.UploadLimit)
	return func(next http.Handler) http.Handler {
		limited := rl.Middleware(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isMultipart(r) {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server starting", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server, then waits for running imports.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.Close()
	}
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.imports.WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				// JSON only: nothing may be loaded or framed.
				w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// handleHealth reports liveness and import capacity. It sits outside /api
// so probes need no API key and are not rate limited.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{
		Status:  "ok",
		Tables:  s.ws.Len(),
		Imports: s.imports.Status(),
	})
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v with the given status.
// Logs encoding errors since headers are already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// parseIntParam parses a non-negative integer query parameter with a
// default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

// pageParams reads offset and limit, clamping limit to [1, MaxPageSize].
func pageParams(r *http.Request) page {
	limit := parseIntParam(r, "limit", DefaultPageSize)
	if limit < 1 {
		limit = DefaultPageSize
	}
	return page{
		Offset: parseIntParam(r, "offset", 0),
		Limit:  min(limit, MaxPageSize),
	}
}

func tableID(r *http.Request) core.TableID {
	return core.TableID(chi.URLParam(r, "id"))
}
