package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/tabwork/internal/audit"
	webmw "github.com/JonMunkholm/tabwork/internal/web/middleware"
)

// WithRequestMetadata adds the client IP, User-Agent and request ID to ctx
// for the audit trail.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = audit.ContextWithIPAddress(ctx, webmw.ClientIP(r)) // already rewritten by TrustedRealIP
	ctx = audit.ContextWithUserAgent(ctx, r.UserAgent())
	if id := middleware.GetReqID(r.Context()); id != "" {
		ctx = audit.ContextWithRequestID(ctx, id)
	}
	return ctx
}
