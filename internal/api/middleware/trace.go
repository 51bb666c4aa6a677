package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/invoice-api/internal/api/shared"
	"github.com/phrazzld/invoice-api/internal/platform/logger"
)

// NewTraceMiddleware tags each request with a trace ID and attaches a
// request-scoped logger derived from base. An inbound X-Request-ID is
// reused; the ID is echoed on the response.
func NewTraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.WithLogger(r.Context(), base)
			ctx = shared.SetTraceID(ctx, r.Header.Get(shared.TraceIDHeader))
			w.Header().Set(shared.TraceIDHeader, shared.GetTraceID(ctx))

			logger.FromContext(ctx).Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
