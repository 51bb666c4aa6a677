package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/invoice-api/internal/platform/logger"
)

// ContextKey is the type of the context keys owned by this package.
type ContextKey string

const (
	// TraceIDKey is the key for the trace ID in the request context.
	TraceIDKey ContextKey = "traceID"

	// TraceIDHeader carries the trace ID in and out of the service.
	TraceIDHeader = "X-Request-ID"

	// MaxTraceIDLength bounds inbound trace IDs; longer values are replaced.
	MaxTraceIDLength = 64
)

// SetTraceID stores id in ctx. An empty or oversized id is replaced by a
// fresh one. The request ID seen by the logger package is set as well, so
// any logger already in ctx picks up a request_id attribute.
func SetTraceID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > MaxTraceIDLength || strings.ContainsAny(id, "\r\n") {
		id = NewTraceID()
	}
	ctx = context.WithValue(ctx, TraceIDKey, id)
	return logger.WithRequestID(ctx, id)
}

// GetTraceID retrieves the trace ID from the context, or "".
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// NewTraceID returns a random 32-character hex ID.
func NewTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
