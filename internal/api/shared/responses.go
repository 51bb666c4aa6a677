package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/invoice-api/internal/platform/logger"
	"github.com/phrazzld/invoice-api/internal/redact"
	"github.com/phrazzld/invoice-api/internal/settings"
)

// ErrorResponse defines the standard error response structure. Key and
// ExpectedType are only set for settings validation failures.
type ErrorResponse struct {
	Error        string `json:"error"`
	Key          string `json:"key,omitempty"`
	ExpectedType string `json:"expected_type,omitempty"`
	Code         int    `json:"-"` // logged, not serialized
	TraceID      string `json:"trace_id,omitempty"`
}

// ResponseOption customizes error responses.
type ResponseOption func(*responseOptions)

type responseOptions struct {
	elevateLogLevel bool
}

// WithElevatedLogLevel logs a 4xx response at WARN instead of DEBUG.
func WithElevatedLogLevel() ResponseOption {
	return func(opts *responseOptions) {
		opts.elevateLogLevel = true
	}
}

// RespondWithJSON writes data as JSON with the given status code.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithError writes a JSON error response carrying the request's
// trace ID.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	traceID := GetTraceID(r.Context())

	logger.FromContext(r.Context()).Debug("sending error response",
		"status_code", status,
		"message", message,
		"trace_id", traceID,
		"path", r.URL.Path,
		"method", r.Method)

	RespondWithJSON(w, r, status, ErrorResponse{
		Error:   message,
		Code:    status,
		TraceID: traceID,
	})
}

// RespondWithValidationError writes the 422 body for a settings payload
// that failed its type checks.
func RespondWithValidationError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{
		Error:   "Settings validation failed",
		Code:    http.StatusUnprocessableEntity,
		TraceID: GetTraceID(r.Context()),
	}
	var verr *settings.ValidationError
	if errors.As(err, &verr) {
		resp.Key = verr.Key
		resp.ExpectedType = verr.Expected.String()
	}

	logger.FromContext(r.Context()).Debug("settings payload rejected",
		"key", resp.Key,
		"expected_type", resp.ExpectedType,
		"trace_id", resp.TraceID,
		"path", r.URL.Path)

	RespondWithJSON(w, r, http.StatusUnprocessableEntity, resp)
}

// RespondWithErrorAndLog writes a sanitized error response and logs the
// redacted detail of err.
//
// 5xx responses log at ERROR, 429 at WARN, everything else at DEBUG unless
// WithElevatedLogLevel is passed.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	userMessage string,
	err error,
	opts ...ResponseOption,
) {
	traceID := GetTraceID(r.Context())

	logAttrs := []slog.Attr{
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.String("user_message", userMessage),
	}
	if err != nil {
		logAttrs = append(logAttrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}

	responseOpts := responseOptions{}
	for _, opt := range opts {
		opt(&responseOpts)
	}

	logLevel := slog.LevelDebug
	switch {
	case status >= http.StatusInternalServerError:
		logLevel = slog.LevelError
	case status == http.StatusTooManyRequests:
		logLevel = slog.LevelWarn
	case responseOpts.elevateLogLevel && status >= http.StatusBadRequest:
		logLevel = slog.LevelWarn
	}

	logger.FromContext(r.Context()).LogAttrs(r.Context(), logLevel, "API error response", logAttrs...)

	RespondWithJSON(w, r, status, ErrorResponse{
		Error:   userMessage,
		Code:    status,
		TraceID: traceID,
	})
}
