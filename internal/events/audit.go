package events

import (
	"context"
	"log/slog"

	"github.com/phrazzld/invoice-api/internal/platform/logger"
)

// AuditHandler writes one structured log line per settings change. It uses
// the request-scoped logger when the context carries one so the line keeps
// its request id.
type AuditHandler struct {
	logger *slog.Logger
}

// NewAuditHandler returns an AuditHandler logging through l.
func NewAuditHandler(l *slog.Logger) *AuditHandler {
	if l == nil {
		l = slog.Default()
	}
	return &AuditHandler{logger: l.With("component", "settings_audit")}
}

// HandleEvent implements EventHandler.
func (h *AuditHandler) HandleEvent(ctx context.Context, event *SettingsChangedEvent) error {
	log := logger.FromContextOrDefault(ctx, h.logger)
	log.Info("settings changed",
		slog.String("event_id", event.ID.String()),
		slog.String("settings_level", event.Level.String()),
		slog.String("owner_id", event.OwnerID.String()),
		slog.Any("changed_keys", event.ChangedKeys),
		slog.Time("occurred_at", event.OccurredAt))
	return nil
}
