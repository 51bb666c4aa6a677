package events

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/invoice-api/internal/settings"
)

// TypeSettingsChanged is the Type of every SettingsChangedEvent.
const TypeSettingsChanged = "settings.changed"

// SettingsChangedEvent records which keys a committed save changed on one
// owner's settings object.
type SettingsChangedEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	Type string `json:"type"`

	Level   settings.Level `json:"level"`
	OwnerID uuid.UUID      `json:"owner_id"`

	// ChangedKeys is sorted and never contains duplicates.
	ChangedKeys []string `json:"changed_keys"`

	OccurredAt time.Time `json:"occurred_at"`
}

// NewSettingsChangedEvent creates an event for the owner at level.
func NewSettingsChangedEvent(level settings.Level, ownerID uuid.UUID, changed []string) *SettingsChangedEvent {
	keys := make([]string, 0, len(changed))
	seen := make(map[string]struct{}, len(changed))
	for _, k := range changed {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return &SettingsChangedEvent{
		ID:          uuid.New(),
		Type:        TypeSettingsChanged,
		Level:       level,
		OwnerID:     ownerID,
		ChangedKeys: keys,
		OccurredAt:  time.Now().UTC(),
	}
}

// Touches reports whether key is among the changed keys.
func (e *SettingsChangedEvent) Touches(key string) bool {
	i := sort.SearchStrings(e.ChangedKeys, key)
	return i < len(e.ChangedKeys) && e.ChangedKeys[i] == key
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *SettingsChangedEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the event to all registered handlers.
	// It returns the first handler error, if any.
	EmitEvent(ctx context.Context, event *SettingsChangedEvent) error
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *SettingsChangedEvent) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *SettingsChangedEvent) error {
	return f(ctx, event)
}
