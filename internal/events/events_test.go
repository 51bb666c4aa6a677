package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/invoice-api/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSettingsChangedEvent(t *testing.T) {
	ownerID := uuid.New()

	event := NewSettingsChangedEvent(settings.LevelGroup, ownerID,
		[]string{"currency_id", "auto_bill", "currency_id"})

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeSettingsChanged, event.Type)
	assert.Equal(t, settings.LevelGroup, event.Level)
	assert.Equal(t, ownerID, event.OwnerID)
	assert.Equal(t, []string{"auto_bill", "currency_id"}, event.ChangedKeys)
	assert.WithinDuration(t, time.Now(), event.OccurredAt, 2*time.Second)

	assert.True(t, event.Touches("auto_bill"))
	assert.False(t, event.Touches("language_id"))
}

func TestSettingsChangedEvent_JSON(t *testing.T) {
	event := NewSettingsChangedEvent(settings.LevelCustomer, uuid.New(), []string{"payment_terms"})

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "customer", decoded["level"])
	assert.Equal(t, []any{"payment_terms"}, decoded["changed_keys"])
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	// The last event received by this handler
	LastEvent *SettingsChangedEvent
	// Error to return from HandleEvent
	HandlerError error
	// Count of events handled
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *SettingsChangedEvent) error {
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func TestHandlerFunc(t *testing.T) {
	var got *SettingsChangedEvent
	h := HandlerFunc(func(_ context.Context, e *SettingsChangedEvent) error {
		got = e
		return errors.New("handler error")
	})

	event := NewSettingsChangedEvent(settings.LevelTenant, uuid.New(), nil)
	err := h.HandleEvent(context.Background(), event)
	assert.EqualError(t, err, "handler error")
	assert.Same(t, event, got)
	assert.Empty(t, event.ChangedKeys)
}
