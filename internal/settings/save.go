package settings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/invoice-api/internal/settings/schema"
)

// Owner is an entity at one cascade level that carries a settings object.
type Owner interface {
	Level() Level
	OwnerID() uuid.UUID
	CurrentSettings() Object
	ReplaceSettings(Object)
}

// Persister writes an owner's current settings object to storage.
type Persister interface {
	PersistSettings(ctx context.Context, owner Owner) error
}

// PersisterFunc adapts a function to the Persister interface.
type PersisterFunc func(ctx context.Context, owner Owner) error

// PersistSettings calls f(ctx, owner).
func (f PersisterFunc) PersistSettings(ctx context.Context, owner Owner) error {
	return f(ctx, owner)
}

// Save replaces the owner's settings with the coerced payload layered over
// the schema defaults, persists the owner and returns the stored object.
//
// An empty payload is a no-op that returns the current settings without
// touching storage. Protected keys are stripped from the payload and carried
// over from the owner's current object. The payload is not validated here;
// callers run Validate first when they want invalid input rejected rather
// than dropped. If persisting fails the owner's previous object is restored.
func (e *Engine) Save(ctx context.Context, p Persister, owner Owner, payload Object) (Object, error) {
	current := owner.CurrentSettings()
	if len(payload) == 0 {
		return current.Clone(), nil
	}

	inbound := make(Object, len(payload))
	for key, value := range payload {
		if e.schema.IsProtected(key) {
			continue
		}
		inbound[key] = value
	}

	result := Object(e.schema.Defaults())
	for key, value := range e.Coerce(inbound) {
		result[key] = value
	}
	for _, key := range e.schema.ProtectedKeys() {
		if value, ok := current[key]; ok && value != nil {
			result[key] = schema.CloneValue(value)
		}
	}

	owner.ReplaceSettings(result)
	if err := p.PersistSettings(ctx, owner); err != nil {
		owner.ReplaceSettings(current)
		return nil, fmt.Errorf("persist %s %s settings: %w", owner.Level(), owner.OwnerID(), err)
	}

	return result.Clone(), nil
}
