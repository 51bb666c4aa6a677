package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/invoice-api/internal/settings"
)

// Group is a set of customers inside a tenant sharing settings overrides.
type Group struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	Name      string          `json:"name"`
	Settings  settings.Object `json:"settings"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewGroup creates a group with an empty settings object.
func NewGroup(tenantID uuid.UUID, name string) (*Group, error) {
	now := time.Now().UTC()
	g := &Group{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      strings.TrimSpace(name),
		Settings:  settings.Object{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks if the Group has valid data.
func (g *Group) Validate() error {
	if g.ID == uuid.Nil {
		return fmt.Errorf("%w: group id", ErrInvalidID)
	}
	if g.TenantID == uuid.Nil {
		return fmt.Errorf("%w: group tenant id", ErrInvalidID)
	}
	if g.Name == "" {
		return fmt.Errorf("%w: group", ErrEmptyName)
	}
	return nil
}

// Level implements settings.Owner.
func (g *Group) Level() settings.Level { return settings.LevelGroup }

// OwnerID implements settings.Owner.
func (g *Group) OwnerID() uuid.UUID { return g.ID }

// CurrentSettings implements settings.Owner.
func (g *Group) CurrentSettings() settings.Object { return g.Settings }

// ReplaceSettings implements settings.Owner.
func (g *Group) ReplaceSettings(next settings.Object) {
	g.Settings = next
	g.UpdatedAt = time.Now().UTC()
}
