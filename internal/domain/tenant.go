package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/invoice-api/internal/settings"
)

// Tenant is a company account. Its settings object is the complete baseline
// every group and customer in the tenant falls back to.
type Tenant struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Settings  settings.Object `json:"settings"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewTenant creates a tenant whose settings start as a copy of defaults.
func NewTenant(name string, defaults settings.Object) (*Tenant, error) {
	now := time.Now().UTC()
	t := &Tenant{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Settings:  defaults.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if t.Settings == nil {
		t.Settings = settings.Object{}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks if the Tenant has valid data.
func (t *Tenant) Validate() error {
	if t.ID == uuid.Nil {
		return fmt.Errorf("%w: tenant id", ErrInvalidID)
	}
	if t.Name == "" {
		return fmt.Errorf("%w: tenant", ErrEmptyName)
	}
	return nil
}

// Level implements settings.Owner.
func (t *Tenant) Level() settings.Level { return settings.LevelTenant }

// OwnerID implements settings.Owner.
func (t *Tenant) OwnerID() uuid.UUID { return t.ID }

// CurrentSettings implements settings.Owner.
func (t *Tenant) CurrentSettings() settings.Object { return t.Settings }

// ReplaceSettings implements settings.Owner.
func (t *Tenant) ReplaceSettings(next settings.Object) {
	t.Settings = next
	t.UpdatedAt = time.Now().UTC()
}
