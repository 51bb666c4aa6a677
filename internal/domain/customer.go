package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/invoice-api/internal/settings"
)

// Customer is a billed client of a tenant, optionally assigned to a group.
type Customer struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	GroupID   *uuid.UUID      `json:"group_id,omitempty"`
	Name      string          `json:"name"`
	Settings  settings.Object `json:"settings"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewCustomer creates a customer with an empty settings object. groupID may
// be nil.
func NewCustomer(tenantID uuid.UUID, groupID *uuid.UUID, name string) (*Customer, error) {
	now := time.Now().UTC()
	c := &Customer{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      strings.TrimSpace(name),
		Settings:  settings.Object{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if groupID != nil {
		id := *groupID
		c.GroupID = &id
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks if the Customer has valid data.
func (c *Customer) Validate() error {
	if c.ID == uuid.Nil {
		return fmt.Errorf("%w: customer id", ErrInvalidID)
	}
	if c.TenantID == uuid.Nil {
		return fmt.Errorf("%w: customer tenant id", ErrInvalidID)
	}
	if c.GroupID != nil && *c.GroupID == uuid.Nil {
		return fmt.Errorf("%w: customer group id", ErrInvalidID)
	}
	if c.Name == "" {
		return fmt.Errorf("%w: customer", ErrEmptyName)
	}
	return nil
}

// Level implements settings.Owner.
func (c *Customer) Level() settings.Level { return settings.LevelCustomer }

// OwnerID implements settings.Owner.
func (c *Customer) OwnerID() uuid.UUID { return c.ID }

// CurrentSettings implements settings.Owner.
func (c *Customer) CurrentSettings() settings.Object { return c.Settings }

// ReplaceSettings implements settings.Owner.
func (c *Customer) ReplaceSettings(next settings.Object) {
	c.Settings = next
	c.UpdatedAt = time.Now().UTC()
}
