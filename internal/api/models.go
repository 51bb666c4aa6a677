package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/invoice-api/internal/settings"
)

// CreateTenantRequest defines the payload for POST /api/tenants.
type CreateTenantRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// CreateGroupRequest defines the payload for POST /api/tenants/{id}/groups.
type CreateGroupRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// CreateCustomerRequest defines the payload for POST /api/tenants/{id}/customers.
type CreateCustomerRequest struct {
	Name string `json:"name" validate:"required,max=255"`
	// GroupID optionally places the customer in a group of the same tenant.
	GroupID *string `json:"group_id,omitempty" validate:"omitempty,uuid"`
}

// SetValueRequest defines the payload for PUT /api/customers/{id}/settings/{key}.
type SetValueRequest struct {
	Value any `json:"value"`
}

// OwnerResponse describes a created tenant, group or customer.
type OwnerResponse struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  *uuid.UUID      `json:"tenant_id,omitempty"`
	GroupID   *uuid.UUID      `json:"group_id,omitempty"`
	Level     settings.Level  `json:"level"`
	Name      string          `json:"name"`
	Settings  settings.Object `json:"settings"`
	CreatedAt time.Time       `json:"created_at"`
}

// SettingsResponse wraps one settings object with the owner it belongs to.
type SettingsResponse struct {
	Level    settings.Level  `json:"level"`
	OwnerID  uuid.UUID       `json:"owner_id"`
	Settings settings.Object `json:"settings"`
}

// ValueResponse is the effective value of one key.
type ValueResponse struct {
	Key   string         `json:"key"`
	Value any            `json:"value"`
	Level settings.Level `json:"level"`
}

// LevelTrail reports whether one level qualifies for a key.
type LevelTrail struct {
	Level     settings.Level `json:"level"`
	Qualifies bool           `json:"qualifies"`
	Value     any            `json:"value,omitempty"`
}

// ExplainResponse lists the per-level trail for a key, customer first.
type ExplainResponse struct {
	Key   string       `json:"key"`
	Trail []LevelTrail `json:"trail"`
}

// SetValueResponse reports which level a write-back landed on.
type SetValueResponse struct {
	Key   string         `json:"key"`
	Level settings.Level `json:"level"`
}

// GatewaysResponse lists the customer's payment gateways in order. An empty
// list means every gateway is allowed.
type GatewaysResponse struct {
	GatewayIDs []string `json:"gateway_ids"`
}

func explainToResponse(key string, trail []settings.Resolution) ExplainResponse {
	out := ExplainResponse{Key: key, Trail: make([]LevelTrail, 0, len(trail))}
	for _, res := range trail {
		out.Trail = append(out.Trail, LevelTrail{
			Level:     res.Level,
			Qualifies: res.Found(),
			Value:     res.Value,
		})
	}
	return out
}
