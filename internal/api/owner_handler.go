package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phrazzld/invoice-api/internal/api/shared"
	"github.com/phrazzld/invoice-api/internal/domain"
	"github.com/phrazzld/invoice-api/internal/platform/logger"
	"github.com/phrazzld/invoice-api/internal/service"
	"github.com/phrazzld/invoice-api/internal/settings"
)

// OwnerHandler creates tenants, groups and customers.
type OwnerHandler struct {
	settingsService service.SettingsService
	validator       *validator.Validate
	logger          *slog.Logger
}

// NewOwnerHandler creates an OwnerHandler.
func NewOwnerHandler(settingsService service.SettingsService, log *slog.Logger) *OwnerHandler {
	if log == nil {
		log = slog.Default()
	}
	return &OwnerHandler{
		settingsService: settingsService,
		validator:       validator.New(),
		logger:          log.With(slog.String("component", "owner_handler")),
	}
}

// CreateTenant handles POST /api/tenants.
func (h *OwnerHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if !h.decode(w, r, &req) {
		return
	}

	tenant, err := h.settingsService.CreateTenant(r.Context(), req.Name)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("tenant created",
		slog.String("tenant_id", tenant.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, tenantToResponse(tenant))
}

// CreateGroup handles POST /api/tenants/{id}/groups.
func (h *OwnerHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}
	var req CreateGroupRequest
	if !h.decode(w, r, &req) {
		return
	}

	group, err := h.settingsService.CreateGroup(r.Context(), tenantID, req.Name)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, groupToResponse(group))
}

// CreateCustomer handles POST /api/tenants/{id}/customers.
func (h *OwnerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}
	var req CreateCustomerRequest
	if !h.decode(w, r, &req) {
		return
	}
	groupID, err := parseOptionalUUID(req.GroupID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	customer, err := h.settingsService.CreateCustomer(r.Context(), tenantID, groupID, req.Name)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, customerToResponse(customer))
}

// decode reads and validates a create request, writing a 400 response on
// failure.
func (h *OwnerHandler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := shared.DecodeJSON(r, req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return false
	}
	return true
}

func tenantToResponse(t *domain.Tenant) OwnerResponse {
	return OwnerResponse{
		ID:        t.ID,
		Level:     settings.LevelTenant,
		Name:      t.Name,
		Settings:  t.Settings,
		CreatedAt: t.CreatedAt,
	}
}

func groupToResponse(g *domain.Group) OwnerResponse {
	tenantID := g.TenantID
	return OwnerResponse{
		ID:        g.ID,
		TenantID:  &tenantID,
		Level:     settings.LevelGroup,
		Name:      g.Name,
		Settings:  g.Settings,
		CreatedAt: g.CreatedAt,
	}
}

func customerToResponse(c *domain.Customer) OwnerResponse {
	tenantID := c.TenantID
	var groupID *uuid.UUID
	if c.GroupID != nil {
		id := *c.GroupID
		groupID = &id
	}
	return OwnerResponse{
		ID:        c.ID,
		TenantID:  &tenantID,
		GroupID:   groupID,
		Level:     settings.LevelCustomer,
		Name:      c.Name,
		Settings:  c.Settings,
		CreatedAt: c.CreatedAt,
	}
}
