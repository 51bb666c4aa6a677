package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/invoice-api/internal/api/shared"
	"github.com/phrazzld/invoice-api/internal/platform/logger"
	"github.com/phrazzld/invoice-api/internal/service"
	"github.com/phrazzld/invoice-api/internal/settings"
)

// SettingsHandler serves settings reads and writes for every level of the
// cascade.
type SettingsHandler struct {
	settingsService service.SettingsService
	logger          *slog.Logger
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(settingsService service.SettingsService, log *slog.Logger) *SettingsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          log.With(slog.String("component", "settings_handler")),
	}
}

// GetSettings returns a handler for GET /api/{level}s/{id}/settings.
func (h *SettingsHandler) GetSettings(level settings.Level) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := handlePathUUID(w, r, "id")
		if !ok {
			return
		}

		obj, err := h.settingsService.GetSettings(r.Context(), level, id)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}

		shared.RespondWithJSON(w, r, http.StatusOK, SettingsResponse{
			Level:    level,
			OwnerID:  id,
			Settings: obj,
		})
	}
}

// UpdateSettings returns a handler for PUT /api/{level}s/{id}/settings. The
// body replaces the owner's settings object after validation and coercion.
func (h *SettingsHandler) UpdateSettings(level settings.Level) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := handlePathUUID(w, r, "id")
		if !ok {
			return
		}

		payload, err := shared.DecodeSettings(r)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}

		saved, err := h.settingsService.UpdateSettings(r.Context(), level, id, payload)
		if err != nil {
			respondWithServiceError(w, r, err)
			return
		}

		logger.FromContextOrDefault(r.Context(), h.logger).Debug("settings replaced",
			slog.String("settings_level", level.String()),
			slog.String("owner_id", id.String()),
			slog.Int("keys", len(saved)))

		shared.RespondWithJSON(w, r, http.StatusOK, SettingsResponse{
			Level:    level,
			OwnerID:  id,
			Settings: saved,
		})
	}
}

// GetMerged handles GET /api/customers/{id}/settings/merged.
func (h *SettingsHandler) GetMerged(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	merged, err := h.settingsService.Merged(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SettingsResponse{
		Level:    settings.LevelCustomer,
		OwnerID:  id,
		Settings: merged,
	})
}

// GetValue handles GET /api/customers/{id}/settings/{key}.
func (h *SettingsHandler) GetValue(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")

	res, err := h.settingsService.Resolve(r.Context(), id, key)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ValueResponse{
		Key:   res.Key,
		Value: res.Value,
		Level: res.Level,
	})
}

// ExplainValue handles GET /api/customers/{id}/settings/{key}/explain.
func (h *SettingsHandler) ExplainValue(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")

	trail, err := h.settingsService.Explain(r.Context(), id, key)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, explainToResponse(key, trail))
}

// SetValue handles PUT /api/customers/{id}/settings/{key}. The value is
// written to whichever level currently supplies the key.
func (h *SettingsHandler) SetValue(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")

	var req SetValueRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		if errors.Is(err, shared.ErrEmptyBody) {
			respondWithServiceError(w, r, err)
			return
		}
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	level, err := h.settingsService.SaveAtDefiningLevel(r.Context(), id, key, req.Value)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SetValueResponse{Key: key, Level: level})
}

// GetLocale handles GET /api/customers/{id}/locale.
func (h *SettingsHandler) GetLocale(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	loc, err := h.settingsService.Localization(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, loc)
}

// GetGateways handles GET /api/customers/{id}/gateways.
func (h *SettingsHandler) GetGateways(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	ids, err := h.settingsService.PaymentGatewayIDs(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, GatewaysResponse{GatewayIDs: ids})
}
