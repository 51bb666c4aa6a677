package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/invoice-api/internal/settings"
)

// RegisterRoutes mounts the settings API on r. Paths are relative, so the
// caller decides the prefix.
func RegisterRoutes(r chi.Router, settingsHandler *SettingsHandler, ownerHandler *OwnerHandler) {
	r.Post("/tenants", ownerHandler.CreateTenant)
	r.Post("/tenants/{id}/groups", ownerHandler.CreateGroup)
	r.Post("/tenants/{id}/customers", ownerHandler.CreateCustomer)

	r.Get("/tenants/{id}/settings", settingsHandler.GetSettings(settings.LevelTenant))
	r.Put("/tenants/{id}/settings", settingsHandler.UpdateSettings(settings.LevelTenant))
	r.Get("/groups/{id}/settings", settingsHandler.GetSettings(settings.LevelGroup))
	r.Put("/groups/{id}/settings", settingsHandler.UpdateSettings(settings.LevelGroup))

	r.Route("/customers/{id}", func(r chi.Router) {
		r.Get("/settings", settingsHandler.GetSettings(settings.LevelCustomer))
		r.Put("/settings", settingsHandler.UpdateSettings(settings.LevelCustomer))
		r.Get("/settings/merged", settingsHandler.GetMerged)
		r.Get("/settings/{key}", settingsHandler.GetValue)
		r.Put("/settings/{key}", settingsHandler.SetValue)
		r.Get("/settings/{key}/explain", settingsHandler.ExplainValue)
		r.Get("/locale", settingsHandler.GetLocale)
		r.Get("/gateways", settingsHandler.GetGateways)
	})
}
