package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/invoice-api/internal/api/shared"
	"github.com/phrazzld/invoice-api/internal/domain"
	"github.com/phrazzld/invoice-api/internal/service"
	"github.com/phrazzld/invoice-api/internal/settings"
	"github.com/phrazzld/invoice-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing the error types themselves.
func MapErrorToStatusCode(err error) int {
	switch {
	// Corrupted data is checked first: a broken cascade can wrap a
	// validation or not-found error underneath.
	case errors.Is(err, settings.ErrSettingsCorrupted),
		errors.Is(err, store.ErrCorruptSettings):
		return http.StatusInternalServerError

	case errors.Is(err, settings.ErrValidationFailed),
		errors.Is(err, settings.ErrProtectedSetting),
		errors.Is(err, service.ErrGroupNotInTenant),
		errors.Is(err, domain.ErrTenantMismatch):
		return http.StatusUnprocessableEntity

	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, settings.ErrUnknownSetting),
		errors.Is(err, settings.ErrSettingsNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, shared.ErrEmptyBody),
		errors.Is(err, shared.ErrNotObject):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, settings.ErrSettingsCorrupted),
		errors.Is(err, store.ErrCorruptSettings):
		return "Stored settings are corrupted"

	case errors.Is(err, settings.ErrValidationFailed):
		return "Settings validation failed"
	case errors.Is(err, settings.ErrProtectedSetting):
		return "Setting is protected"
	case errors.Is(err, service.ErrGroupNotInTenant),
		errors.Is(err, domain.ErrTenantMismatch):
		return "Group does not belong to tenant"

	case errors.Is(err, store.ErrTenantNotFound):
		return "Tenant not found"
	case errors.Is(err, store.ErrGroupNotFound):
		return "Group not found"
	case errors.Is(err, store.ErrCustomerNotFound):
		return "Customer not found"
	case errors.Is(err, settings.ErrUnknownSetting):
		return "Unknown setting"
	case errors.Is(err, settings.ErrSettingsNotFound):
		return "Setting not defined at any level"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case errors.Is(err, shared.ErrNotObject):
		return "Settings payload must be a JSON object"
	case errors.Is(err, domain.ErrEmptyName):
		return "Name is required"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a validator error into a short message
// naming the field and the failed rule.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Format: "Key: 'CreateTenantRequest.Name' Error:Field validation for 'Name' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "uuid", "uuid4":
		return "invalid UUID format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// respondWithServiceError writes err as a sanitized response. Settings
// validation failures get the structured 422 body.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	if status == http.StatusUnprocessableEntity && errors.Is(err, settings.ErrValidationFailed) {
		shared.RespondWithValidationError(w, r, err)
		return
	}
	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
}
