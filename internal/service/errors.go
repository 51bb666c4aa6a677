package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the settings service. Callers check them with
// errors.Is; the API layer maps them to HTTP status codes.
var (
	// ErrNilDependency is returned by the constructor when a required
	// collaborator is missing.
	ErrNilDependency = errors.New("required dependency is nil")

	// ErrGroupNotInTenant is returned when a customer is assigned to a group
	// that belongs to another tenant. API layer should map this to 422.
	ErrGroupNotInTenant = errors.New("group does not belong to tenant")
)

// SettingsServiceError wraps failures with the operation that produced them.
// The wrapped error stays reachable through errors.Is and errors.As, so store
// and engine sentinels pass through unchanged.
type SettingsServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for SettingsServiceError.
func (e *SettingsServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("settings service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("settings service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *SettingsServiceError) Unwrap() error {
	return e.Err
}

// NewSettingsServiceError creates a new SettingsServiceError.
func NewSettingsServiceError(operation, message string, err error) *SettingsServiceError {
	return &SettingsServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
