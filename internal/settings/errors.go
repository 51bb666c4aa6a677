package settings

import (
	"errors"
	"fmt"

	"github.com/phrazzld/invoice-api/internal/settings/schema"
)

var (
	// ErrSettingsCorrupted is returned when a cascade lookup finds no value at
	// any level. The tenant level is complete by construction, so this means
	// the stored data is broken rather than that a setting is missing.
	ErrSettingsCorrupted = errors.New("settings corrupted")

	// ErrSettingsNotFound is returned when no level defines a key. Callers
	// should not write back in that case.
	ErrSettingsNotFound = errors.New("could not find a settings object")

	// ErrValidationFailed is wrapped by every *ValidationError.
	ErrValidationFailed = errors.New("settings validation failed")

	// ErrUnknownSetting is returned by typed getters for keys the schema does
	// not declare.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrProtectedSetting is returned when a caller tries to write a key
	// that saves never change.
	ErrProtectedSetting = errors.New("setting is protected")

	// ErrTypeMismatch is returned by typed getters when the resolved value
	// does not have the requested type.
	ErrTypeMismatch = errors.New("setting has unexpected type")
)

// ValidationError reports the first payload key that failed its type check.
type ValidationError struct {
	Key      string
	Expected schema.TypeTag
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s must be of type %s", ErrValidationFailed, e.Key, e.Expected)
}

// Unwrap returns ErrValidationFailed.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
