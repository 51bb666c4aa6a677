// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptyName is returned when an entity is created without a name.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrTenantMismatch is returned when related entities belong to
	// different tenants.
	ErrTenantMismatch = errors.New("entities belong to different tenants")

	// ErrIncompleteContext is returned when a customer context lacks its
	// tenant or customer.
	ErrIncompleteContext = errors.New("customer context is incomplete")
)
