package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/invoice-api/internal/domain"
	"github.com/phrazzld/invoice-api/internal/settings"
)

// DBTX is implemented by both *sql.DB and *sql.Tx, so stores work the same
// inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// OwnerStore persists tenants, groups and customers along with their
// settings objects. It is the settings.Persister used by the service layer.
type OwnerStore interface {
	settings.Persister

	// CreateTenant inserts a new tenant. Returns ErrInvalidEntity if the
	// tenant fails domain validation.
	CreateTenant(ctx context.Context, tenant *domain.Tenant) error

	// CreateGroup inserts a new group. Returns ErrTenantNotFound if the
	// tenant does not exist.
	CreateGroup(ctx context.Context, group *domain.Group) error

	// CreateCustomer inserts a new customer. Returns ErrTenantNotFound or
	// ErrGroupNotFound if a referenced row does not exist.
	CreateCustomer(ctx context.Context, customer *domain.Customer) error

	// GetTenant retrieves a tenant. Returns ErrTenantNotFound if missing.
	GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)

	// GetGroup retrieves a group. Returns ErrGroupNotFound if missing.
	GetGroup(ctx context.Context, id uuid.UUID) (*domain.Group, error)

	// GetCustomer retrieves a customer. Returns ErrCustomerNotFound if missing.
	GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error)

	// GetOwnerForUpdate retrieves the owner at level and locks its row until
	// the surrounding transaction ends. Only meaningful inside WithTx.
	GetOwnerForUpdate(ctx context.Context, level settings.Level, id uuid.UUID) (settings.Owner, error)

	// LoadCustomerContext reads a customer with its group and tenant in a
	// single query, giving one consistent snapshot of the cascade.
	// Returns ErrCustomerNotFound if the customer does not exist.
	LoadCustomerContext(ctx context.Context, customerID uuid.UUID) (*domain.CustomerContext, error)

	// WithTx returns a new OwnerStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) OwnerStore
}
