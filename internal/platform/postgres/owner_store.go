package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/invoice-api/internal/domain"
	"github.com/phrazzld/invoice-api/internal/platform/logger"
	"github.com/phrazzld/invoice-api/internal/settings"
	"github.com/phrazzld/invoice-api/internal/store"
)

// Table names per settings level.
const (
	tenantsTable   = "tenants"
	groupsTable    = "customer_groups"
	customersTable = "customers"
)

// groupForeignKey is the constraint linking customers to their group.
const groupForeignKey = "customers_group_id_fkey"

// PostgresOwnerStore implements the store.OwnerStore interface
// using a PostgreSQL database as the storage backend.
type PostgresOwnerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresOwnerStore creates a new PostgreSQL implementation of the OwnerStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresOwnerStore(db store.DBTX, logger *slog.Logger) *PostgresOwnerStore {
	if db == nil {
		// ALLOW-PANIC: constructor misuse is a programming error
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresOwnerStore{
		db:     db,
		logger: logger.With(slog.String("component", "owner_store")),
	}
}

// Ensure PostgresOwnerStore implements store.OwnerStore interface
var _ store.OwnerStore = (*PostgresOwnerStore)(nil)

// WithTx implements store.OwnerStore.WithTx
func (s *PostgresOwnerStore) WithTx(tx *sql.Tx) store.OwnerStore {
	return &PostgresOwnerStore{db: tx, logger: s.logger}
}

// CreateTenant implements store.OwnerStore.CreateTenant
func (s *PostgresOwnerStore) CreateTenant(ctx context.Context, tenant *domain.Tenant) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := tenant.Validate(); err != nil {
		log.Warn("tenant validation failed during create", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	data, err := encodeSettings(tenant.Settings)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tenants (id, name, settings, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, query,
		tenant.ID, tenant.Name, string(data), tenant.CreatedAt, tenant.UpdatedAt); err != nil {
		log.Error("failed to create tenant",
			slog.String("error", err.Error()),
			slog.String("tenant_id", tenant.ID.String()))
		return store.NewStoreError("tenant", "create", "insert failed", MapError(err))
	}

	log.Info("tenant created", slog.String("tenant_id", tenant.ID.String()))
	return nil
}

// CreateGroup implements store.OwnerStore.CreateGroup
func (s *PostgresOwnerStore) CreateGroup(ctx context.Context, group *domain.Group) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := group.Validate(); err != nil {
		log.Warn("group validation failed during create", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	data, err := encodeSettings(group.Settings)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO customer_groups (id, tenant_id, name, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6)
	`
	if _, err := s.db.ExecContext(ctx, query,
		group.ID, group.TenantID, group.Name, string(data), group.CreatedAt, group.UpdatedAt); err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("group references missing tenant", slog.String("tenant_id", group.TenantID.String()))
			return store.ErrTenantNotFound
		}
		log.Error("failed to create group",
			slog.String("error", err.Error()),
			slog.String("group_id", group.ID.String()))
		return store.NewStoreError("group", "create", "insert failed", MapError(err))
	}

	log.Info("group created",
		slog.String("group_id", group.ID.String()),
		slog.String("tenant_id", group.TenantID.String()))
	return nil
}

// CreateCustomer implements store.OwnerStore.CreateCustomer
func (s *PostgresOwnerStore) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := customer.Validate(); err != nil {
		log.Warn("customer validation failed during create", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	data, err := encodeSettings(customer.Settings)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO customers (id, tenant_id, group_id, name, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
	`
	if _, err := s.db.ExecContext(ctx, query,
		customer.ID, customer.TenantID, nullUUID(customer.GroupID), customer.Name, string(data),
		customer.CreatedAt, customer.UpdatedAt); err != nil {
		if IsForeignKeyViolation(err) {
			if constraintName(err) == groupForeignKey {
				return store.ErrGroupNotFound
			}
			return store.ErrTenantNotFound
		}
		log.Error("failed to create customer",
			slog.String("error", err.Error()),
			slog.String("customer_id", customer.ID.String()))
		return store.NewStoreError("customer", "create", "insert failed", MapError(err))
	}

	log.Info("customer created",
		slog.String("customer_id", customer.ID.String()),
		slog.String("tenant_id", customer.TenantID.String()))
	return nil
}

// GetTenant implements store.OwnerStore.GetTenant
func (s *PostgresOwnerStore) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return s.getTenant(ctx, id, false)
}

// GetGroup implements store.OwnerStore.GetGroup
func (s *PostgresOwnerStore) GetGroup(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	return s.getGroup(ctx, id, false)
}

// GetCustomer implements store.OwnerStore.GetCustomer
func (s *PostgresOwnerStore) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	return s.getCustomer(ctx, id, false)
}

// GetOwnerForUpdate implements store.OwnerStore.GetOwnerForUpdate
func (s *PostgresOwnerStore) GetOwnerForUpdate(
	ctx context.Context,
	level settings.Level,
	id uuid.UUID,
) (settings.Owner, error) {
	switch level {
	case settings.LevelTenant:
		return s.getTenant(ctx, id, true)
	case settings.LevelGroup:
		return s.getGroup(ctx, id, true)
	case settings.LevelCustomer:
		return s.getCustomer(ctx, id, true)
	}
	return nil, fmt.Errorf("%w: unknown settings level %d", store.ErrInvalidEntity, int(level))
}

func lockClause(forUpdate bool) string {
	if forUpdate {
		return " FOR UPDATE"
	}
	return ""
}

func (s *PostgresOwnerStore) getTenant(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.Tenant, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, settings, created_at, updated_at
		FROM tenants
		WHERE id = $1` + lockClause(forUpdate)

	var t domain.Tenant
	var raw []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &raw, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, s.lookupError(log, err, "tenant", id, store.ErrTenantNotFound)
	}
	if t.Settings, err = decodeSettings(raw); err != nil {
		log.Error("tenant settings are corrupt", slog.String("tenant_id", id.String()))
		return nil, store.NewStoreError("tenant", "get", "decode settings", err)
	}
	return &t, nil
}

func (s *PostgresOwnerStore) getGroup(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.Group, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, tenant_id, name, settings, created_at, updated_at
		FROM customer_groups
		WHERE id = $1` + lockClause(forUpdate)

	var g domain.Group
	var raw []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&g.ID, &g.TenantID, &g.Name, &raw, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, s.lookupError(log, err, "group", id, store.ErrGroupNotFound)
	}
	if g.Settings, err = decodeSettings(raw); err != nil {
		log.Error("group settings are corrupt", slog.String("group_id", id.String()))
		return nil, store.NewStoreError("group", "get", "decode settings", err)
	}
	return &g, nil
}

func (s *PostgresOwnerStore) getCustomer(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.Customer, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, tenant_id, group_id, name, settings, created_at, updated_at
		FROM customers
		WHERE id = $1` + lockClause(forUpdate)

	var c domain.Customer
	var groupID uuid.NullUUID
	var raw []byte
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.TenantID, &groupID, &c.Name, &raw, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, s.lookupError(log, err, "customer", id, store.ErrCustomerNotFound)
	}
	c.GroupID = fromNullUUID(groupID)
	if c.Settings, err = decodeSettings(raw); err != nil {
		log.Error("customer settings are corrupt", slog.String("customer_id", id.String()))
		return nil, store.NewStoreError("customer", "get", "decode settings", err)
	}
	return &c, nil
}

// LoadCustomerContext implements store.OwnerStore.LoadCustomerContext
func (s *PostgresOwnerStore) LoadCustomerContext(
	ctx context.Context,
	customerID uuid.UUID,
) (*domain.CustomerContext, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT c.id, c.tenant_id, c.group_id, c.name, c.settings, c.created_at, c.updated_at,
		       t.id, t.name, t.settings, t.created_at, t.updated_at,
		       g.id, g.name, g.settings, g.created_at, g.updated_at
		FROM customers c
		JOIN tenants t ON t.id = c.tenant_id
		LEFT JOIN customer_groups g ON g.id = c.group_id
		WHERE c.id = $1
	`

	var (
		c                            domain.Customer
		t                            domain.Tenant
		customerGroupID, groupID     uuid.NullUUID
		groupName                    sql.NullString
		groupCreated, groupUpdated   sql.NullTime
		customerRaw, tenantRaw, gRaw []byte
	)
	err := s.db.QueryRowContext(ctx, query, customerID).Scan(
		&c.ID, &c.TenantID, &customerGroupID, &c.Name, &customerRaw, &c.CreatedAt, &c.UpdatedAt,
		&t.ID, &t.Name, &tenantRaw, &t.CreatedAt, &t.UpdatedAt,
		&groupID, &groupName, &gRaw, &groupCreated, &groupUpdated,
	)
	if err != nil {
		return nil, s.lookupError(log, err, "customer", customerID, store.ErrCustomerNotFound)
	}

	c.GroupID = fromNullUUID(customerGroupID)
	if c.Settings, err = decodeSettings(customerRaw); err != nil {
		return nil, store.NewStoreError("customer", "load_context", "decode customer settings", err)
	}
	if t.Settings, err = decodeSettings(tenantRaw); err != nil {
		return nil, store.NewStoreError("tenant", "load_context", "decode tenant settings", err)
	}

	cc := &domain.CustomerContext{Tenant: &t, Customer: &c}
	if groupID.Valid {
		g := &domain.Group{
			ID:        groupID.UUID,
			TenantID:  t.ID,
			Name:      groupName.String,
			CreatedAt: groupCreated.Time,
			UpdatedAt: groupUpdated.Time,
		}
		if g.Settings, err = decodeSettings(gRaw); err != nil {
			return nil, store.NewStoreError("group", "load_context", "decode group settings", err)
		}
		cc.Group = g
	}

	log.Debug("customer context loaded",
		slog.String("customer_id", customerID.String()),
		slog.Bool("has_group", cc.Group != nil))
	return cc, nil
}

// PersistSettings implements settings.Persister by writing the owner's
// current settings object to its row.
func (s *PostgresOwnerStore) PersistSettings(ctx context.Context, owner settings.Owner) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	table, notFound, err := ownerTable(owner.Level())
	if err != nil {
		return err
	}
	data, err := encodeSettings(owner.CurrentSettings())
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET settings = $1::jsonb, updated_at = $2
		WHERE id = $3
	`, table)
	result, err := s.db.ExecContext(ctx, query, string(data), time.Now().UTC(), owner.OwnerID())
	if err != nil {
		log.Error("failed to persist settings",
			slog.String("error", err.Error()),
			slog.String("settings_level", owner.Level().String()),
			slog.String("owner_id", owner.OwnerID().String()))
		return store.NewStoreError(owner.Level().String(), "update_settings", "update failed", MapError(err))
	}
	if err := CheckRowsAffected(result, notFound); err != nil {
		return err
	}

	log.Debug("settings persisted",
		slog.String("settings_level", owner.Level().String()),
		slog.String("owner_id", owner.OwnerID().String()),
		slog.Int("bytes", len(data)))
	return nil
}

func ownerTable(level settings.Level) (string, error, error) {
	switch level {
	case settings.LevelTenant:
		return tenantsTable, store.ErrTenantNotFound, nil
	case settings.LevelGroup:
		return groupsTable, store.ErrGroupNotFound, nil
	case settings.LevelCustomer:
		return customersTable, store.ErrCustomerNotFound, nil
	}
	return "", nil, fmt.Errorf("%w: unknown settings level %d", store.ErrInvalidEntity, int(level))
}

func (s *PostgresOwnerStore) lookupError(log *slog.Logger, err error, entity string, id uuid.UUID, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug(entity+" not found", slog.String(entity+"_id", id.String()))
		return notFound
	}
	log.Error("failed to get "+entity,
		slog.String("error", err.Error()),
		slog.String(entity+"_id", id.String()))
	return store.NewStoreError(entity, "get", "query failed", MapError(err))
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func fromNullUUID(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	v := id.UUID
	return &v
}
