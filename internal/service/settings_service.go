package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/invoice-api/internal/domain"
	"github.com/phrazzld/invoice-api/internal/events"
	"github.com/phrazzld/invoice-api/internal/platform/logger"
	"github.com/phrazzld/invoice-api/internal/reference"
	"github.com/phrazzld/invoice-api/internal/settings"
	"github.com/phrazzld/invoice-api/internal/store"
)

// Recorder receives save and lookup outcomes. *metrics.Metrics implements it.
type Recorder interface {
	// ObserveSave records one settings save at level; err is nil on success.
	ObserveSave(level settings.Level, err error)

	// ObserveLookup records the outcome of one cascade lookup.
	ObserveLookup(res settings.Resolution)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSave(settings.Level, error)  {}
func (nopRecorder) ObserveLookup(settings.Resolution) {}

// SettingsService provides the settings operations exposed over HTTP.
type SettingsService interface {
	// CreateTenant creates a tenant whose settings hold every schema default.
	CreateTenant(ctx context.Context, name string) (*domain.Tenant, error)

	// CreateGroup creates an empty-settings group inside a tenant.
	CreateGroup(ctx context.Context, tenantID uuid.UUID, name string) (*domain.Group, error)

	// CreateCustomer creates an empty-settings customer, optionally in a group
	// of the same tenant.
	CreateCustomer(ctx context.Context, tenantID uuid.UUID, groupID *uuid.UUID, name string) (*domain.Customer, error)

	// GetSettings returns the stored settings object of one owner.
	GetSettings(ctx context.Context, level settings.Level, id uuid.UUID) (settings.Object, error)

	// UpdateSettings validates payload, then replaces the owner's settings
	// with the coerced payload inside a transaction.
	UpdateSettings(ctx context.Context, level settings.Level, id uuid.UUID, payload settings.Object) (settings.Object, error)

	// Resolve returns the effective value of key for a customer.
	Resolve(ctx context.Context, customerID uuid.UUID, key string) (settings.Resolution, error)

	// Explain returns the per-level trail for key, customer first.
	Explain(ctx context.Context, customerID uuid.UUID, key string) ([]settings.Resolution, error)

	// Merged returns the customer's fully merged settings object.
	Merged(ctx context.Context, customerID uuid.UUID) (settings.Object, error)

	// SaveAtDefiningLevel writes key to whichever level currently supplies
	// it for the customer and returns that level.
	SaveAtDefiningLevel(ctx context.Context, customerID uuid.UUID, key string, value any) (settings.Level, error)

	// Localization resolves the customer's currency, locale, date format and
	// timezone against the reference catalog.
	Localization(ctx context.Context, customerID uuid.UUID) (*Localization, error)

	// CurrencyCode returns the customer's ISO currency code.
	CurrencyCode(ctx context.Context, customerID uuid.UUID) (string, error)

	// Locale returns the customer's BCP 47 locale.
	Locale(ctx context.Context, customerID uuid.UUID) (string, error)

	// PaymentGatewayIDs returns the customer's ordered gateway list. An
	// empty result means every gateway is allowed.
	PaymentGatewayIDs(ctx context.Context, customerID uuid.UUID) ([]string, error)
}

// Option configures the settings service.
type Option func(*settingsServiceImpl)

// WithRecorder reports save and lookup outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(s *settingsServiceImpl) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithEmitter publishes settings-changed events through e after each
// committed save that changed something.
func WithEmitter(e events.EventEmitter) Option {
	return func(s *settingsServiceImpl) {
		if e != nil {
			s.emitter = e
		}
	}
}

type settingsServiceImpl struct {
	engine   *settings.Engine
	owners   store.OwnerStore
	db       store.TxBeginner // begins the transactions wrapping saves
	catalog  *reference.Catalog
	emitter  events.EventEmitter
	recorder Recorder
	logger   *slog.Logger
}

// NewSettingsService creates a SettingsService.
// It returns an error if any of the required dependencies are nil.
func NewSettingsService(
	engine *settings.Engine,
	owners store.OwnerStore,
	db store.TxBeginner,
	catalog *reference.Catalog,
	logger *slog.Logger,
	opts ...Option,
) (SettingsService, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: engine", ErrNilDependency)
	}
	if owners == nil {
		return nil, fmt.Errorf("%w: owner store", ErrNilDependency)
	}
	if db == nil {
		return nil, fmt.Errorf("%w: database", ErrNilDependency)
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: reference catalog", ErrNilDependency)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &settingsServiceImpl{
		engine:   engine,
		owners:   owners,
		db:       db,
		catalog:  catalog,
		emitter:  events.NewInMemoryEventEmitter(logger),
		recorder: nopRecorder{},
		logger:   logger.With(slog.String("component", "settings_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateTenant implements SettingsService.CreateTenant
func (s *settingsServiceImpl) CreateTenant(ctx context.Context, name string) (*domain.Tenant, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tenant, err := domain.NewTenant(name, s.engine.Schema().Defaults())
	if err != nil {
		return nil, NewSettingsServiceError("create_tenant", "invalid tenant", err)
	}
	if err := s.owners.CreateTenant(ctx, tenant); err != nil {
		log.Error("failed to create tenant", slog.String("error", err.Error()))
		return nil, NewSettingsServiceError("create_tenant", "failed to save tenant", err)
	}
	return tenant, nil
}

// CreateGroup implements SettingsService.CreateGroup
func (s *settingsServiceImpl) CreateGroup(ctx context.Context, tenantID uuid.UUID, name string) (*domain.Group, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	group, err := domain.NewGroup(tenantID, name)
	if err != nil {
		return nil, NewSettingsServiceError("create_group", "invalid group", err)
	}
	if err := s.owners.CreateGroup(ctx, group); err != nil {
		log.Error("failed to create group",
			slog.String("error", err.Error()),
			slog.String("tenant_id", tenantID.String()))
		return nil, NewSettingsServiceError("create_group", "failed to save group", err)
	}
	return group, nil
}

// CreateCustomer implements SettingsService.CreateCustomer
func (s *settingsServiceImpl) CreateCustomer(
	ctx context.Context,
	tenantID uuid.UUID,
	groupID *uuid.UUID,
	name string,
) (*domain.Customer, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	customer, err := domain.NewCustomer(tenantID, groupID, name)
	if err != nil {
		return nil, NewSettingsServiceError("create_customer", "invalid customer", err)
	}

	// A customer may only join a group of its own tenant
	if groupID != nil {
		group, err := s.owners.GetGroup(ctx, *groupID)
		if err != nil {
			return nil, NewSettingsServiceError("create_customer", "failed to load group", err)
		}
		if group.TenantID != tenantID {
			log.Warn("customer group belongs to another tenant",
				slog.String("tenant_id", tenantID.String()),
				slog.String("group_id", groupID.String()))
			return nil, NewSettingsServiceError("create_customer", "group check failed", ErrGroupNotInTenant)
		}
	}

	if err := s.owners.CreateCustomer(ctx, customer); err != nil {
		log.Error("failed to create customer",
			slog.String("error", err.Error()),
			slog.String("tenant_id", tenantID.String()))
		return nil, NewSettingsServiceError("create_customer", "failed to save customer", err)
	}
	return customer, nil
}

// GetSettings implements SettingsService.GetSettings
func (s *settingsServiceImpl) GetSettings(
	ctx context.Context,
	level settings.Level,
	id uuid.UUID,
) (settings.Object, error) {
	var (
		obj settings.Object
		err error
	)
	switch level {
	case settings.LevelTenant:
		var t *domain.Tenant
		if t, err = s.owners.GetTenant(ctx, id); err == nil {
			obj = t.Settings
		}
	case settings.LevelGroup:
		var g *domain.Group
		if g, err = s.owners.GetGroup(ctx, id); err == nil {
			obj = g.Settings
		}
	case settings.LevelCustomer:
		var c *domain.Customer
		if c, err = s.owners.GetCustomer(ctx, id); err == nil {
			obj = c.Settings
		}
	default:
		err = fmt.Errorf("%w: level %d", settings.ErrSettingsNotFound, int(level))
	}
	if err != nil {
		return nil, NewSettingsServiceError("get_settings", "failed to load owner", err)
	}
	if obj == nil {
		obj = settings.Object{}
	}
	return obj.Clone(), nil
}

// UpdateSettings implements SettingsService.UpdateSettings
func (s *settingsServiceImpl) UpdateSettings(
	ctx context.Context,
	level settings.Level,
	id uuid.UUID,
	payload settings.Object,
) (settings.Object, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("settings_level", level.String()),
		slog.String("owner_id", id.String()))

	// Reject badly typed payloads before touching the database
	if err := s.engine.Validate(payload); err != nil {
		log.Info("settings payload rejected", slog.String("error", err.Error()))
		return nil, NewSettingsServiceError("update_settings", "validation failed", err)
	}

	var (
		saved   settings.Object
		changed []string
	)
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txOwners := s.owners.WithTx(tx)

		// Lock the owner row so concurrent saves cannot lose updates
		owner, err := txOwners.GetOwnerForUpdate(ctx, level, id)
		if err != nil {
			return err
		}
		before := owner.CurrentSettings().Clone()

		saved, err = s.engine.Save(ctx, txOwners, owner, payload)
		if err != nil {
			return err
		}
		changed = settings.ChangedKeys(before, saved)
		return nil
	})
	s.recorder.ObserveSave(level, err)
	if err != nil {
		log.Error("failed to update settings", slog.String("error", err.Error()))
		return nil, NewSettingsServiceError("update_settings", "failed to save settings", err)
	}

	log.Info("settings updated", slog.Int("changed_keys", len(changed)))

	// Announce only after commit
	s.announce(ctx, level, id, changed)
	return saved, nil
}

// announce emits a settings-changed event. Handler failures are logged; the
// save has already committed.
func (s *settingsServiceImpl) announce(ctx context.Context, level settings.Level, id uuid.UUID, changed []string) {
	if len(changed) == 0 {
		return
	}
	event := events.NewSettingsChangedEvent(level, id, changed)
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("settings changed event not fully handled",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()))
	}
}

// loadCascade reads one consistent snapshot of the customer's chain.
func (s *settingsServiceImpl) loadCascade(
	ctx context.Context,
	operation string,
	customerID uuid.UUID,
) (*domain.CustomerContext, *settings.Cascade, error) {
	cc, err := s.owners.LoadCustomerContext(ctx, customerID)
	if err != nil {
		return nil, nil, NewSettingsServiceError(operation, "failed to load customer", err)
	}
	if err := cc.Validate(); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("inconsistent customer context",
			slog.String("error", err.Error()),
			slog.String("customer_id", customerID.String()))
		return nil, nil, NewSettingsServiceError(operation, "inconsistent customer context",
			fmt.Errorf("%w: %w", settings.ErrSettingsCorrupted, err))
	}
	return cc, cc.Cascade(s.engine), nil
}

// Resolve implements SettingsService.Resolve
func (s *settingsServiceImpl) Resolve(
	ctx context.Context,
	customerID uuid.UUID,
	key string,
) (settings.Resolution, error) {
	if !s.engine.Schema().Has(key) {
		return settings.Resolution{}, NewSettingsServiceError("resolve", "unknown key",
			fmt.Errorf("%w: %s", settings.ErrUnknownSetting, key))
	}

	_, cascade, err := s.loadCascade(ctx, "resolve", customerID)
	if err != nil {
		return settings.Resolution{}, err
	}

	res := cascade.Lookup(key)
	s.recorder.ObserveLookup(res)
	if !res.Found() {
		logger.FromContextOrDefault(ctx, s.logger).Error("settings chain has no value",
			slog.String("customer_id", customerID.String()),
			slog.String("key", key),
			slog.String("status", res.Status.String()))
		return res, NewSettingsServiceError("resolve", "no value in settings chain",
			fmt.Errorf("%w: %s (%s)", settings.ErrSettingsCorrupted, key, res.Status))
	}
	return res, nil
}

// Explain implements SettingsService.Explain
func (s *settingsServiceImpl) Explain(
	ctx context.Context,
	customerID uuid.UUID,
	key string,
) ([]settings.Resolution, error) {
	if !s.engine.Schema().Has(key) {
		return nil, NewSettingsServiceError("explain", "unknown key",
			fmt.Errorf("%w: %s", settings.ErrUnknownSetting, key))
	}
	_, cascade, err := s.loadCascade(ctx, "explain", customerID)
	if err != nil {
		return nil, err
	}
	return cascade.Explain(key), nil
}

// Merged implements SettingsService.Merged
func (s *settingsServiceImpl) Merged(ctx context.Context, customerID uuid.UUID) (settings.Object, error) {
	_, cascade, err := s.loadCascade(ctx, "merged", customerID)
	if err != nil {
		return nil, err
	}
	return cascade.Merged(), nil
}

// SaveAtDefiningLevel implements SettingsService.SaveAtDefiningLevel
//
// The level is chosen from a snapshot taken inside the transaction. A key no
// level supplies is written to the tenant, which holds the baseline.
func (s *settingsServiceImpl) SaveAtDefiningLevel(
	ctx context.Context,
	customerID uuid.UUID,
	key string,
	value any,
) (settings.Level, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !s.engine.Schema().Has(key) {
		return 0, NewSettingsServiceError("save_at_defining_level", "unknown key",
			fmt.Errorf("%w: %s", settings.ErrUnknownSetting, key))
	}
	// Saves keep protected values, so a write would silently do nothing.
	if s.engine.Schema().IsProtected(key) {
		log.Info("protected setting write rejected", slog.String("key", key))
		return 0, NewSettingsServiceError("save_at_defining_level", "protected key",
			fmt.Errorf("%w: %s", settings.ErrProtectedSetting, key))
	}
	if err := s.engine.Validate(settings.Object{key: value}); err != nil {
		return 0, NewSettingsServiceError("save_at_defining_level", "validation failed", err)
	}

	var (
		level   settings.Level
		ownerID uuid.UUID
		changed []string
	)
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txOwners := s.owners.WithTx(tx)

		cc, err := txOwners.LoadCustomerContext(ctx, customerID)
		if err != nil {
			return err
		}
		if err := cc.Validate(); err != nil {
			return fmt.Errorf("%w: %w", settings.ErrSettingsCorrupted, err)
		}

		// Find the level currently supplying the key
		level, err = cc.Cascade(s.engine).Entity(key)
		if errors.Is(err, settings.ErrSettingsNotFound) {
			level = settings.LevelTenant
		} else if err != nil {
			return err
		}

		snapshot, err := cc.Owner(level)
		if err != nil {
			return err
		}
		ownerID = snapshot.OwnerID()

		owner, err := txOwners.GetOwnerForUpdate(ctx, level, ownerID)
		if err != nil {
			return err
		}
		before := owner.CurrentSettings().Clone()

		// Resend the owner's current object with the one key replaced
		payload := before.Clone()
		if payload == nil {
			payload = settings.Object{}
		}
		payload[key] = value
		saved, err := s.engine.Save(ctx, txOwners, owner, payload)
		if err != nil {
			return err
		}
		changed = settings.ChangedKeys(before, saved)
		return nil
	})
	s.recorder.ObserveSave(level, err)
	if err != nil {
		log.Error("failed to save setting at defining level",
			slog.String("error", err.Error()),
			slog.String("customer_id", customerID.String()),
			slog.String("key", key))
		return 0, NewSettingsServiceError("save_at_defining_level", "failed to save setting", err)
	}

	log.Info("setting saved at defining level",
		slog.String("customer_id", customerID.String()),
		slog.String("key", key),
		slog.String("settings_level", level.String()))
	s.announce(ctx, level, ownerID, changed)
	return level, nil
}
