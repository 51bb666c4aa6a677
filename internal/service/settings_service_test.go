package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/invoice-api/internal/domain"
	"github.com/phrazzld/invoice-api/internal/events"
	"github.com/phrazzld/invoice-api/internal/platform/logger"
	"github.com/phrazzld/invoice-api/internal/reference"
	"github.com/phrazzld/invoice-api/internal/settings"
	"github.com/phrazzld/invoice-api/internal/settings/schema"
	"github.com/phrazzld/invoice-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      SettingsService
	engine   *settings.Engine
	owners   *MockOwnerStore
	sql      sqlmock.Sqlmock
	recorder *recordingRecorder
	sink     *eventSink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	engine, err := settings.NewEngine(schema.MustBuiltin())
	require.NoError(t, err)
	catalog, err := reference.Builtin()
	require.NoError(t, err)

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log, _ := logger.NewBufferLogger()
	emitter := events.NewInMemoryEventEmitter(log)
	sink := &eventSink{}
	emitter.RegisterHandler(sink)
	rec := &recordingRecorder{}
	owners := &MockOwnerStore{}

	svc, err := NewSettingsService(engine, owners, db, catalog, log, WithRecorder(rec), WithEmitter(emitter))
	require.NoError(t, err)

	return &fixture{svc: svc, engine: engine, owners: owners, sql: sqlMock, recorder: rec, sink: sink}
}

// chain builds a tenant with full defaults plus a group and a customer in it.
func (f *fixture) chain(group, customer settings.Object) *domain.CustomerContext {
	tenant := &domain.Tenant{ID: uuid.New(), Name: "Acme", Settings: f.engine.Schema().Defaults()}
	g := &domain.Group{ID: uuid.New(), TenantID: tenant.ID, Name: "Wholesale", Settings: group}
	c := &domain.Customer{ID: uuid.New(), TenantID: tenant.ID, GroupID: &g.ID, Name: "Bakery", Settings: customer}
	return &domain.CustomerContext{Tenant: tenant, Group: g, Customer: c}
}

func TestNewSettingsService_NilDependencies(t *testing.T) {
	engine, err := settings.NewEngine(schema.MustBuiltin())
	require.NoError(t, err)
	catalog, err := reference.Builtin()
	require.NoError(t, err)
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	owners := &MockOwnerStore{}

	tests := []struct {
		name    string
		build   func() (SettingsService, error)
		wantErr bool
	}{
		{"all present", func() (SettingsService, error) {
			return NewSettingsService(engine, owners, db, catalog, nil)
		}, false},
		{"nil engine", func() (SettingsService, error) {
			return NewSettingsService(nil, owners, db, catalog, nil)
		}, true},
		{"nil store", func() (SettingsService, error) {
			return NewSettingsService(engine, nil, db, catalog, nil)
		}, true},
		{"nil db", func() (SettingsService, error) {
			return NewSettingsService(engine, owners, nil, catalog, nil)
		}, true},
		{"nil catalog", func() (SettingsService, error) {
			return NewSettingsService(engine, owners, db, nil, nil)
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := tt.build()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNilDependency)
				assert.Nil(t, svc)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestSettingsService_CreateTenant(t *testing.T) {
	f := newFixture(t)
	f.owners.On("CreateTenant", mock.Anything, mock.MatchedBy(func(tn *domain.Tenant) bool {
		return tn.Name == "Acme" && len(tn.Settings) == f.engine.Schema().Len()
	})).Return(nil)

	tenant, err := f.svc.CreateTenant(context.Background(), " Acme ")
	require.NoError(t, err)
	assert.Equal(t, "1", tenant.Settings["currency_id"])
	f.owners.AssertExpectations(t)
}

func TestSettingsService_CreateTenant_EmptyName(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateTenant(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrEmptyName)
	f.owners.AssertNotCalled(t, "CreateTenant", mock.Anything, mock.Anything)
}

func TestSettingsService_CreateGroup(t *testing.T) {
	f := newFixture(t)
	tenantID := uuid.New()
	f.owners.On("CreateGroup", mock.Anything, mock.AnythingOfType("*domain.Group")).Return(store.ErrTenantNotFound)

	_, err := f.svc.CreateGroup(context.Background(), tenantID, "Wholesale")
	assert.ErrorIs(t, err, store.ErrTenantNotFound)

	var svcErr *SettingsServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "create_group", svcErr.Operation)
}

func TestSettingsService_CreateCustomer(t *testing.T) {
	tenantID := uuid.New()

	t.Run("group in same tenant", func(t *testing.T) {
		f := newFixture(t)
		group := &domain.Group{ID: uuid.New(), TenantID: tenantID, Name: "Wholesale"}
		f.owners.On("GetGroup", mock.Anything, group.ID).Return(group, nil)
		f.owners.On("CreateCustomer", mock.Anything, mock.AnythingOfType("*domain.Customer")).Return(nil)

		c, err := f.svc.CreateCustomer(context.Background(), tenantID, &group.ID, "Bakery")
		require.NoError(t, err)
		assert.Equal(t, group.ID, *c.GroupID)
		assert.Empty(t, c.Settings)
	})

	t.Run("group in another tenant", func(t *testing.T) {
		f := newFixture(t)
		group := &domain.Group{ID: uuid.New(), TenantID: uuid.New(), Name: "Wholesale"}
		f.owners.On("GetGroup", mock.Anything, group.ID).Return(group, nil)

		_, err := f.svc.CreateCustomer(context.Background(), tenantID, &group.ID, "Bakery")
		assert.ErrorIs(t, err, ErrGroupNotInTenant)
		f.owners.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
	})

	t.Run("without group", func(t *testing.T) {
		f := newFixture(t)
		f.owners.On("CreateCustomer", mock.Anything, mock.AnythingOfType("*domain.Customer")).Return(nil)

		c, err := f.svc.CreateCustomer(context.Background(), tenantID, nil, "Bakery")
		require.NoError(t, err)
		assert.Nil(t, c.GroupID)
		f.owners.AssertNotCalled(t, "GetGroup", mock.Anything, mock.Anything)
	})
}

func TestSettingsService_GetSettings(t *testing.T) {
	f := newFixture(t)
	customer := &domain.Customer{ID: uuid.New(), Settings: settings.Object{"language_id": "2"}}
	f.owners.On("GetCustomer", mock.Anything, customer.ID).Return(customer, nil)
	missing := uuid.New()
	f.owners.On("GetGroup", mock.Anything, missing).Return(nil, store.ErrGroupNotFound)

	got, err := f.svc.GetSettings(context.Background(), settings.LevelCustomer, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, settings.Object{"language_id": "2"}, got)

	got["language_id"] = "9"
	assert.Equal(t, "2", customer.Settings["language_id"])

	_, err = f.svc.GetSettings(context.Background(), settings.LevelGroup, missing)
	assert.ErrorIs(t, err, store.ErrGroupNotFound)
	assert.True(t, store.IsNotFoundError(err))
}

func TestSettingsService_UpdateSettings(t *testing.T) {
	t.Run("validation failure touches nothing", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.UpdateSettings(context.Background(), settings.LevelTenant, uuid.New(),
			settings.Object{"payment_terms": "abc"})

		var verr *settings.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "payment_terms", verr.Key)
		assert.ErrorIs(t, err, settings.ErrValidationFailed)
		assert.NoError(t, f.sql.ExpectationsWereMet())
		assert.Empty(t, f.recorder.saves)
	})

	t.Run("saves in a transaction and emits changed keys", func(t *testing.T) {
		f := newFixture(t)
		tenant := &domain.Tenant{ID: uuid.New(), Name: "Acme", Settings: f.engine.Schema().Defaults()}

		f.sql.ExpectBegin()
		f.owners.On("GetOwnerForUpdate", mock.Anything, settings.LevelTenant, tenant.ID).Return(tenant, nil)
		f.owners.On("PersistSettings", mock.Anything, tenant).Return(nil)
		f.sql.ExpectCommit()

		saved, err := f.svc.UpdateSettings(context.Background(), settings.LevelTenant, tenant.ID,
			settings.Object{"currency_id": 4, "name": "Acme Ltd"})
		require.NoError(t, err)

		assert.Equal(t, "4", saved["currency_id"])
		assert.Equal(t, "Acme Ltd", tenant.Settings["name"])
		assert.NoError(t, f.sql.ExpectationsWereMet())
		assert.Equal(t, 1, f.owners.txCalls)

		require.Len(t, f.sink.events, 1)
		assert.Equal(t, []string{"currency_id", "name"}, f.sink.events[0].ChangedKeys)
		assert.Equal(t, tenant.ID, f.sink.events[0].OwnerID)
		assert.Equal(t, []settings.Level{settings.LevelTenant}, f.recorder.saves)
		assert.Nil(t, f.recorder.errors[0])
	})

	t.Run("unchanged save emits nothing", func(t *testing.T) {
		f := newFixture(t)
		tenant := &domain.Tenant{ID: uuid.New(), Name: "Acme", Settings: f.engine.Schema().Defaults()}

		f.sql.ExpectBegin()
		f.owners.On("GetOwnerForUpdate", mock.Anything, settings.LevelTenant, tenant.ID).Return(tenant, nil)
		f.owners.On("PersistSettings", mock.Anything, tenant).Return(nil)
		f.sql.ExpectCommit()

		_, err := f.svc.UpdateSettings(context.Background(), settings.LevelTenant, tenant.ID,
			settings.Object{"currency_id": "1"})
		require.NoError(t, err)
		assert.Empty(t, f.sink.events)
	})

	t.Run("persist failure rolls back", func(t *testing.T) {
		f := newFixture(t)
		customer := &domain.Customer{ID: uuid.New(), TenantID: uuid.New(), Name: "Bakery", Settings: settings.Object{}}
		boom := errors.New("connection reset")

		f.sql.ExpectBegin()
		f.owners.On("GetOwnerForUpdate", mock.Anything, settings.LevelCustomer, customer.ID).Return(customer, nil)
		f.owners.On("PersistSettings", mock.Anything, customer).Return(boom)
		f.sql.ExpectRollback()

		_, err := f.svc.UpdateSettings(context.Background(), settings.LevelCustomer, customer.ID,
			settings.Object{"language_id": "2"})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, settings.Object{}, customer.Settings)
		assert.NoError(t, f.sql.ExpectationsWereMet())
		assert.Empty(t, f.sink.events)
		require.Len(t, f.recorder.errors, 1)
		assert.Error(t, f.recorder.errors[0])
	})

	t.Run("missing owner", func(t *testing.T) {
		f := newFixture(t)
		id := uuid.New()

		f.sql.ExpectBegin()
		f.owners.On("GetOwnerForUpdate", mock.Anything, settings.LevelGroup, id).Return(nil, store.ErrGroupNotFound)
		f.sql.ExpectRollback()

		_, err := f.svc.UpdateSettings(context.Background(), settings.LevelGroup, id, settings.Object{"language_id": "2"})
		assert.ErrorIs(t, err, store.ErrGroupNotFound)
	})
}

func TestSettingsService_Resolve(t *testing.T) {
	t.Run("group value wins over tenant", func(t *testing.T) {
		f := newFixture(t)
		cc := f.chain(settings.Object{"language_id": "2"}, settings.Object{})
		f.owners.On("LoadCustomerContext", mock.Anything, cc.Customer.ID).Return(cc, nil)

		res, err := f.svc.Resolve(context.Background(), cc.Customer.ID, "language_id")
		require.NoError(t, err)
		assert.Equal(t, "2", res.Value)
		assert.Equal(t, settings.LevelGroup, res.Level)

		res, err = f.svc.Resolve(context.Background(), cc.Customer.ID, "date_format_id")
		require.NoError(t, err)
		assert.Equal(t, "1", res.Value)
		assert.Equal(t, settings.LevelTenant, res.Level)
		assert.Len(t, f.recorder.lookups, 2)
	})

	t.Run("unknown key", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Resolve(context.Background(), uuid.New(), "no_such_key")
		assert.ErrorIs(t, err, settings.ErrUnknownSetting)
		f.owners.AssertNotCalled(t, "LoadCustomerContext", mock.Anything, mock.Anything)
	})

	t.Run("missing tenant is corrupted", func(t *testing.T) {
		f := newFixture(t)
		cc := f.chain(nil, settings.Object{})
		cc.Tenant = nil
		f.owners.On("LoadCustomerContext", mock.Anything, cc.Customer.ID).Return(cc, nil)

		_, err := f.svc.Resolve(context.Background(), cc.Customer.ID, "language_id")
		assert.ErrorIs(t, err, settings.ErrSettingsCorrupted)
		assert.ErrorIs(t, err, domain.ErrIncompleteContext)
	})

	t.Run("key missing from the whole chain is corrupted", func(t *testing.T) {
		f := newFixture(t)
		cc := f.chain(nil, settings.Object{})
		delete(cc.Tenant.Settings, "language_id")
		f.owners.On("LoadCustomerContext", mock.Anything, cc.Customer.ID).Return(cc, nil)

		res, err := f.svc.Resolve(context.Background(), cc.Customer.ID, "language_id")
		assert.ErrorIs(t, err, settings.ErrSettingsCorrupted)
		assert.Equal(t, settings.StatusNotFound, res.Status)
	})

	t.Run("customer not found", func(t *testing.T) {
		f := newFixture(t)
		id := uuid.New()
		f.owners.On("LoadCustomerContext", mock.Anything, id).Return(nil, store.ErrCustomerNotFound)

		_, err := f.svc.Resolve(context.Background(), id, "language_id")
		assert.ErrorIs(t, err, store.ErrCustomerNotFound)
	})
}

func TestSettingsService_ExplainAndMerged(t *testing.T) {
	f := newFixture(t)
	cc := f.chain(settings.Object{"language_id": "2"}, settings.Object{"language_id": "", "currency_id": "3"})
	f.owners.On("LoadCustomerContext", mock.Anything, cc.Customer.ID).Return(cc, nil)

	trail, err := f.svc.Explain(context.Background(), cc.Customer.ID, "language_id")
	require.NoError(t, err)
	require.Len(t, trail, 3)
	assert.Equal(t, settings.LevelCustomer, trail[0].Level)
	assert.False(t, trail[0].Found())
	assert.True(t, trail[1].Found())
	assert.True(t, trail[2].Found())

	merged, err := f.svc.Merged(context.Background(), cc.Customer.ID)
	require.NoError(t, err)
	assert.Len(t, merged, f.engine.Schema().Len())
	assert.Equal(t, "2", merged["language_id"])
	assert.Equal(t, "3", merged["currency_id"])

	_, err = f.svc.Explain(context.Background(), cc.Customer.ID, "bogus")
	assert.ErrorIs(t, err, settings.ErrUnknownSetting)
}

func TestSettingsService_SaveAtDefiningLevel(t *testing.T) {
	t.Run("writes to the group that supplies the key", func(t *testing.T) {
		f := newFixture(t)
		cc := f.chain(settings.Object{"language_id": "2"}, settings.Object{})

		f.sql.ExpectBegin()
		f.owners.On("LoadCustomerContext", mock.Anything, cc.Customer.ID).Return(cc, nil)
		f.owners.On("GetOwnerForUpdate", mock.Anything, settings.LevelGroup, cc.Group.ID).Return(cc.Group, nil)
		f.owners.On("PersistSettings", mock.Anything, cc.Group).Return(nil)
		f.sql.ExpectCommit()

		level, err := f.svc.SaveAtDefiningLevel(context.Background(), cc.Customer.ID, "language_id", 3)
		require.NoError(t, err)
		assert.Equal(t, settings.LevelGroup, level)
		assert.Equal(t, "3", cc.Group.Settings["language_id"])
		assert.NoError(t, f.sql.ExpectationsWereMet())

		require.Len(t, f.sink.events, 1)
		assert.Equal(t, settings.LevelGroup, f.sink.events[0].Level)
		assert.True(t, f.sink.events[0].Touches("language_id"))
	})

	t.Run("unsupplied key goes to the tenant", func(t *testing.T) {
		f := newFixture(t)
		cc := f.chain(settings.Object{}, settings.Object{})
		delete(cc.Tenant.Settings, "invoice_footer")

		f.sql.ExpectBegin()
		f.owners.On("LoadCustomerContext", mock.Anything, cc.Customer.ID).Return(cc, nil)
		f.owners.On("GetOwnerForUpdate", mock.Anything, settings.LevelTenant, cc.Tenant.ID).Return(cc.Tenant, nil)
		f.owners.On("PersistSettings", mock.Anything, cc.Tenant).Return(nil)
		f.sql.ExpectCommit()

		level, err := f.svc.SaveAtDefiningLevel(context.Background(), cc.Customer.ID, "invoice_footer", "Thanks!")
		require.NoError(t, err)
		assert.Equal(t, settings.LevelTenant, level)
		assert.Equal(t, "Thanks!", cc.Tenant.Settings["invoice_footer"])
	})

	t.Run("invalid value is rejected before the transaction", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.SaveAtDefiningLevel(context.Background(), uuid.New(), "auto_bill", "maybe")
		assert.ErrorIs(t, err, settings.ErrValidationFailed)
		assert.NoError(t, f.sql.ExpectationsWereMet())
	})

	t.Run("unknown key", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.SaveAtDefiningLevel(context.Background(), uuid.New(), "bogus", "x")
		assert.ErrorIs(t, err, settings.ErrUnknownSetting)
	})

	t.Run("protected key is rejected before the transaction", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.SaveAtDefiningLevel(context.Background(), uuid.New(), "invoice_number_counter", 999)
		assert.ErrorIs(t, err, settings.ErrProtectedSetting)
		assert.NoError(t, f.sql.ExpectationsWereMet())
		f.owners.AssertNotCalled(t, "LoadCustomerContext", mock.Anything, mock.Anything)
		assert.Empty(t, f.sink.events)
	})
}
