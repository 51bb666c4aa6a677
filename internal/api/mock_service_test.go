package api

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/phrazzld/invoice-api/internal/domain"
	"github.com/phrazzld/invoice-api/internal/service"
	"github.com/phrazzld/invoice-api/internal/settings"
)

var errNotStubbed = errors.New("mock: not stubbed")

// MockSettingsService is a mock implementation of service.SettingsService.
// Unset function fields return errNotStubbed.
type MockSettingsService struct {
	CreateTenantFn        func(ctx context.Context, name string) (*domain.Tenant, error)
	CreateGroupFn         func(ctx context.Context, tenantID uuid.UUID, name string) (*domain.Group, error)
	CreateCustomerFn      func(ctx context.Context, tenantID uuid.UUID, groupID *uuid.UUID, name string) (*domain.Customer, error)
	GetSettingsFn         func(ctx context.Context, level settings.Level, id uuid.UUID) (settings.Object, error)
	UpdateSettingsFn      func(ctx context.Context, level settings.Level, id uuid.UUID, payload settings.Object) (settings.Object, error)
	ResolveFn             func(ctx context.Context, customerID uuid.UUID, key string) (settings.Resolution, error)
	ExplainFn             func(ctx context.Context, customerID uuid.UUID, key string) ([]settings.Resolution, error)
	MergedFn              func(ctx context.Context, customerID uuid.UUID) (settings.Object, error)
	SaveAtDefiningLevelFn func(ctx context.Context, customerID uuid.UUID, key string, value any) (settings.Level, error)
	LocalizationFn        func(ctx context.Context, customerID uuid.UUID) (*service.Localization, error)
	PaymentGatewayIDsFn   func(ctx context.Context, customerID uuid.UUID) ([]string, error)
}

var _ service.SettingsService = (*MockSettingsService)(nil)

func (m *MockSettingsService) CreateTenant(ctx context.Context, name string) (*domain.Tenant, error) {
	if m.CreateTenantFn != nil {
		return m.CreateTenantFn(ctx, name)
	}
	return nil, errNotStubbed
}

func (m *MockSettingsService) CreateGroup(ctx context.Context, tenantID uuid.UUID, name string) (*domain.Group, error) {
	if m.CreateGroupFn != nil {
		return m.CreateGroupFn(ctx, tenantID, name)
	}
	return nil, errNotStubbed
}

func (m *MockSettingsService) CreateCustomer(
	ctx context.Context,
	tenantID uuid.UUID,
	groupID *uuid.UUID,
	name string,
) (*domain.Customer, error) {
	if m.CreateCustomerFn != nil {
		return m.CreateCustomerFn(ctx, tenantID, groupID, name)
	}
	return nil, errNotStubbed
}

func (m *MockSettingsService) GetSettings(
	ctx context.Context,
	level settings.Level,
	id uuid.UUID,
) (settings.Object, error) {
	if m.GetSettingsFn != nil {
		return m.GetSettingsFn(ctx, level, id)
	}
	return nil, errNotStubbed
}

func (m *MockSettingsService) UpdateSettings(
	ctx context.Context,
	level settings.Level,
	id uuid.UUID,
	payload settings.Object,
) (settings.Object, error) {
	if m.UpdateSettingsFn != nil {
		return m.UpdateSettingsFn(ctx, level, id, payload)
	}
	return nil, errNotStubbed
}

func (m *MockSettingsService) Resolve(
	ctx context.Context,
	customerID uuid.UUID,
	key string,
) (settings.Resolution, error) {
	if m.ResolveFn != nil {
		return m.ResolveFn(ctx, customerID, key)
	}
	return settings.Resolution{}, errNotStubbed
}

func (m *MockSettingsService) Explain(
	ctx context.Context,
	customerID uuid.UUID,
	key string,
) ([]settings.Resolution, error) {
	if m.ExplainFn != nil {
		return m.ExplainFn(ctx, customerID, key)
	}
	return nil, errNotStubbed
}

func (m *MockSettingsService) Merged(ctx context.Context, customerID uuid.UUID) (settings.Object, error) {
	if m.MergedFn != nil {
		return m.MergedFn(ctx, customerID)
	}
	return nil, errNotStubbed
}

func (m *MockSettingsService) SaveAtDefiningLevel(
	ctx context.Context,
	customerID uuid.UUID,
	key string,
	value any,
) (settings.Level, error) {
	if m.SaveAtDefiningLevelFn != nil {
		return m.SaveAtDefiningLevelFn(ctx, customerID, key, value)
	}
	return 0, errNotStubbed
}

func (m *MockSettingsService) Localization(ctx context.Context, customerID uuid.UUID) (*service.Localization, error) {
	if m.LocalizationFn != nil {
		return m.LocalizationFn(ctx, customerID)
	}
	return nil, errNotStubbed
}

func (m *MockSettingsService) CurrencyCode(ctx context.Context, customerID uuid.UUID) (string, error) {
	loc, err := m.Localization(ctx, customerID)
	if err != nil {
		return "", err
	}
	return loc.CurrencyCode, nil
}

func (m *MockSettingsService) Locale(ctx context.Context, customerID uuid.UUID) (string, error) {
	loc, err := m.Localization(ctx, customerID)
	if err != nil {
		return "", err
	}
	return loc.Locale, nil
}

func (m *MockSettingsService) PaymentGatewayIDs(ctx context.Context, customerID uuid.UUID) ([]string, error) {
	if m.PaymentGatewayIDsFn != nil {
		return m.PaymentGatewayIDsFn(ctx, customerID)
	}
	return nil, errNotStubbed
}
