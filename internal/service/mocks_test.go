package service

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/invoice-api/internal/domain"
	"github.com/phrazzld/invoice-api/internal/events"
	"github.com/phrazzld/invoice-api/internal/settings"
	"github.com/phrazzld/invoice-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockOwnerStore mocks the store.OwnerStore interface
type MockOwnerStore struct {
	mock.Mock
	txCalls int
}

func (m *MockOwnerStore) PersistSettings(ctx context.Context, owner settings.Owner) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

func (m *MockOwnerStore) CreateTenant(ctx context.Context, tenant *domain.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockOwnerStore) CreateGroup(ctx context.Context, group *domain.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *MockOwnerStore) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockOwnerStore) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *MockOwnerStore) GetGroup(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

func (m *MockOwnerStore) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockOwnerStore) GetOwnerForUpdate(
	ctx context.Context,
	level settings.Level,
	id uuid.UUID,
) (settings.Owner, error) {
	args := m.Called(ctx, level, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(settings.Owner), args.Error(1)
}

func (m *MockOwnerStore) LoadCustomerContext(
	ctx context.Context,
	customerID uuid.UUID,
) (*domain.CustomerContext, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CustomerContext), args.Error(1)
}

// WithTx returns the same mock so expectations set on it apply inside
// transactions too.
func (m *MockOwnerStore) WithTx(_ *sql.Tx) store.OwnerStore {
	m.txCalls++
	return m
}

// recordingRecorder captures Recorder calls.
type recordingRecorder struct {
	mu      sync.Mutex
	saves   []settings.Level
	errors  []error
	lookups []settings.Resolution
}

func (r *recordingRecorder) ObserveSave(level settings.Level, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, level)
	r.errors = append(r.errors, err)
}

func (r *recordingRecorder) ObserveLookup(res settings.Resolution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups = append(r.lookups, res)
}

// eventSink collects emitted events.
type eventSink struct {
	mu     sync.Mutex
	events []*events.SettingsChangedEvent
}

func (s *eventSink) HandleEvent(_ context.Context, e *events.SettingsChangedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}
