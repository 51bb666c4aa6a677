package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/invoice-api/internal/config"
	"github.com/phrazzld/invoice-api/internal/events"
	"github.com/phrazzld/invoice-api/internal/platform/metrics"
	"github.com/phrazzld/invoice-api/internal/platform/postgres"
	"github.com/phrazzld/invoice-api/internal/reference"
	"github.com/phrazzld/invoice-api/internal/service"
	"github.com/phrazzld/invoice-api/internal/settings"
	"github.com/phrazzld/invoice-api/internal/store"
)

// application holds the shared dependencies so they can be wired once and
// released together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// metrics is nil when disabled; its methods are nil-safe.
	metrics *metrics.Metrics

	engine       *settings.Engine
	catalog      *reference.Catalog
	ownerStore   store.OwnerStore
	eventEmitter *events.InMemoryEventEmitter

	settingsService service.SettingsService
}

// newApplication wires stores, the settings engine and the service. The
// database connection must already be open.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	if cfg.Metrics.Enabled {
		app.metrics = metrics.New(cfg.Metrics.Namespace)
	}

	s, err := loadSchema(cfg.Settings.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings schema: %w", err)
	}
	engineOpts := []settings.Option{settings.WithLogger(logger)}
	if app.metrics != nil {
		engineOpts = append(engineOpts, settings.WithObserver(app.metrics))
	}
	app.engine, err = settings.NewEngine(s, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create settings engine: %w", err)
	}
	logger.Info("settings schema loaded",
		"keys", s.Len(),
		"protected_keys", len(s.ProtectedKeys()))

	app.catalog, err = loadCatalog(cfg.Settings.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference catalog: %w", err)
	}

	app.ownerStore = postgres.NewPostgresOwnerStore(db, logger)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewAuditHandler(logger))

	serviceOpts := []service.Option{service.WithEmitter(app.eventEmitter)}
	if app.metrics != nil {
		serviceOpts = append(serviceOpts, service.WithRecorder(app.metrics))
	}
	app.settingsService, err = service.NewSettingsService(
		app.engine,
		app.ownerStore,
		db,
		app.catalog,
		logger,
		serviceOpts...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create settings service: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// Run serves HTTP until ctx is canceled, then releases resources.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
