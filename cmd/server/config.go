package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/phrazzld/invoice-api/internal/config"
	"github.com/phrazzld/invoice-api/internal/platform/logger"
	"github.com/phrazzld/invoice-api/internal/reference"
	"github.com/phrazzld/invoice-api/internal/settings/schema"
)

// loadAppConfig loads configuration from config.yaml and INVOICE_* variables.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// setupAppLogger installs the JSON logger at the configured level.
func setupAppLogger(cfg *config.Config) (*slog.Logger, error) {
	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"metrics_enabled", cfg.Metrics.Enabled,
		"schema_override", cfg.Settings.SchemaPath != "",
		"catalog_override", cfg.Settings.CatalogPath != "")
	return l, nil
}

// loadSchema returns the embedded settings schema unless path names a
// replacement file.
func loadSchema(path string) (*schema.Schema, error) {
	if path == "" {
		return schema.Builtin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings schema: %w", err)
	}
	return schema.Parse(data)
}

// loadCatalog returns the embedded reference catalog unless path names a
// replacement file.
func loadCatalog(path string) (*reference.Catalog, error) {
	if path == "" {
		return reference.Builtin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference catalog: %w", err)
	}
	return reference.Parse(data)
}
