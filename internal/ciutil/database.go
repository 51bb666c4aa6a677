package ciutil

import "log/slog"

// GetTestDatabaseURL returns the integration test database URL, preferring
// INVOICE_TEST_DATABASE_URL over the application and generic variables. It
// returns "" when none is set.
func GetTestDatabaseURL(logger *slog.Logger) string {
	return GetEnvWithFallbacks(
		[]string{EnvTestDatabaseURL, EnvDatabaseURL, EnvLegacyDBURL},
		"",
		logger,
	)
}
