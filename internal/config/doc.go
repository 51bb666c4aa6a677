// Package config loads and validates the server configuration from an
// optional YAML file and INVOICE_* environment variables, using viper for
// the sources and validator struct tags for the rules.
package config
