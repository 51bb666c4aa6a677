// Package reference provides the read-only lookup tables that settings
// identifiers point into: currencies, languages, date formats and timezones.
//
// A Catalog is loaded once, typically from the embedded catalog.yaml, and
// handed to the services that need it. It is immutable and safe for
// concurrent use.
package reference
