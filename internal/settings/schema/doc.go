// Package schema is the registry of every recognized settings key.
//
// A Schema maps each key to its declared type tag, carries the default value
// used as the tenant baseline, and records the protected keys that inbound
// payloads may never set. A Schema is immutable once built and is safe for
// concurrent use.
package schema
