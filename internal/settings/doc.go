// Package settings resolves and sanitizes the three-level settings objects
// that drive tenant, group and customer behaviour.
//
// Reads go through a Cascade, an immutable snapshot of the customer, group
// and tenant objects in override order. Writes go through Engine: Validate
// rejects a payload at its first badly typed key, Coerce silently drops such
// keys, and Save combines coercion with the schema defaults before handing
// the finished object to a Persister.
//
// Nothing in this package blocks or keeps mutable state; an Engine and any
// Cascade may be shared across goroutines.
package settings
