// Package store defines the persistence interfaces for the entities that own
// settings objects, together with the transaction helper and error values
// shared by every implementation.
package store
