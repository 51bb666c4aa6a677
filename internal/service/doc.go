// Package service contains the settings use cases. It coordinates the
// settings engine, the owner store and the reference catalog: saves run in a
// transaction with the owner row locked, reads resolve against one
// consistent customer snapshot, and committed changes are announced as
// events.
//
// The service depends on the store interfaces, never on a concrete database
// implementation.
package service
