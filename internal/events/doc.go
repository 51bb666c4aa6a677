// Package events carries settings-changed notifications from the service
// layer to any number of handlers.
//
// The service emits a SettingsChangedEvent after a save commits. Handlers
// such as AuditHandler subscribe through an EventEmitter without the service
// knowing about them.
package events
