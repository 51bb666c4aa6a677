// Package api exposes the settings service over HTTP. Handlers decode
// payloads, call service.SettingsService and translate service and store
// errors into status codes; settings validation failures come back as 422
// with the offending key and its expected type.
package api
