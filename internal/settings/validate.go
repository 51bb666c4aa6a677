package settings

// Validate type-checks payload against the schema without modifying it.
//
// Keys are visited in sorted order and the first failure is returned as a
// *ValidationError, so the same bad payload always reports the same key.
// Absent, nil and empty-string values are skipped, as are protected keys,
// which Save strips before they could matter. Keys outside the schema are
// ignored.
func (e *Engine) Validate(payload Object) error {
	for _, key := range e.schema.Keys() {
		if e.schema.IsProtected(key) {
			continue
		}

		value, ok := payload[key]
		if !ok || isBlank(value) {
			continue
		}

		expected := e.expectedType(key)
		if !e.accepts(key, expected, value) {
			e.observer.ValidationFailed(key, expected)
			return &ValidationError{Key: key, Expected: expected}
		}
	}

	return nil
}
