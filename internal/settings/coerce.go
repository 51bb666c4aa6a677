package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/phrazzld/invoice-api/internal/settings/schema"
	"github.com/spf13/cast"
)

// Coerce converts payload into its canonical stored form and returns a new
// Object; payload itself is never modified. Keys are visited in sorted order.
//
// Keys outside the schema are dropped, as are nil and empty-string values.
// Values failing their type check are dropped too. Identifier and counter
// keys keep their wire form as a string. Every other value is converted to
// its declared type: integers become int64, floats float64 and booleans
// bool. Objects and arrays are deep-copied and JSON text is kept verbatim.
func (e *Engine) Coerce(payload Object) Object {
	out := make(Object, len(payload))

	for _, key := range payload.Keys() {
		value := payload[key]
		declared, known := e.schema.TypeOf(key)
		if !known {
			e.logger.Debug("dropping unknown setting", slog.String("key", key))
			continue
		}
		if isBlank(value) {
			continue
		}

		expected := e.expectedType(key)
		if !e.accepts(key, expected, value) {
			e.drop(key, expected, "type check failed")
			continue
		}

		if schema.IsWireInteger(key) {
			out[key] = stringForm(value)
			continue
		}

		converted, err := convert(declared, value)
		if err != nil {
			e.drop(key, expected, err.Error())
			continue
		}
		out[key] = converted
	}

	return out
}

func (e *Engine) drop(key string, expected schema.TypeTag, reason string) {
	e.observer.SettingDropped(key, expected)
	e.logger.Debug("dropping setting",
		slog.String("key", key),
		slog.String("expected_type", expected.String()),
		slog.String("reason", reason))
}

// convert turns a value that passed CheckAttribute into the in-memory form of
// tag.
func convert(tag schema.TypeTag, v any) (any, error) {
	switch tag {
	case schema.TypeInteger:
		return strconv.ParseInt(strings.TrimSpace(stringForm(v)), 10, 64)
	case schema.TypeFloat:
		switch n := v.(type) {
		case string:
			return strconv.ParseFloat(strings.TrimSpace(n), 64)
		case json.Number:
			return n.Float64()
		}
		return cast.ToFloat64E(v)
	case schema.TypeString:
		return stringForm(v), nil
	case schema.TypeBoolean:
		b, ok := parseBool(v)
		if !ok {
			return nil, fmt.Errorf("not a boolean: %v", v)
		}
		return b, nil
	case schema.TypeObject:
		if m, ok := v.(map[string]any); ok {
			return schema.CloneValue(m), nil
		}
		var m map[string]any
		if err := roundTrip(v, &m); err != nil {
			return nil, err
		}
		return m, nil
	case schema.TypeArray:
		if a, ok := v.([]any); ok {
			return schema.CloneValue(a), nil
		}
		var a []any
		if err := roundTrip(v, &a); err != nil {
			return nil, err
		}
		if a == nil {
			a = []any{}
		}
		return a, nil
	case schema.TypeJSON:
		switch text := v.(type) {
		case string:
			return text, nil
		case []byte:
			return string(text), nil
		case json.RawMessage:
			return string(text), nil
		}
	}
	return nil, fmt.Errorf("cannot convert %T to %s", v, tag)
}

// roundTrip re-shapes typed maps, structs and slices into the generic
// decoded-JSON form stored in settings objects.
func roundTrip(v any, dst any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %T: %w", v, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
