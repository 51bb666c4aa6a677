package settings

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/phrazzld/invoice-api/internal/settings/schema"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

// numericPattern matches decimal numbers with an optional sign, fraction and
// exponent. Hex, infinities and NaN are not numeric.
var numericPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

var (
	trueTokens  = map[string]struct{}{"1": {}, "true": {}, "on": {}, "yes": {}}
	falseTokens = map[string]struct{}{"0": {}, "false": {}, "off": {}, "no": {}}
)

// CheckAttribute reports whether value is acceptable input for a key declared
// with tag. Numeric-looking strings pass the numeric checks; Coerce converts
// them afterwards. Unknown tags never pass.
func CheckAttribute(tag schema.TypeTag, value any) bool {
	switch tag {
	case schema.TypeInteger:
		return isDigits(stringForm(value))
	case schema.TypeFloat:
		return isFloat(value)
	case schema.TypeString:
		return isText(value)
	case schema.TypeBoolean:
		_, ok := parseBool(value)
		return ok
	case schema.TypeObject:
		return isStructured(value)
	case schema.TypeArray:
		return isList(value)
	case schema.TypeJSON:
		return isJSONText(value)
	default:
		return false
	}
}

// stringForm renders scalars the way they appear on the wire. Values without
// a scalar form render as "".
func stringForm(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case json.Number:
		return val.String()
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isFloat(v any) bool {
	switch v.(type) {
	case float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	case bool:
		return false
	}
	return isNumericString(stringForm(v))
}

func isNumericString(s string) bool {
	return numericPattern.MatchString(strings.TrimSpace(s))
}

func isText(v any) bool {
	switch v.(type) {
	case nil, string:
		return true
	case json.Number:
		// json.Number has a String method but carries a number.
		return false
	case fmt.Stringer:
		return true
	}
	return false
}

// parseBool accepts native booleans and the usual truthy/falsy tokens.
func parseBool(v any) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	token := strings.ToLower(strings.TrimSpace(stringForm(v)))
	if _, ok := trueTokens[token]; ok {
		return true, true
	}
	if _, ok := falseTokens[token]; ok {
		return false, true
	}
	return false, false
}

func isStructured(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Map || rv.Kind() == reflect.Struct
}

func isList(v any) bool {
	switch v.(type) {
	case nil, []byte, json.RawMessage:
		return false
	}
	kind := reflect.ValueOf(v).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

func isJSONText(v any) bool {
	switch text := v.(type) {
	case string:
		return gjson.Valid(text)
	case []byte:
		return gjson.ValidBytes(text)
	case json.RawMessage:
		return gjson.ValidBytes(text)
	}
	return false
}
