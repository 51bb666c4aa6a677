package schema

import "strings"

// TypeTag is the declared type of a settings key.
type TypeTag string

// Recognized type tags.
const (
	TypeInteger TypeTag = "integer"
	TypeFloat   TypeTag = "float"
	TypeString  TypeTag = "string"
	TypeBoolean TypeTag = "boolean"
	TypeObject  TypeTag = "object"
	TypeArray   TypeTag = "array"
	TypeJSON    TypeTag = "json"
)

// Suffixes marking keys that travel as integers but are stored as strings.
const (
	identifierSuffix = "_id"
	counterSuffix    = "number_counter"
)

var typeAliases = map[string]TypeTag{
	"integer": TypeInteger,
	"int":     TypeInteger,
	"float":   TypeFloat,
	"double":  TypeFloat,
	"real":    TypeFloat,
	"string":  TypeString,
	"boolean": TypeBoolean,
	"bool":    TypeBoolean,
	"object":  TypeObject,
	"array":   TypeArray,
	"json":    TypeJSON,
}

// ParseTypeTag resolves a type name, including the int/double/bool aliases,
// to its canonical tag.
func ParseTypeTag(name string) (TypeTag, bool) {
	tag, ok := typeAliases[strings.ToLower(strings.TrimSpace(name))]
	return tag, ok
}

// Valid reports whether t is one of the canonical tags.
func (t TypeTag) Valid() bool {
	switch t {
	case TypeInteger, TypeFloat, TypeString, TypeBoolean, TypeObject, TypeArray, TypeJSON:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (t TypeTag) String() string {
	return string(t)
}

// IsIdentifier reports whether key references another entity by numeric id.
func IsIdentifier(key string) bool {
	return strings.HasSuffix(key, identifierSuffix)
}

// IsCounter reports whether key is a document number counter.
func IsCounter(key string) bool {
	return strings.HasSuffix(key, counterSuffix)
}

// IsWireInteger reports whether key is sent as an integer on the wire and
// stored as a string.
func IsWireInteger(key string) bool {
	return IsIdentifier(key) || IsCounter(key)
}
