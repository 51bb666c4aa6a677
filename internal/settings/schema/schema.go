package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed schema.yaml
var builtinSchema []byte

// Errors returned while building a Schema.
var (
	ErrInvalidSchema     = errors.New("invalid settings schema")
	ErrDuplicateKey      = fmt.Errorf("%w: duplicate key", ErrInvalidSchema)
	ErrUnknownType       = fmt.Errorf("%w: unknown type", ErrInvalidSchema)
	ErrMissingDefault    = fmt.Errorf("%w: missing default", ErrInvalidSchema)
	ErrUnknownProtection = fmt.Errorf("%w: protected key not declared", ErrInvalidSchema)
)

// Field declares one settings key.
type Field struct {
	Key     string
	Type    TypeTag
	Default any
}

// document is the on-disk YAML layout.
type document struct {
	Version   int        `yaml:"version"`
	Fields    []rawField `yaml:"fields"`
	Protected []string   `yaml:"protected"`
}

type rawField struct {
	Key     string    `yaml:"key"`
	Type    string    `yaml:"type"`
	Default yaml.Node `yaml:"default"`
}

// Schema is the immutable registry of settings keys.
type Schema struct {
	fields    map[string]Field
	keys      []string
	protected map[string]struct{}
}

// New builds a Schema from field declarations and the protected key list.
// Every protected key must be declared and every field needs a default.
func New(fields []Field, protected []string) (*Schema, error) {
	s := &Schema{
		fields:    make(map[string]Field, len(fields)),
		keys:      make([]string, 0, len(fields)),
		protected: make(map[string]struct{}, len(protected)),
	}

	for _, f := range fields {
		if f.Key == "" {
			return nil, fmt.Errorf("%w: empty key", ErrInvalidSchema)
		}
		if _, dup := s.fields[f.Key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, f.Key)
		}
		tag, ok := ParseTypeTag(string(f.Type))
		if !ok {
			return nil, fmt.Errorf("%w: %q for %s", ErrUnknownType, f.Type, f.Key)
		}
		if f.Default == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingDefault, f.Key)
		}
		def, err := normalizeDefault(f.Key, tag, f.Default)
		if err != nil {
			return nil, err
		}
		s.fields[f.Key] = Field{Key: f.Key, Type: tag, Default: CloneValue(def)}
		s.keys = append(s.keys, f.Key)
	}
	sort.Strings(s.keys)

	for _, key := range protected {
		if _, ok := s.fields[key]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProtection, key)
		}
		s.protected[key] = struct{}{}
	}

	return s, nil
}

// Parse builds a Schema from its YAML description.
func Parse(data []byte) (*Schema, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	fields := make([]Field, 0, len(doc.Fields))
	for _, rf := range doc.Fields {
		f := Field{Key: rf.Key, Type: TypeTag(rf.Type)}
		if !rf.Default.IsZero() {
			var v any
			if err := rf.Default.Decode(&v); err != nil {
				return nil, fmt.Errorf("%w: default for %s: %v", ErrInvalidSchema, rf.Key, err)
			}
			f.Default = v
		}
		fields = append(fields, f)
	}

	return New(fields, doc.Protected)
}

// Builtin returns the schema embedded in the binary.
func Builtin() (*Schema, error) {
	return Parse(builtinSchema)
}

// MustBuiltin is like Builtin but panics if the embedded schema is invalid.
func MustBuiltin() *Schema {
	s, err := Builtin()
	if err != nil {
		// ALLOW-PANIC: the embedded schema ships with the binary
		panic(err)
	}
	return s
}

// TypeOf returns the declared type of key.
func (s *Schema) TypeOf(key string) (TypeTag, bool) {
	f, ok := s.fields[key]
	return f.Type, ok
}

// Has reports whether key is declared.
func (s *Schema) Has(key string) bool {
	_, ok := s.fields[key]
	return ok
}

// IsProtected reports whether inbound payloads may not set key.
func (s *Schema) IsProtected(key string) bool {
	_, ok := s.protected[key]
	return ok
}

// Keys returns every declared key in sorted order.
func (s *Schema) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// ProtectedKeys returns the protected keys in sorted order.
func (s *Schema) ProtectedKeys() []string {
	out := make([]string, 0, len(s.protected))
	for k := range s.protected {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of declared keys.
func (s *Schema) Len() int {
	return len(s.keys)
}

// Default returns a copy of the default value of key.
func (s *Schema) Default(key string) (any, bool) {
	f, ok := s.fields[key]
	if !ok {
		return nil, false
	}
	return CloneValue(f.Default), true
}

// Defaults returns a fully populated map holding the default of every key.
// The caller owns the returned map.
func (s *Schema) Defaults() map[string]any {
	out := make(map[string]any, len(s.keys))
	for _, k := range s.keys {
		out[k] = CloneValue(s.fields[k].Default)
	}
	return out
}

// normalizeDefault converts YAML-decoded defaults into the in-memory
// representation the coercion pipeline produces for the same type.
func normalizeDefault(key string, tag TypeTag, v any) (any, error) {
	if IsWireInteger(key) {
		switch n := v.(type) {
		case int:
			return strconv.Itoa(n), nil
		case int64:
			return strconv.FormatInt(n, 10), nil
		case string:
			return n, nil
		}
		return nil, fmt.Errorf("%w: default for %s must be an integer or string", ErrInvalidSchema, key)
	}

	switch tag {
	case TypeInteger:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		}
	case TypeFloat:
		switch n := v.(type) {
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case float64:
			return n, nil
		}
	case TypeString, TypeJSON:
		if str, ok := v.(string); ok {
			return str, nil
		}
	case TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case TypeObject:
		if m, ok := v.(map[string]any); ok {
			return m, nil
		}
	case TypeArray:
		if a, ok := v.([]any); ok {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: default for %s does not match type %s", ErrInvalidSchema, key, tag)
}

// CloneValue deep-copies maps and slices so settings objects never share
// nested values.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = CloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	default:
		return v
	}
}
