package settings

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/phrazzld/invoice-api/internal/settings/schema"
)

// Observer is notified about rejected and dropped payload keys.
// Implementations must be safe for concurrent use.
type Observer interface {
	ValidationFailed(key string, expected schema.TypeTag)
	SettingDropped(key string, expected schema.TypeTag)
}

type nopObserver struct{}

func (nopObserver) ValidationFailed(string, schema.TypeTag) {}
func (nopObserver) SettingDropped(string, schema.TypeTag)   {}

// Engine validates, coerces and saves settings payloads against a schema,
// and builds cascades for reads.
type Engine struct {
	schema   *schema.Schema
	observer Observer
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver reports validation failures and dropped keys to o.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithLogger sets the logger used for debug output about dropped keys.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine returns an Engine for s. It fails if any schema default would not
// survive its own type check.
func NewEngine(s *schema.Schema, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil schema", schema.ErrInvalidSchema)
	}

	e := &Engine{
		schema:   s,
		observer: nopObserver{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(slog.String("component", "settings_engine"))

	for _, key := range s.Keys() {
		def, _ := s.Default(key)
		if schema.IsWireInteger(key) {
			if str, ok := def.(string); ok && (str == "" || isDigits(str)) {
				continue
			}
			return nil, fmt.Errorf("%w: default for %s must be a digit string", schema.ErrInvalidSchema, key)
		}
		tag, _ := s.TypeOf(key)
		if !CheckAttribute(tag, def) {
			return nil, fmt.Errorf("%w: default for %s fails %s check", schema.ErrInvalidSchema, key, tag)
		}
	}

	return e, nil
}

// Schema returns the schema the engine enforces.
func (e *Engine) Schema() *schema.Schema {
	return e.schema
}

// expectedType returns the type a payload value must satisfy for key.
// Identifier and counter keys are integers on the wire whatever their
// declared type.
func (e *Engine) expectedType(key string) schema.TypeTag {
	if schema.IsWireInteger(key) {
		return schema.TypeInteger
	}
	tag, _ := e.schema.TypeOf(key)
	return tag
}

// accepts reports whether value passes the type check for key and can be
// converted to its stored form, so a value Validate lets through is never
// dropped by Coerce. Integer keys stored as numbers must fit an int64 and
// numeric float text must fit a float64.
func (e *Engine) accepts(key string, expected schema.TypeTag, value any) bool {
	if !CheckAttribute(expected, value) {
		return false
	}
	switch expected {
	case schema.TypeInteger:
		if schema.IsWireInteger(key) {
			return true
		}
		_, err := strconv.ParseInt(stringForm(value), 10, 64)
		return err == nil
	case schema.TypeFloat:
		switch value.(type) {
		case string, json.Number:
			_, err := strconv.ParseFloat(strings.TrimSpace(stringForm(value)), 64)
			return err == nil
		}
	}
	return true
}
