package settings

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/phrazzld/invoice-api/internal/settings/schema"
	"github.com/spf13/cast"
)

// Status describes the outcome of a cascade lookup.
type Status int

const (
	// StatusFound means some level holds a qualifying value.
	StatusFound Status = iota + 1
	// StatusNotFound means no level holds a qualifying value.
	StatusNotFound
	// StatusCorrupted means the cascade has no tenant baseline.
	StatusCorrupted
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	case StatusCorrupted:
		return "corrupted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Resolution is the result of resolving one key.
type Resolution struct {
	Key    string
	Status Status
	// Level is the level that supplied Value. Zero unless Status is
	// StatusFound.
	Level Level
	Value any
}

// Found reports whether the resolution carries a value.
func (r Resolution) Found() bool {
	return r.Status == StatusFound
}

type layer struct {
	level    Level
	settings Object
}

// Cascade is an immutable snapshot of the settings objects along one
// customer's chain. It is safe for concurrent use.
type Cascade struct {
	schema *schema.Schema
	// layers are ordered from the most specific level to the tenant.
	layers []layer
	tenant Object
}

// Cascade builds a snapshot from the given settings objects. Pass nil for a
// level that is absent. The objects are deep-copied, so later changes to
// them do not affect the snapshot.
func (e *Engine) Cascade(tenant, group, customer Object) *Cascade {
	c := &Cascade{schema: e.schema}
	if customer != nil {
		c.layers = append(c.layers, layer{level: LevelCustomer, settings: customer.Clone()})
	}
	if group != nil {
		c.layers = append(c.layers, layer{level: LevelGroup, settings: group.Clone()})
	}
	if tenant != nil {
		c.tenant = tenant.Clone()
		c.layers = append(c.layers, layer{level: LevelTenant, settings: c.tenant})
	}
	return c
}

// qualifies reports whether value counts as set at level. Customer and group
// values must be non-nil and, when strings, non-empty. The tenant is the
// baseline and any non-nil value there counts, empty strings included.
func qualifies(level Level, value any, present bool) bool {
	if !present || value == nil {
		return false
	}
	if level == LevelTenant {
		return true
	}
	if s, ok := value.(string); ok {
		return utf8.RuneCountInString(s) >= 1
	}
	return true
}

// Lookup resolves key by walking customer, group and tenant in that order.
// It never fails; the outcome is carried in the Resolution.
func (c *Cascade) Lookup(key string) Resolution {
	if c.tenant == nil {
		return Resolution{Key: key, Status: StatusCorrupted}
	}
	for _, l := range c.layers {
		value, present := l.settings[key]
		if qualifies(l.level, value, present) {
			return Resolution{Key: key, Status: StatusFound, Level: l.level, Value: schema.CloneValue(value)}
		}
	}
	return Resolution{Key: key, Status: StatusNotFound}
}

// Get returns the effective value of key. A key that no level supplies means
// the settings chain is corrupted, since the tenant carries every key.
func (c *Cascade) Get(key string) (any, error) {
	res := c.Lookup(key)
	if !res.Found() {
		return nil, fmt.Errorf("%w: no value for %s (%s)", ErrSettingsCorrupted, key, res.Status)
	}
	return res.Value, nil
}

// Entity returns the level whose settings supply key.
func (c *Cascade) Entity(key string) (Level, error) {
	res := c.Lookup(key)
	if !res.Found() {
		return 0, fmt.Errorf("%w: %s", ErrSettingsNotFound, key)
	}
	return res.Level, nil
}

// Explain reports, for every level present, whether it holds a qualifying
// value for key. Entries are ordered from customer to tenant.
func (c *Cascade) Explain(key string) []Resolution {
	out := make([]Resolution, 0, len(c.layers))
	for _, l := range c.layers {
		value, present := l.settings[key]
		res := Resolution{Key: key, Status: StatusNotFound, Level: l.level}
		if qualifies(l.level, value, present) {
			res.Status = StatusFound
			res.Value = schema.CloneValue(value)
		}
		out = append(out, res)
	}
	return out
}

// Merged returns one object containing the effective value of every key:
// schema defaults, overlaid by the tenant, the group and the customer, each
// contributing only the values that qualify at its level. Keys the schema
// does not declare are left out. The result is a deep copy the caller owns.
func (c *Cascade) Merged() Object {
	out := Object(c.schema.Defaults())
	for i := len(c.layers) - 1; i >= 0; i-- {
		l := c.layers[i]
		for key, value := range l.settings {
			// Keys dropped from the schema may linger in stored objects.
			if !c.schema.Has(key) {
				continue
			}
			if qualifies(l.level, value, true) {
				out[key] = schema.CloneValue(value)
			}
		}
	}
	return out
}

func (c *Cascade) typed(key string) (any, error) {
	if !c.schema.Has(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	return c.Get(key)
}

// String returns the effective value of key as a string.
func (c *Cascade) String(key string) (string, error) {
	v, err := c.typed(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s holds %T, want string", ErrTypeMismatch, key, v)
	}
	return s, nil
}

// Int returns the effective value of key as an integer. Identifier keys,
// stored as digit strings, are parsed in base 10.
func (c *Cascade) Int(key string) (int64, error) {
	v, err := c.typed(key)
	if err != nil {
		return 0, err
	}
	var n int64
	switch val := v.(type) {
	case string:
		n, err = strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	case json.Number:
		n, err = strconv.ParseInt(val.String(), 10, 64)
	default:
		n, err = cast.ToInt64E(v)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s holds %v, want integer", ErrTypeMismatch, key, v)
	}
	return n, nil
}

// Float returns the effective value of key as a float.
func (c *Cascade) Float(key string) (float64, error) {
	v, err := c.typed(key)
	if err != nil {
		return 0, err
	}
	if _, ok := v.(bool); ok {
		return 0, fmt.Errorf("%w: %s holds bool, want float", ErrTypeMismatch, key)
	}
	var f float64
	if n, ok := v.(json.Number); ok {
		f, err = n.Float64()
	} else {
		f, err = cast.ToFloat64E(v)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s holds %v, want float", ErrTypeMismatch, key, v)
	}
	return f, nil
}

// Bool returns the effective value of key as a boolean.
func (c *Cascade) Bool(key string) (bool, error) {
	v, err := c.typed(key)
	if err != nil {
		return false, err
	}
	b, ok := parseBool(v)
	if !ok {
		return false, fmt.Errorf("%w: %s holds %v, want boolean", ErrTypeMismatch, key, v)
	}
	return b, nil
}
