package settings

import (
	"fmt"
	"strings"
)

// Level identifies one tier of the cascade.
type Level int

// Cascade levels, from the baseline up to the most specific override.
const (
	LevelTenant Level = iota + 1
	LevelGroup
	LevelCustomer
)

// String implements fmt.Stringer.
func (l Level) String() string {
	switch l {
	case LevelTenant:
		return "tenant"
	case LevelGroup:
		return "group"
	case LevelCustomer:
		return "customer"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ParseLevel parses the name of a level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tenant", "company":
		return LevelTenant, nil
	case "group":
		return LevelGroup, nil
	case "customer", "client":
		return LevelCustomer, nil
	}
	return 0, fmt.Errorf("unknown settings level %q", name)
}
