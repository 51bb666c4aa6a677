package settings

import (
	"sort"

	"github.com/phrazzld/invoice-api/internal/settings/schema"
)

// Object is a settings key/value map. Keys are a subset of the schema keys.
type Object map[string]any

// Clone returns a deep copy of o. A nil Object clones to nil.
func (o Object) Clone() Object {
	if o == nil {
		return nil
	}
	out := make(Object, len(o))
	for k, v := range o {
		out[k] = schema.CloneValue(v)
	}
	return out
}

// Keys returns the keys of o in sorted order.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// isBlank reports whether a payload value counts as absent: nil or the
// empty string.
func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
