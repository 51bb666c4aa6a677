package settings

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
)

// ChangedKeys returns the sorted keys whose values differ between before and
// after, including keys present in only one of them. Values are compared by
// their JSON encoding, so an int64 read back from storage as a json.Number
// is not a change.
func ChangedKeys(before, after Object) []string {
	var changed []string
	for key, value := range after {
		old, ok := before[key]
		if !ok || !sameValue(old, value) {
			changed = append(changed, key)
		}
	}
	for key := range before {
		if _, ok := after[key]; !ok {
			changed = append(changed, key)
		}
	}
	sort.Strings(changed)
	return changed
}

func sameValue(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	ea, errA := json.Marshal(a)
	eb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ea, eb)
}
