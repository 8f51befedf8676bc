package helper

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/spf13/cast"
)

// NormalizeValue maps a cell value to its canonical comparison form: empty
// strings become nil, numbers become float64, and arrays/objects are
// normalized recursively. JSON round-trips and user edits then compare equal.
func NormalizeValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return v
	case int, int32, int64, float32, float64, uint, uint32, uint64:
		return cast.ToFloat64(v)
	case []string:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, NormalizeValue(item))
		}
		return out
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, NormalizeValue(item))
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = NormalizeValue(item)
		}
		return out
	default:
		return v
	}
}

// ValuesEqual compares two cell values in normalized form.
func ValuesEqual(a, b any) bool {
	return reflect.DeepEqual(NormalizeValue(a), NormalizeValue(b))
}

// DiffPatch returns the subset of patch whose normalized values differ from
// the snapshot. An empty result means nothing needs submitting.
func DiffPatch(patch, snapshot map[string]any) map[string]any {
	diff := map[string]any{}
	for key, value := range patch {
		if !ValuesEqual(value, snapshot[key]) {
			diff[key] = value
		}
	}
	return diff
}

// SortedKeys is a deterministic iteration helper for map-shaped payloads.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TruncateValue renders a value as a display string capped at max runes,
// for operation-log entries. Scalars render through cast; multi-select and
// attachment values are slices or maps, which render as JSON.
func TruncateValue(value any, max int) string {
	s, err := cast.ToStringE(value)
	if err != nil {
		if raw, jsonErr := json.Marshal(value); jsonErr == nil {
			s = string(raw)
		} else {
			s = fmt.Sprintf("%v", value)
		}
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
