package filter

import (
	"encoding/json"
	"math"
	"strconv"
)

// Values carried by a Field are JSON-like: nil, bool, numbers (float64, the
// Go integer kinds or json.Number), string, []any and map[string]any. The
// helpers below read them without caring which decoder produced them.

// AsString returns v as a string when it is one.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// AsBool returns v as a bool when it is one.
func AsBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// AsArray returns v as a slice of values. Typed string and number slices are
// accepted so hand-built expressions do not need []any.
func AsArray(v any) ([]any, bool) {
	switch arr := v.(type) {
	case []any:
		return arr, true
	case []string:
		out := make([]any, len(arr))
		for i, s := range arr {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(arr))
		for i, n := range arr {
			out[i] = n
		}
		return out, true
	case []int64:
		out := make([]any, len(arr))
		for i, n := range arr {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]any, len(arr))
		for i, n := range arr {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}

// AsObject returns v as a JSON object.
func AsObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// IsNumber reports whether v is a numeric JSON value.
func IsNumber(v any) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32:
		return true
	case float64:
		return !math.IsNaN(n) && !math.IsInf(n, 0)
	case json.Number:
		_, err := n.Float64()
		return err == nil
	default:
		return false
	}
}

// AsInt returns v as an int64 when it is an integral number.
func AsInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), n <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := strconv.ParseInt(string(n), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// FormatNumber renders a numeric value as SQL numeric literal text.
func FormatNumber(v any) (string, bool) {
	switch n := v.(type) {
	case json.Number:
		if _, err := n.Float64(); err != nil {
			return "", false
		}
		return n.String(), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "", false
		}
		return strconv.FormatFloat(n, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32), true
	}
	if i, ok := AsInt(v); ok {
		return strconv.FormatInt(i, 10), true
	}
	return "", false
}

// TypeName describes the JSON type of v for error messages.
func TypeName(v any) string {
	switch {
	case v == nil:
		return "null"
	case IsNumber(v):
		return "number"
	}
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	}
	if _, ok := AsArray(v); ok {
		return "array"
	}
	return "unknown"
}
