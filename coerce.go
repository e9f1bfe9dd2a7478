package extractkit

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var errTypeMismatch = errors.New("type mismatch")

// isAbsent reports whether a raw candidate value means "not found".
func isAbsent(t FieldType, raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		// A string field keeps whatever text inference produced, except blanks
		// and the markers, which are normalised to the sentinel.
		return isNotFoundMarker(v)
	case []any:
		return t != StringList && len(v) == 0
	}
	return false
}

// coerce converts a raw JSON-decoded value to the Go type for t. Only
// lossless conversions are performed.
func coerce(t FieldType, raw any) (any, error) {
	switch t {
	case String:
		return coerceString(raw)
	case Integer:
		return coerceInt(raw)
	case StringList:
		return coerceList(raw)
	}
	return nil, errTypeMismatch
}

func coerceString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case json.Number:
		return v.String(), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	return "", errTypeMismatch
}

func coerceInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case int32:
		return int(v), nil
	case float64:
		return intFromFloat(v)
	case json.Number:
		if n, err := strconv.Atoi(v.String()); err == nil {
			return n, nil
		}
		// Integral values written with a fraction or exponent, e.g. 5.0 or 1e3.
		f, err := v.Float64()
		if err != nil {
			return 0, errTypeMismatch
		}
		return intFromFloat(f)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, errTypeMismatch
		}
		return n, nil
	}
	return 0, errTypeMismatch
}

// intFromFloat accepts integral values that fit in int64. 2^63 itself is
// representable as float64 but not as int64.
func intFromFloat(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || v >= 1<<63 || v < -(1<<63) {
		return 0, errTypeMismatch
	}
	return int(v), nil
}

func coerceList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return append([]string{}, v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, err := coerceString(item)
			if err != nil {
				return nil, errTypeMismatch
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		s := strings.TrimSpace(v)
		if strings.HasPrefix(s, "[") {
			var items []any
			if err := json.Unmarshal([]byte(s), &items); err != nil {
				return nil, errTypeMismatch
			}
			return coerceList(items)
		}
		if s == "" {
			return []string{}, nil
		}
		return []string{s}, nil
	}
	return nil, errTypeMismatch
}

// cloneValue detaches list values so results never share backing arrays.
func cloneValue(v any) any {
	if l, ok := v.([]string); ok {
		return append([]string{}, l...)
	}
	return v
}
