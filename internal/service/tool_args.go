package service

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Tool arguments arrive as an open JSON map. These helpers convert single
// keys into typed values so each tool can decode into its own args struct.

func argString(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// argInt returns def when the key is absent, null or blank.
func argInt(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%s must be a whole number, got %v", key, n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s must be a whole number, got %s", key, n)
		}
		return int(i), nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return def, nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%s must be a whole number, got %q", key, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%s must be a whole number, got %T", key, v)
	}
}

// toFloat converts a JSON scalar into a float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// toNumbers accepts a list, a name->number object (values in key order) or a single scalar.
func toNumbers(v any) ([]float64, error) {
	switch vals := v.(type) {
	case nil:
		return nil, nil
	case []float64:
		return vals, nil
	case []any:
		out := make([]float64, 0, len(vals))
		for i, x := range vals {
			f, ok := toFloat(x)
			if !ok {
				return nil, fmt.Errorf("value %d is not a number: %v", i, x)
			}
			out = append(out, f)
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(vals))
		for k := range vals {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]float64, 0, len(keys))
		for _, k := range keys {
			f, ok := toFloat(vals[k])
			if !ok {
				return nil, fmt.Errorf("value %q is not a number: %v", k, vals[k])
			}
			out = append(out, f)
		}
		return out, nil
	default:
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("values must be a list of numbers, got %T", v)
		}
		return []float64{f}, nil
	}
}

// toNamedNumbers reads an object of numbers. Missing names read as zero.
func toNamedNumbers(v any, names ...string) (map[string]float64, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("values must be an object with %s", strings.Join(names, ", "))
	}
	out := make(map[string]float64, len(names))
	for _, name := range names {
		raw, ok := m[name]
		if !ok || raw == nil {
			continue
		}
		f, ok := toFloat(raw)
		if !ok {
			return nil, fmt.Errorf("%s is not a number: %v", name, raw)
		}
		out[name] = f
	}
	return out, nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
