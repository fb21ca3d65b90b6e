// Package conv reads typed values out of node config maps. Pipeline configs
// arrive as map[string]any from YAML or JSON, so the same logical number may
// show up as int, int64 or float64 depending on the decoder; these helpers
// absorb that instead of every builder repeating the type switches.
package conv

import "strconv"

// ConfigGetInt reads key as int, falling back to defaultVal when the key is
// missing or not numeric.
func ConfigGetInt(m map[string]any, key string, defaultVal int) int {
	v, ok := lookup(m, key)
	if !ok {
		return defaultVal
	}
	if n, ok := asInt(v); ok {
		return n
	}
	return defaultVal
}

// ConfigGetFloat64 reads key as float64 with the same fallback rules as
// ConfigGetInt.
func ConfigGetFloat64(m map[string]any, key string, defaultVal float64) float64 {
	v, ok := lookup(m, key)
	if !ok {
		return defaultVal
	}
	if f, ok := asFloat64(v); ok {
		return f
	}
	return defaultVal
}

// ConfigGetBool reads key as bool. Besides native bools it accepts the YAML
// scalar spellings ("yes", "on", "1" and their negations).
func ConfigGetBool(m map[string]any, key string, defaultVal bool) bool {
	v, ok := lookup(m, key)
	if !ok {
		return defaultVal
	}
	if b, ok := asBool(v); ok {
		return b
	}
	return defaultVal
}

// ConfigGetString reads key as string. Non-string values fall back rather
// than being formatted.
func ConfigGetString(m map[string]any, key string, defaultVal string) string {
	v, ok := lookup(m, key)
	if !ok {
		return defaultVal
	}
	if s, ok := v.(string); ok {
		return s
	}
	return defaultVal
}

// ConfigGetStringSlice reads key as []string. YAML sequences decode to
// []any, so both []string and []any of scalars are accepted; numeric
// elements are formatted without a fraction.
func ConfigGetStringSlice(m map[string]any, key string, defaultVal []string) []string {
	v, ok := lookup(m, key)
	if !ok {
		return defaultVal
	}
	if ss, ok := v.([]string); ok {
		return ss
	}
	raw, ok := v.([]any)
	if !ok {
		return defaultVal
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		switch s := e.(type) {
		case string:
			out = append(out, s)
		default:
			if f, ok := asFloat64(e); ok {
				out = append(out, strconv.FormatFloat(f, 'f', -1, 64))
			}
		}
	}
	return out
}

func lookup(m map[string]any, key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	case uint64:
		return int(n), true
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch b {
		case "true", "True", "yes", "on", "1":
			return true, true
		case "false", "False", "no", "off", "0":
			return false, true
		}
	}
	return false, false
}
