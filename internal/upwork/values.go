package upwork

import "strconv"

// Loose-JSON accessors for walking decoded payload trees. Every accessor
// tolerates nil maps and missing or mistyped values.

func getMap(m map[string]any, path ...string) map[string]any {
	for _, key := range path {
		if m == nil {
			return nil
		}
		next, ok := m[key].(map[string]any)
		if !ok {
			return nil
		}
		m = next
	}
	return m
}

func getString(m map[string]any, path ...string) string {
	if len(path) == 0 {
		return ""
	}
	m = getMap(m, path[:len(path)-1]...)
	if m == nil {
		return ""
	}
	switch v := m[path[len(path)-1]].(type) {
	case string:
		return v
	case float64:
		return formatFloat(v)
	default:
		return ""
	}
}

func getBool(m map[string]any, path ...string) bool {
	if len(path) == 0 {
		return false
	}
	m = getMap(m, path[:len(path)-1]...)
	if m == nil {
		return false
	}
	v, _ := m[path[len(path)-1]].(bool)
	return v
}

func getFloat(m map[string]any, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case float64:
		return v, true
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func getIntDefault(m map[string]any, key string, fallback int) int {
	if v, ok := getFloat(m, key); ok && v != 0 {
		return int(v)
	}
	return fallback
}

func getIntPtr(m map[string]any, key string) *int {
	if v, ok := getFloat(m, key); ok {
		return intPtr(int(v))
	}
	return nil
}

func intPtr(v int) *int {
	return &v
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
