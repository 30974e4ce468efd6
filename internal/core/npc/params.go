package npc

import (
	"fmt"
	"strings"
)

// Config params arrive as whatever the decoder produced: JSON numbers are
// float64, YAML ints are int.

func toFloat(v any) (float64, bool) {
	switch tv := v.(type) {
	case float64:
		return tv, true
	case float32:
		return float64(tv), true
	case int:
		return float64(tv), true
	case int64:
		return float64(tv), true
	case uint64:
		return float64(tv), true
	default:
		return 0, false
	}
}

func paramFloat(params map[string]any, key string, def float64) float64 {
	if f, ok := toFloat(params[key]); ok {
		return f
	}
	return def
}

func paramInt(params map[string]any, key string, def int) int {
	if f, ok := toFloat(params[key]); ok {
		return int(f)
	}
	return def
}

func paramString(params map[string]any, key, def string) string {
	if s, ok := params[key].(string); ok && s != "" {
		return s
	}
	return def
}

func paramBool(params map[string]any, key string, def bool) bool {
	if b, ok := params[key].(bool); ok {
		return b
	}
	return def
}

func requireString(params map[string]any, key string) (string, error) {
	s := paramString(params, key, "")
	if s == "" {
		return "", fmt.Errorf("missing param %q", key)
	}
	return s, nil
}

// label renders a node name such as "Seek(target)".
func label(kind string, args ...string) string {
	return kind + "(" + strings.Join(args, ",") + ")"
}
