package pipeline

import "strconv"

// Parameter maps come from JSON bodies and planner output, so numbers show
// up as float64 and everything else as loosely-typed values. These helpers
// coerce the common shapes without panicking on surprises.

func stringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func mapParam(params map[string]any, key string) map[string]any {
	if v, ok := params[key].(map[string]any); ok {
		return v
	}
	return nil
}

func listParam(params map[string]any, key string) []any {
	if v, ok := params[key].([]any); ok {
		return v
	}
	return nil
}

func boolParam(params map[string]any, key string) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return false
}

func floatParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func floatParamDefault(params map[string]any, key string, fallback float64) float64 {
	if v, ok := floatParam(params, key); ok {
		return v
	}
	return fallback
}

func intParamDefault(params map[string]any, key string, fallback int) int {
	if v, ok := floatParam(params, key); ok {
		return int(v)
	}
	return fallback
}
