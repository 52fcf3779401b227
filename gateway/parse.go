package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON implements spec.md §4.1 step 1-2: strip fences, then locate
// the JSON payload by bracket position rather than by regex, since the
// providers routinely wrap valid JSON in commentary or markdown fences.
func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	startArr := strings.IndexByte(s, '[')
	startObj := strings.IndexByte(s, '{')
	start := firstNonNegative(startArr, startObj)
	if start < 0 {
		return "", fmt.Errorf("%w: no JSON start token found", errParseError)
	}

	endArr := strings.LastIndexByte(s, ']')
	endObj := strings.LastIndexByte(s, '}')
	end := lastNonNegative(endArr, endObj)
	if end < 0 || end < start {
		return "", fmt.Errorf("%w: no JSON end token found", errParseError)
	}

	return s[start : end+1], nil
}

func firstNonNegative(a, b int) int {
	switch {
	case a < 0:
		return b
	case b < 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}

func lastNonNegative(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// decodeArray implements spec.md §4.1 steps 3-4: decode as a generic value,
// then accept either a bare array or one of the common envelope keys.
func decodeArray(jsonSlice string) ([]map[string]interface{}, error) {
	var generic interface{}
	if err := json.Unmarshal([]byte(jsonSlice), &generic); err != nil {
		return nil, fmt.Errorf("%w: %v", errParseError, err)
	}

	switch v := generic.(type) {
	case []interface{}:
		return toMapSlice(v)
	case map[string]interface{}:
		for _, key := range []string{"questions", "data", "items", "quiz"} {
			if arr, ok := v[key].([]interface{}); ok {
				return toMapSlice(arr)
			}
		}
		return nil, fmt.Errorf("%w: no array found under questions/data/items/quiz", errParseError)
	default:
		return nil, fmt.Errorf("%w: decoded value is neither array nor object", errParseError)
	}
}

func toMapSlice(items []interface{}) ([]map[string]interface{}, error) {
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
