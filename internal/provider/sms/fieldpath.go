package sms

import (
	"strconv"
	"strings"
)

// extractField walks a decoded JSON value by a dot-separated path
// ("data.messages.0.id") and returns the value found. Numeric segments
// index into arrays. This deliberately replaces any notion of evaluating
// vendor-supplied expressions: paths can only read named fields.
func extractField(data interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}
	cur := data
	for _, seg := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case map[string]interface{}:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []interface{}:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			cur = v[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// fieldString renders an extracted value as a comparable string.
func fieldString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		// JSON numbers decode as float64; render integers without a point.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return ""
	}
}

// fieldMatches applies one of the whitelisted comparison predicates.
// op is "equals" (default), "exists", or "contains".
func fieldMatches(data interface{}, path, op, want string) bool {
	v, ok := extractField(data, path)
	switch op {
	case "exists":
		return ok
	case "contains":
		return ok && strings.Contains(fieldString(v), want)
	default:
		return ok && fieldString(v) == want
	}
}
