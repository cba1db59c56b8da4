package snapshot

import "strings"

// sensitiveMarkers are substrings that flag a key as sensitive. Matching is
// case-insensitive and defensive: snapshot payloads are opaque, so anything
// that looks like a credential is stripped before serialization.
var sensitiveMarkers = []string{"password", "token", "secret", "apikey", "api_key", "credential"}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, marker := range sensitiveMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return false
}

// Sanitize returns a deep copy of value with sensitive-looking keys removed
// at every nesting level. The input is never modified.
func Sanitize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, nested := range v {
			if isSensitiveKey(k) {
				continue
			}
			out[k] = Sanitize(nested)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, nested := range v {
			out[i] = Sanitize(nested)
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, nested := range v {
			out[i] = Sanitize(nested)
		}
		return out
	default:
		return value
	}
}
