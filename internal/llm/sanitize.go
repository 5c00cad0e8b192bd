package llm

import "regexp"

var reDataImage = regexp.MustCompile(`(?is)\bdata:image/[a-z0-9+.-]+;base64,[a-z0-9+/=]+`)

// RedactMedia walks a JSON-like value and replaces inline image payloads
// with a marker. Figure sources are data: URIs that can run to megabytes;
// they must never be echoed into a prompt.
func RedactMedia(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = RedactMedia(vv)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = RedactMedia(vv)
		}
		return out
	case string:
		return RedactMediaString(x)
	default:
		return v
	}
}

// RedactMediaString replaces any embedded base64 image payload in s.
func RedactMediaString(s string) string {
	return reDataImage.ReplaceAllString(s, "data:image/[REDACTED]")
}
