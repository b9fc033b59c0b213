package registry

import "reflect"

// Payload is the opaque, JSON-shaped content of an instance or the default
// content of a definition. A nil Payload encodes as JSON null.
type Payload map[string]any

// Clone returns a deep copy of p. Nested maps and slices are copied;
// scalars are shared.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	return cloneValue(map[string]any(p)).(map[string]any)
}

// Equal reports whether p and o are structurally equal. A nil payload and an
// empty payload are different, matching their JSON encodings.
func (p Payload) Equal(o Payload) bool {
	if p == nil || o == nil {
		return p == nil && o == nil
	}
	return reflect.DeepEqual(map[string]any(p), map[string]any(o))
}

// String returns the string field key, or "" when absent or not a string.
func (p Payload) String(key string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case Payload:
		return Payload(cloneValue(map[string]any(t)).(map[string]any))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
