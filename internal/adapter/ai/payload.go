package ai

import (
	"strconv"
	"strings"
)

// Payload is a decoded JSON object from the model. Nothing about its shape is
// guaranteed, so every accessor reports presence alongside the value.
type Payload map[string]any

// Object returns the nested object at key.
func (p Payload) Object(key string) (Payload, bool) {
	m, ok := p[key].(map[string]any)
	if !ok || m == nil {
		return nil, false
	}
	return Payload(m), true
}

// String returns the string at key. Empty and whitespace-only strings count as absent.
func (p Payload) String(key string) (string, bool) {
	s, ok := p[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// StringOr returns the string at key, or def when absent.
func (p Payload) StringOr(key, def string) string {
	if s, ok := p.String(key); ok {
		return s
	}
	return def
}

// Number returns the number at key. Numeric strings such as "6.5" are accepted.
func (p Payload) Number(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Int returns the number at key truncated to an int.
func (p Payload) Int(key string) (int, bool) {
	f, ok := p.Number(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Bool returns the boolean at key.
func (p Payload) Bool(key string) (bool, bool) {
	b, ok := p[key].(bool)
	return b, ok
}

// Objects returns the object elements of the array at key, skipping anything else.
func (p Payload) Objects(key string) []Payload {
	arr, ok := p[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Payload, 0, len(arr))
	for _, el := range arr {
		if m, ok := el.(map[string]any); ok && m != nil {
			out = append(out, Payload(m))
		}
	}
	return out
}
