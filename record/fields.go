package record

import "strings"

// Field is one key/value pair from a flattened field string.
type Field struct {
	Key   string
	Value string
}

// ParseFields splits a "key: value, key: value" string into pairs.
// Segments are split on commas and then on the first colon; both halves are
// trimmed. Segments that are empty or carry no colon are dropped.
func ParseFields(s string) []Field {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]Field, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		out = append(out, Field{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}
	return out
}
