// Package model holds the permissive, alias-keyed schemas for the
// upstream wire payloads: auth payloads, sites, panels, and device
// variants. Decoding never fails on an unknown key; it only populates the
// fields the schema declares and leaves everything else in the raw map.
package model

import "strings"

// str reads the first present key (in order) as a string.
func str(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

func strPtr(raw map[string]any, keys ...string) *string {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if s, ok := v.(string); ok {
				return &s
			}
		}
	}
	return nil
}

func boolPtr(raw map[string]any, keys ...string) *bool {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if b, ok := v.(bool); ok {
				return &b
			}
		}
	}
	return nil
}

func boolVal(raw map[string]any, def bool, keys ...string) bool {
	if p := boolPtr(raw, keys...); p != nil {
		return *p
	}
	return def
}

func intPtr(raw map[string]any, keys ...string) *int {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			switch n := v.(type) {
			case float64:
				i := int(n)
				return &i
			case int:
				return &n
			}
		}
	}
	return nil
}

func intVal(raw map[string]any, def int, keys ...string) int {
	if p := intPtr(raw, keys...); p != nil {
		return *p
	}
	return def
}

func anyVal(raw map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// listOf coerces a key's value into a slice of map[string]any, treating a
// single map value as a singleton list (the wire format sometimes omits
// the array wrapper when there is exactly one element).
func listOf(raw map[string]any, keys ...string) []map[string]any {
	v, ok := anyVal(raw, keys...)
	if !ok {
		return nil
	}
	switch x := v.(type) {
	case []any:
		out := make([]map[string]any, 0, len(x))
		for _, item := range x {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		return []map[string]any{x}
	default:
		return nil
	}
}

func mapOf(raw map[string]any, keys ...string) map[string]any {
	v, ok := anyVal(raw, keys...)
	if !ok {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}

// hasOnlyKeys reports whether raw's key set equals exactly the given set.
// The camera push classifier in package registry uses its own copy of
// this check.
func hasOnlyKeys(raw map[string]any, keys ...string) bool {
	if len(raw) != len(keys) {
		return false
	}
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	for k := range raw {
		if _, ok := want[k]; !ok {
			return false
		}
	}
	return true
}

func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
