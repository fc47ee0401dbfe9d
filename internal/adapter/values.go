package adapter

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cast"
)

// stringValues coerces an attribute value into its directory form. Nil,
// empty strings and empty slices yield no values.
func stringValues(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if val == "" {
			return nil, nil
		}
		return []string{val}, nil
	case []string:
		return slices.DeleteFunc(slices.Clone(val), func(s string) bool { return s == "" }), nil
	case []byte:
		if len(val) == 0 {
			return nil, nil
		}
		return []string{string(val)}, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, err := cast.ToStringE(item)
			if err != nil {
				return nil, err
			}
			if s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, err
	}
	if s == "" {
		return nil, nil
	}
	return []string{s}, nil
}

// encodeAttributes converts resource attributes into directory values,
// dropping empty ones.
func encodeAttributes(attrs map[string]any) (map[string][]string, error) {
	out := make(map[string][]string, len(attrs))
	for name, v := range attrs {
		values, err := stringValues(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		if len(values) > 0 {
			out[name] = values
		}
	}
	return out, nil
}

// hasKeyFold reports whether m has key name, ignoring case.
func hasKeyFold[V any](m map[string]V, name string) bool {
	for k := range m {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
