package actionregistry

import (
	"fmt"
	"sort"
)

// Validate checks params against the named action's parameter schema and
// returns an ordered list of violation strings: missing required fields,
// type mismatches, and unknown parameter names (spec.md §4.5). A nil or
// empty slice means params are valid. An unknown action name yields a
// single violation rather than an error, matching the spec's framing of
// validate as a pure description of what's wrong with the call.
func (r *Registry) Validate(name string, params map[string]any) []string {
	action, ok := r.Get(name)
	if !ok {
		return []string{fmt.Sprintf("unknown action %q", name)}
	}
	return validateParams(action.Parameters, params)
}

func validateParams(spec map[string]ParamSpec, params map[string]any) []string {
	var violations []string

	names := make([]string, 0, len(spec))
	for n := range spec {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, name := range names {
		ps := spec[name]
		v, present := params[name]
		if !present {
			if ps.Required {
				violations = append(violations, fmt.Sprintf("missing required parameter %q", name))
			}
			continue
		}
		if !typeMatches(ps.Type, v) {
			violations = append(violations, fmt.Sprintf("parameter %q: expected %s, got %s", name, ps.Type, describeType(v)))
		}
	}

	unknown := make([]string, 0)
	for name := range params {
		if _, known := spec[name]; !known {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		violations = append(violations, fmt.Sprintf("unknown parameter %q", name))
	}

	return violations
}

// typeMatches reports whether v's runtime type is compatible with declared
// ParamType t. Numbers are accepted as float64 or int (the decoder used by a
// caller may produce either); object vs array is distinguished explicitly,
// since both are "structured" but JSON-decode to different Go types.
func typeMatches(t ParamType, v any) bool {
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeNumber:
		switch v.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeObject:
		_, ok := v.(map[string]any)
		return ok
	case TypeArray:
		_, ok := v.([]any)
		return ok
	default:
		return false
	}
}

func describeType(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64, float32, int, int32, int64:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
