package recordauth

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// ============================================================================
// RULE GRAMMAR
// ============================================================================

// The persisted grammar is a JSON object, one of:
//
//	{}                                  unconditional permit
//	{"$and": [rule, ...]}               all children must permit
//	{"$or":  [rule, ...]}               any child must permit
//	{"<field>": <literal-or-template>}  record field equality
//	{"user_condition": {"<field>": <literal>}}
//
// Templates are exactly the two-brace form "{{user.<attr>}}" with <attr>
// one of tenant_id or email. Anything else is a configuration error at
// load time, never a runtime fallback.

var templateRe = regexp.MustCompile(`^\{\{user\.([a-z_]+)\}\}$`)

var templateAttrs = map[string]bool{
	"tenant_id": true,
	"email":     true,
}

var userConditionFields = map[string]bool{
	"role":          true,
	"employee_role": true,
	"tenant_id":     true,
	"email":         true,
}

// ParseRule decodes and validates one rule tree from its persisted JSON
// form. Any unrecognized shape fails with ErrMalformedRule; unknown keys
// are never interpreted leniently.
func ParseRule(data []byte) (Rule, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRule, err)
	}
	return ParseRuleValue(raw)
}

// ParseRuleValue validates an already-decoded rule tree (from JSON or YAML
// config). The returned tree is immutable.
func ParseRuleValue(raw any) (Rule, error) {
	obj, ok := asStringMap(raw)
	if !ok {
		return nil, fmt.Errorf("%w: rule must be an object, got %T", ErrMalformedRule, raw)
	}
	if len(obj) == 0 {
		return AlwaysRule{}, nil
	}
	if len(obj) > 1 {
		return nil, fmt.Errorf("%w: rule object must have exactly one key, got %d", ErrMalformedRule, len(obj))
	}
	for key, val := range obj {
		switch key {
		case "$and":
			children, err := parseChildren(key, val)
			if err != nil {
				return nil, err
			}
			return AndRule{Children: children}, nil
		case "$or":
			children, err := parseChildren(key, val)
			if err != nil {
				return nil, err
			}
			return OrRule{Children: children}, nil
		case "user_condition":
			return parseUserCondition(val)
		default:
			if len(key) > 0 && key[0] == '$' {
				return nil, fmt.Errorf("%w: unknown operator %q", ErrMalformedRule, key)
			}
			value, err := parsePredicateValue(key, val)
			if err != nil {
				return nil, err
			}
			return PredicateRule{Field: key, Value: value}, nil
		}
	}
	// unreachable: the map has exactly one key
	return nil, ErrMalformedRule
}

func parseChildren(op string, val any) ([]Rule, error) {
	list, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s expects an array, got %T", ErrMalformedRule, op, val)
	}
	children := make([]Rule, 0, len(list))
	for i, item := range list {
		child, err := ParseRuleValue(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", op, i, err)
		}
		children = append(children, child)
	}
	return children, nil
}

func parseUserCondition(val any) (Rule, error) {
	obj, ok := asStringMap(val)
	if !ok || len(obj) != 1 {
		return nil, fmt.Errorf("%w: user_condition expects an object with exactly one field", ErrMalformedRule)
	}
	for field, lit := range obj {
		if !userConditionFields[field] {
			return nil, fmt.Errorf("%w: user_condition field %q is not an identity attribute", ErrMalformedRule, field)
		}
		lit, err := normalizeLiteral(lit)
		if err != nil {
			return nil, fmt.Errorf("user_condition.%s: %w", field, err)
		}
		if s, ok := lit.(string); ok && templateRe.MatchString(s) {
			return nil, fmt.Errorf("%w: user_condition value must be a literal, got template %q", ErrMalformedRule, s)
		}
		return UserConditionRule{Field: field, Value: lit}, nil
	}
	return nil, ErrMalformedRule
}

func parsePredicateValue(field string, val any) (Value, error) {
	if s, ok := val.(string); ok {
		if m := templateRe.FindStringSubmatch(s); m != nil {
			attr := m[1]
			if !templateAttrs[attr] {
				return Value{}, fmt.Errorf("%w: unknown template attribute %q in field %q", ErrMalformedRule, attr, field)
			}
			return Value{Template: attr}, nil
		}
		return Value{Literal: s}, nil
	}
	lit, err := normalizeLiteral(val)
	if err != nil {
		return Value{}, fmt.Errorf("field %q: %w", field, err)
	}
	return Value{Literal: lit}, nil
}

// normalizeLiteral restricts literals to scalars and folds the integer
// types YAML produces into float64 so literals compare uniformly with
// JSON-decoded record values.
func normalizeLiteral(v any) (any, error) {
	switch n := v.(type) {
	case nil, string, bool, float64:
		return v, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	}
	return nil, fmt.Errorf("%w: literal must be a scalar, got %T", ErrMalformedRule, v)
}

// asStringMap accepts both JSON-decoded and YAML-decoded objects.
func asStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}
