package recordauth

import "fmt"

// ============================================================================
// TEMPLATE RESOLVER
// ============================================================================

// ResolvedRule is a rule tree bound to one caller. It contains no
// templates and no user conditions: both were substituted or folded during
// resolution, so a single resolved tree serves the evaluator and the
// filter compiler identically for the same request.
type ResolvedRule struct {
	rule Rule
}

// Rule exposes the underlying bound tree, mainly for logging.
func (rr ResolvedRule) Rule() Rule { return rr.rule }

func (rr ResolvedRule) String() string {
	if rr.rule == nil {
		return "false"
	}
	return rr.rule.String()
}

// DenyAll is the resolved rule that permits nothing. It is the mandatory
// fallback whenever resolution fails.
func DenyAll() ResolvedRule { return ResolvedRule{rule: NeverRule{}} }

// Resolve binds a rule tree to one caller's identity. Every template leaf
// is replaced with the matching identity attribute and every user
// condition is folded to a constant. Resolution is side-effect-free: the
// same inputs always produce the same output.
//
// A placeholder that cannot be filled for this identity fails the whole
// resolution with ErrUnresolvedTemplate; substituting an empty string
// could accidentally equal a real field value. Callers must treat the
// failure as deny-all.
func Resolve(rule Rule, id Identity) (ResolvedRule, error) {
	if rule == nil {
		return DenyAll(), nil
	}
	bound, err := resolveNode(rule, id)
	if err != nil {
		return DenyAll(), err
	}
	return ResolvedRule{rule: bound}, nil
}

func resolveNode(rule Rule, id Identity) (Rule, error) {
	switch r := rule.(type) {
	case AlwaysRule, NeverRule:
		return r, nil
	case AndRule:
		children, err := resolveChildren(r.Children, id)
		if err != nil {
			return nil, err
		}
		return AndRule{Children: children}, nil
	case OrRule:
		children, err := resolveChildren(r.Children, id)
		if err != nil {
			return nil, err
		}
		return OrRule{Children: children}, nil
	case PredicateRule:
		if !r.Value.IsTemplate() {
			return r, nil
		}
		v, ok := id.attr(r.Value.Template)
		if !ok {
			return nil, fmt.Errorf("%w: {{user.%s}} has no value for caller %q", ErrUnresolvedTemplate, r.Value.Template, id.Email)
		}
		return PredicateRule{Field: r.Field, Value: Value{Literal: v}}, nil
	case UserConditionRule:
		// Identity is bound here, once. Evaluation and compilation both
		// see the folded constant, so neither can observe identity
		// changing mid-request.
		v, ok := id.conditionAttr(r.Field)
		if !ok {
			return nil, fmt.Errorf("%w: user_condition field %q has no value for caller %q", ErrUnresolvedTemplate, r.Field, id.Email)
		}
		if literalEqual(v, r.Value) {
			return AlwaysRule{}, nil
		}
		return NeverRule{}, nil
	}
	return nil, fmt.Errorf("%w: unknown rule node %T", ErrMalformedRule, rule)
}

func resolveChildren(children []Rule, id Identity) ([]Rule, error) {
	out := make([]Rule, len(children))
	for i, c := range children {
		bound, err := resolveNode(c, id)
		if err != nil {
			return nil, err
		}
		out[i] = bound
	}
	return out, nil
}
