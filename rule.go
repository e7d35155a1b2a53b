package recordauth

import (
	"fmt"
	"sort"
	"strings"
)

// ============================================================================
// POLICY RULE MODEL
// ============================================================================

// Rule is one node of a policy rule tree. The set of implementations is
// closed: AlwaysRule, NeverRule, AndRule, OrRule, PredicateRule and
// UserConditionRule. Trees are immutable once parsed; resolution produces a
// new tree rather than mutating in place.
type Rule interface {
	String() string
	// ruleNode limits implementations to this package.
	ruleNode()
}

// AlwaysRule permits unconditionally. It is the parse of the empty rule
// object and the neutral element of AndRule.
type AlwaysRule struct{}

func (AlwaysRule) ruleNode()      {}
func (AlwaysRule) String() string { return "true" }

// NeverRule denies unconditionally. The grammar cannot spell it directly;
// it appears when a user condition resolves to false and as the deny-all
// stand-in for record types with no declared rule.
type NeverRule struct{}

func (NeverRule) ruleNode()      {}
func (NeverRule) String() string { return "false" }

// AndRule permits iff all children permit. An empty child list permits
// (vacuous truth).
type AndRule struct {
	Children []Rule
}

func (AndRule) ruleNode() {}

func (r AndRule) String() string { return joinChildren(r.Children, " AND ", "true") }

// OrRule permits iff any child permits. An empty child list denies: the
// absence of any clause must never default-permit.
type OrRule struct {
	Children []Rule
}

func (OrRule) ruleNode() {}

func (r OrRule) String() string { return joinChildren(r.Children, " OR ", "false") }

// Value is the right-hand side of a PredicateRule: either a concrete
// literal or an identity template such as "{{user.email}}". Template names
// the identity attribute; it is empty once the rule has been resolved.
type Value struct {
	Literal  any
	Template string
}

// IsTemplate reports whether the value still carries an unresolved
// identity placeholder.
func (v Value) IsTemplate() bool { return v.Template != "" }

func (v Value) String() string {
	if v.IsTemplate() {
		return "{{user." + v.Template + "}}"
	}
	if v.Literal == nil {
		return "null"
	}
	if s, ok := v.Literal.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(v.Literal)
}

// PredicateRule permits when the record's field equals the value.
type PredicateRule struct {
	Field string
	Value Value
}

func (PredicateRule) ruleNode() {}

func (r PredicateRule) String() string {
	return fmt.Sprintf("record.%s == %s", r.Field, r.Value)
}

// UserConditionRule permits when the caller's identity attribute equals the
// literal. It never inspects the record, so resolution folds it into a
// constant before evaluation or compilation.
type UserConditionRule struct {
	Field string
	Value any
}

func (UserConditionRule) ruleNode() {}

func (r UserConditionRule) String() string {
	return fmt.Sprintf("user.%s == %s", r.Field, Value{Literal: r.Value})
}

func joinChildren(children []Rule, sep, empty string) string {
	if len(children) == 0 {
		return empty
	}
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Operation selects which of a record type's two rule trees applies.
type Operation string

const (
	OpRead  Operation = "read"
	OpWrite Operation = "write"
)

// RecordTypePolicy holds the two rule trees every record type must declare.
// A nil tree means deny-all for that operation, not permit-all.
type RecordTypePolicy struct {
	Read  Rule
	Write Rule
}

// Rule returns the tree for op, substituting deny-all for a missing tree.
func (p RecordTypePolicy) Rule(op Operation) Rule {
	var r Rule
	switch op {
	case OpRead:
		r = p.Read
	case OpWrite:
		r = p.Write
	}
	if r == nil {
		return NeverRule{}
	}
	return r
}

// RecordTypes returns the sorted record type names of a policy map, mainly
// for deterministic logging and CLI output.
func RecordTypes(policies map[string]RecordTypePolicy) []string {
	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
