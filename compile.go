package recordauth

// ============================================================================
// FILTER COMPILER
// ============================================================================

// Compile translates the bound tree into a storage-layer predicate. The
// translation is structure-preserving: And becomes $and, Or becomes $or,
// a predicate becomes a field-equality clause. User conditions were
// already folded to constants at resolve time, so they contribute the
// neutral match-all or match-none clause here.
//
// For any record set, the compiled predicate matches exactly the records
// for which Evaluate returns true. List endpoints rely on that
// equivalence: data never leaves the store unfiltered and is never
// re-checked per record after fetch.
func (rr ResolvedRule) Compile() Predicate {
	if rr.rule == nil {
		return MatchNone()
	}
	return compileNode(rr.rule)
}

func compileNode(rule Rule) Predicate {
	switch r := rule.(type) {
	case AlwaysRule:
		return MatchAll()
	case NeverRule:
		return MatchNone()
	case AndRule:
		return And(compileChildren(r.Children)...)
	case OrRule:
		return Or(compileChildren(r.Children)...)
	case PredicateRule:
		return FieldEq(r.Field, r.Value.Literal)
	}
	// A user condition or unknown node reaching the compiler means the
	// tree was never resolved. Matching nothing is the only safe output.
	return MatchNone()
}

func compileChildren(children []Rule) []Predicate {
	out := make([]Predicate, len(children))
	for i, c := range children {
		out[i] = compileNode(c)
	}
	return out
}

// CompileForList intersects the effective scope into the compiled policy
// predicate. The scope is never an optional add-on: every list predicate
// carries the tenant constraint and the ownership narrowing, and a scope
// that matches nothing collapses the whole predicate to match nothing.
func CompileForList(rr ResolvedRule, scope EffectiveScope) Predicate {
	return And(scope.Predicate(), rr.Compile())
}
