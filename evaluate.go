package recordauth

// ============================================================================
// POLICY EVALUATOR
// ============================================================================

// Record is one concrete record as handed over by the storage layer.
// A field missing from the map is treated as null and compared normally,
// so a {tenant_id: null} predicate intentionally matches records that
// carry no tenant.
type Record map[string]any

// Evaluate walks the bound tree against one record and reports
// permit/deny. And/Or short-circuit; children contain no side effects, so
// evaluation order cannot change the outcome.
func (rr ResolvedRule) Evaluate(rec Record) bool {
	if rr.rule == nil {
		return false
	}
	return evalNode(rr.rule, rec)
}

func evalNode(rule Rule, rec Record) bool {
	switch r := rule.(type) {
	case AlwaysRule:
		return true
	case NeverRule:
		return false
	case AndRule:
		for _, c := range r.Children {
			if !evalNode(c, rec) {
				return false
			}
		}
		return true
	case OrRule:
		for _, c := range r.Children {
			if evalNode(c, rec) {
				return true
			}
		}
		return false
	case PredicateRule:
		return literalEqual(rec[r.Field], r.Value.Literal)
	}
	// UserConditionRule cannot survive resolution; anything else denies.
	return false
}

// literalEqual compares a record value against a rule literal. Numeric
// values compare across int/float representations because records arrive
// from JSON decoders and stores that disagree on number types.
func literalEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	return aok && bok && af == bf
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
