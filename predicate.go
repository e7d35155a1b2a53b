package recordauth

// ============================================================================
// QUERY PREDICATES
// ============================================================================

// Predicate is a storage-layer query filter. The engine only ever emits
// $and, $or, $ne, $regex (+$options), $all, $in, $lt and direct field
// equality; the storage executor consumes it as-is.
type Predicate map[string]any

// MatchAll is the neutral always-true clause: the empty filter.
func MatchAll() Predicate { return Predicate{} }

// MatchNone is the neutral never-matches clause. $in over an empty set
// matches no record, which keeps the predicate inside the allowed
// operator set.
func MatchNone() Predicate {
	return Predicate{"_id": map[string]any{"$in": []any{}}}
}

// IsMatchAll reports whether the predicate places no constraint at all.
func (p Predicate) IsMatchAll() bool { return len(p) == 0 }

// IsMatchNone reports whether the predicate is the canonical
// never-matches clause.
func (p Predicate) IsMatchNone() bool {
	if len(p) != 1 {
		return false
	}
	op, ok := p["_id"].(map[string]any)
	if !ok || len(op) != 1 {
		return false
	}
	in, ok := op["$in"].([]any)
	return ok && len(in) == 0
}

// FieldEq matches records whose field equals v (null included).
func FieldEq(field string, v any) Predicate {
	return Predicate{field: v}
}

// FieldNe matches records whose field differs from v.
func FieldNe(field string, v any) Predicate {
	return Predicate{field: map[string]any{"$ne": v}}
}

// FieldIn matches records whose field equals any of vs.
func FieldIn(field string, vs ...any) Predicate {
	return Predicate{field: map[string]any{"$in": vs}}
}

// FieldAll matches records whose array field contains every one of vs.
func FieldAll(field string, vs ...any) Predicate {
	return Predicate{field: map[string]any{"$all": vs}}
}

// FieldLt matches records whose field is strictly less than v.
func FieldLt(field string, v any) Predicate {
	return Predicate{field: map[string]any{"$lt": v}}
}

// FieldRegex matches records whose string field matches pattern. Options
// follow the storage layer's $options syntax ("i" for case-insensitive).
func FieldRegex(field, pattern, options string) Predicate {
	clause := map[string]any{"$regex": pattern}
	if options != "" {
		clause["$options"] = options
	}
	return Predicate{field: clause}
}

// And intersects predicates. Neutral clauses are dropped, a never-matches
// member collapses the whole conjunction, and a single survivor is
// returned unwrapped. The simplifications preserve the matched set
// exactly.
func And(ps ...Predicate) Predicate {
	kept := make([]any, 0, len(ps))
	for _, p := range ps {
		if p == nil || p.IsMatchAll() {
			continue
		}
		if p.IsMatchNone() {
			return MatchNone()
		}
		kept = append(kept, map[string]any(p))
	}
	switch len(kept) {
	case 0:
		return MatchAll()
	case 1:
		return Predicate(kept[0].(map[string]any))
	}
	return Predicate{"$and": kept}
}

// Or unions predicates. Never-matches clauses are dropped, an always-true
// member collapses the whole disjunction, and an empty union matches
// nothing rather than everything.
func Or(ps ...Predicate) Predicate {
	kept := make([]any, 0, len(ps))
	for _, p := range ps {
		if p == nil || p.IsMatchNone() {
			continue
		}
		if p.IsMatchAll() {
			return MatchAll()
		}
		kept = append(kept, map[string]any(p))
	}
	switch len(kept) {
	case 0:
		return MatchNone()
	case 1:
		return Predicate(kept[0].(map[string]any))
	}
	return Predicate{"$or": kept}
}

// Narrow intersects caller-supplied refinements (an "exclude archived"
// toggle, a name search) into p. Refinements can only shrink the matched
// set; there is no widening counterpart on purpose.
func (p Predicate) Narrow(extra ...Predicate) Predicate {
	return And(append([]Predicate{p}, extra...)...)
}
