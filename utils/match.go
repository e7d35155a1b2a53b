package utils

// MatchName checks a record type name against a pattern. Patterns may
// include the wildcard '*', which matches any sequence of characters
// (including none). A pattern without wildcards must match exactly.
func MatchName(name, pattern string) bool {
	nIdx, pIdx := 0, 0
	star, mark := -1, 0
	for nIdx < len(name) {
		switch {
		case pIdx < len(pattern) && pattern[pIdx] == '*':
			star, mark = pIdx, nIdx
			pIdx++
		case pIdx < len(pattern) && pattern[pIdx] == name[nIdx]:
			nIdx++
			pIdx++
		case star >= 0:
			// backtrack: let the last '*' swallow one more character
			mark++
			nIdx = mark
			pIdx = star + 1
		default:
			return false
		}
	}
	for pIdx < len(pattern) && pattern[pIdx] == '*' {
		pIdx++
	}
	return pIdx == len(pattern)
}
