package recordauth

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// ============================================================================
// TENANT IDENTIFIER GRAMMAR
// ============================================================================

// Deployments have shipped two tenant identifier forms at different times:
// a 24-character lowercase hex string and a canonical UUID. Which forms a
// deployment accepts is explicit configuration, never a guess.

var hex24Re = regexp.MustCompile(`^[0-9a-f]{24}$`)

// TenantIDGrammar selects the accepted tenant identifier forms.
type TenantIDGrammar struct {
	Hex24 bool
	UUID  bool
}

// ParseTenantIDGrammar maps the config value ("hex24", "uuid" or "both")
// to a grammar. The empty string defaults to both forms so that a fresh
// deployment accepts identifiers minted under either convention.
func ParseTenantIDGrammar(s string) (TenantIDGrammar, error) {
	switch s {
	case "hex24":
		return TenantIDGrammar{Hex24: true}, nil
	case "uuid":
		return TenantIDGrammar{UUID: true}, nil
	case "both", "":
		return TenantIDGrammar{Hex24: true, UUID: true}, nil
	}
	return TenantIDGrammar{}, fmt.Errorf("unknown tenant_id_format %q (want hex24, uuid or both)", s)
}

// Valid reports whether id is a well-formed tenant identifier under this
// grammar. The canonical UUID form is the 8-4-4-4-12 hex grouping only;
// braced and URN spellings are rejected.
func (g TenantIDGrammar) Valid(id string) bool {
	if g.Hex24 && hex24Re.MatchString(id) {
		return true
	}
	if g.UUID && len(id) == 36 {
		if _, err := uuid.Parse(id); err == nil {
			return true
		}
	}
	return false
}
