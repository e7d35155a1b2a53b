package recordauth

import (
	"fmt"
	"sync"

	"github.com/andreibyf/aishacrm-2-sub006/utils"
)

// ============================================================================
// POLICY REGISTRY & NAMED TEMPLATES
// ============================================================================

// Four ownership patterns recur across nearly every record type. They are
// exposed as named builders so record-type configs can reference them
// ("@admin-only") instead of repeating near-identical trees.

// AdminOnly permits admins and superadmins regardless of the record.
func AdminOnly() Rule {
	return OrRule{Children: []Rule{
		UserConditionRule{Field: "role", Value: string(RoleAdmin)},
		UserConditionRule{Field: "role", Value: string(RoleSuperAdmin)},
	}}
}

// TenantManagerOrAbove permits admins, and within the caller's own tenant
// anyone whose employee_role is manager or absent.
func TenantManagerOrAbove() Rule {
	return OrRule{Children: []Rule{
		AdminOnly(),
		AndRule{Children: []Rule{
			PredicateRule{Field: "tenant_id", Value: Value{Template: "tenant_id"}},
			OrRule{Children: []Rule{
				UserConditionRule{Field: "employee_role", Value: string(EmployeeRoleManager)},
				UserConditionRule{Field: "employee_role", Value: nil},
			}},
		}},
	}}
}

// TenantSelfOrAssigned extends TenantManagerOrAbove so that individual
// contributors reach records they created or were assigned, still inside
// their own tenant.
func TenantSelfOrAssigned() Rule {
	return OrRule{Children: []Rule{
		AdminOnly(),
		AndRule{Children: []Rule{
			PredicateRule{Field: "tenant_id", Value: Value{Template: "tenant_id"}},
			OrRule{Children: []Rule{
				UserConditionRule{Field: "employee_role", Value: string(EmployeeRoleManager)},
				UserConditionRule{Field: "employee_role", Value: nil},
			}},
		}},
		AndRule{Children: []Rule{
			PredicateRule{Field: "tenant_id", Value: Value{Template: "tenant_id"}},
			UserConditionRule{Field: "employee_role", Value: string(EmployeeRoleEmployee)},
			OrRule{Children: []Rule{
				PredicateRule{Field: "created_by", Value: Value{Template: "email"}},
				PredicateRule{Field: "assigned_to", Value: Value{Template: "email"}},
			}},
		}},
	}}
}

// PublicRead permits unconditionally. Reserved for record types whose
// reads are deliberately open; writes still need their own tree.
func PublicRead() Rule {
	return AlwaysRule{}
}

var namedTemplates = map[string]func() Rule{
	"admin-only":              AdminOnly,
	"tenant-manager-or-above": TenantManagerOrAbove,
	"tenant-self-or-assigned": TenantSelfOrAssigned,
	"public-read":             PublicRead,
}

// TemplateRule returns the named rule template. Unknown names are a
// configuration error.
func TemplateRule(name string) (Rule, error) {
	fn, ok := namedTemplates[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown rule template %q", ErrMalformedRule, name)
	}
	return fn(), nil
}

// Registry maps record types to their read/write rule trees. Lookups for
// unregistered types deny.
type Registry struct {
	mu       sync.RWMutex
	exact    map[string]RecordTypePolicy
	patterns []patternPolicy
}

type patternPolicy struct {
	pattern string
	policy  RecordTypePolicy
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{exact: make(map[string]RecordTypePolicy)}
}

// Register binds a policy to one record type.
func (r *Registry) Register(recordType string, p RecordTypePolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact[recordType] = p
}

// RegisterPattern binds a policy to every record type matching a '*'
// wildcard pattern ("activity*"). Exact registrations win over patterns;
// among patterns the first registered match wins.
func (r *Registry) RegisterPattern(pattern string, p RecordTypePolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, patternPolicy{pattern: pattern, policy: p})
}

// Lookup returns the policy for a record type. The second result reports
// whether any registration matched; callers that ignore it still get
// deny-all trees.
func (r *Registry) Lookup(recordType string) (RecordTypePolicy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.exact[recordType]; ok {
		return p, true
	}
	for _, pp := range r.patterns {
		if utils.MatchName(recordType, pp.pattern) {
			return pp.policy, true
		}
	}
	return RecordTypePolicy{}, false
}

// Rule returns the bound tree for one record type and operation, deny-all
// when nothing matches or the matched policy omitted the tree.
func (r *Registry) Rule(recordType string, op Operation) Rule {
	p, ok := r.Lookup(recordType)
	if !ok {
		return NeverRule{}
	}
	return p.Rule(op)
}

// Types returns the exactly-registered record type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RecordTypes(r.exact)
}
