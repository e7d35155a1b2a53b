package recordauth

// ============================================================================
// SCOPE RESOLVER
// ============================================================================

// OwnershipMode is the ownership narrowing applied on top of the tenant
// constraint.
type OwnershipMode string

const (
	// OwnershipUnrestricted applies no narrowing beyond the tenant.
	OwnershipUnrestricted OwnershipMode = "unrestricted"
	// OwnershipSelfOrAssigned restricts to records the caller created or
	// was assigned.
	OwnershipSelfOrAssigned OwnershipMode = "self_or_assigned"
	// OwnershipExplicitEmployee restricts to records a specific employee
	// created or was assigned (administrator drill-down).
	OwnershipExplicitEmployee OwnershipMode = "explicit_employee"
	// OwnershipUnassignedOnly restricts to records with no assignee.
	OwnershipUnassignedOnly OwnershipMode = "unassigned_only"
)

// EmployeeScopeUnassigned is the employee override value selecting
// records nobody is assigned to.
const EmployeeScopeUnassigned = "unassigned"

// AllTenants is the tenant override value that lifts the tenant
// constraint entirely. Only a superadmin may hold it; for everyone else
// it is a privilege violation and the caller's own tenant applies.
const AllTenants = "*"

// EffectiveScope is the per-request visibility boundary: the effective
// tenant plus the ownership narrowing. It is recomputed from the identity
// and the session overrides on every request and never persisted, so it
// cannot go stale.
type EffectiveScope struct {
	TenantID   string
	Mode       OwnershipMode
	Employee   string // set for self_or_assigned and explicit_employee
	AllTenants bool   // superadmin browsing across tenants, deliberate and logged

	nothing bool
}

// MatchesNothing reports whether the scope admits zero records. This is
// the fail-closed result when no tenant is determinable.
func (s EffectiveScope) MatchesNothing() bool { return s.nothing }

// Predicate renders the scope as a storage-layer filter. A scope that
// matches nothing yields the never-matches clause, never the empty
// filter.
func (s EffectiveScope) Predicate() Predicate {
	if s.nothing {
		return MatchNone()
	}
	tenant := MatchAll()
	if !s.AllTenants {
		tenant = FieldEq("tenant_id", s.TenantID)
	}
	switch s.Mode {
	case OwnershipSelfOrAssigned, OwnershipExplicitEmployee:
		return And(tenant, Or(
			FieldEq("created_by", s.Employee),
			FieldEq("assigned_to", s.Employee),
		))
	case OwnershipUnassignedOnly:
		return And(tenant, FieldEq("assigned_to", nil))
	}
	return tenant
}

// Matches reports whether one record falls inside the scope. Single-record
// reads and writes use this alongside the record type's rule tree.
func (s EffectiveScope) Matches(rec Record) bool {
	if s.nothing {
		return false
	}
	if !s.AllTenants && !literalEqual(rec["tenant_id"], s.TenantID) {
		return false
	}
	switch s.Mode {
	case OwnershipSelfOrAssigned, OwnershipExplicitEmployee:
		return literalEqual(rec["created_by"], s.Employee) || literalEqual(rec["assigned_to"], s.Employee)
	case OwnershipUnassignedOnly:
		return rec["assigned_to"] == nil
	}
	return true
}

func emptyScope() EffectiveScope {
	return EffectiveScope{nothing: true}
}

// ResolveScope computes the effective scope from the caller's identity
// and the session overrides. Overrides take a fixed precedence over the
// role-derived default because they represent deliberate administrator
// narrowing, but an override held by a role not permitted to hold it is
// ignored entirely, never an access widening.
//
// The returned scope is always safe to use. A non-nil error reports why
// an override was discarded (ErrPrivilegeViolation) or why the scope
// matches nothing (ErrNoTenantDeterminable); it is alerting material, not
// a retry signal.
func ResolveScope(id Identity, sess SessionContext) (EffectiveScope, error) {
	var firstErr error
	reject := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	tenant := id.TenantID
	allTenants := false
	if sess.TenantOverride != "" {
		switch {
		case sess.TenantOverride == AllTenants:
			if id.Role == RoleSuperAdmin {
				allTenants = true
			} else {
				reject(ErrPrivilegeViolation)
			}
		case id.Role.CanOverrideTenant():
			tenant = sess.TenantOverride
		default:
			reject(ErrPrivilegeViolation)
		}
	}
	if tenant == "" && !allTenants {
		return emptyScope(), ErrNoTenantDeterminable
	}

	scope := EffectiveScope{TenantID: tenant, AllTenants: allTenants}
	if allTenants {
		scope.TenantID = ""
	}

	switch {
	case sess.EmployeeOverride == EmployeeScopeUnassigned:
		if id.CanOverrideEmployee() {
			scope.Mode = OwnershipUnassignedOnly
			return scope, firstErr
		}
		reject(ErrPrivilegeViolation)
	case sess.EmployeeOverride != "":
		// Pointing the scope at oneself is always harmless; pointing it
		// at someone else is a management privilege, held by admins and
		// managers but not by a power-user.
		if id.CanOverrideEmployee() || sess.EmployeeOverride == id.Email {
			scope.Mode = OwnershipExplicitEmployee
			scope.Employee = sess.EmployeeOverride
			return scope, firstErr
		}
		reject(ErrPrivilegeViolation)
	}

	if !id.AboveEmployee() {
		scope.Mode = OwnershipSelfOrAssigned
		scope.Employee = id.Email
		return scope, firstErr
	}
	scope.Mode = OwnershipUnrestricted
	return scope, firstErr
}
