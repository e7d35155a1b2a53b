package recordauth

import (
	"errors"
	"testing"
)

func TestEmployeeDefaultScope(t *testing.T) {
	id := Identity{Email: "a@x.com", Role: RoleUser, EmployeeRole: EmployeeRoleEmployee, TenantID: "T1"}
	scope, err := ResolveScope(id, SessionContext{})
	if err != nil {
		t.Fatalf("resolve scope: %v", err)
	}
	if scope.TenantID != "T1" || scope.Mode != OwnershipSelfOrAssigned || scope.Employee != "a@x.com" {
		t.Fatalf("unexpected scope: %#v", scope)
	}
}

func TestManagerAndAbsentEmployeeRoleUnrestricted(t *testing.T) {
	for _, id := range []Identity{
		{Email: "m@x.com", Role: RoleUser, EmployeeRole: EmployeeRoleManager, TenantID: "T1"},
		{Email: "n@x.com", Role: RoleUser, TenantID: "T1"},
		{Email: "p@x.com", Role: RolePowerUser, EmployeeRole: EmployeeRoleEmployee, TenantID: "T1"},
	} {
		scope, err := ResolveScope(id, SessionContext{})
		if err != nil {
			t.Fatalf("%s: resolve scope: %v", id.Email, err)
		}
		if scope.Mode != OwnershipUnrestricted {
			t.Fatalf("%s: expected unrestricted, got %s", id.Email, scope.Mode)
		}
	}
}

func TestAdminTenantOverride(t *testing.T) {
	id := Identity{Email: "ad@x.com", Role: RoleAdmin, TenantID: "T1"}
	scope, err := ResolveScope(id, SessionContext{TenantOverride: "T2"})
	if err != nil {
		t.Fatalf("resolve scope: %v", err)
	}
	if scope.TenantID != "T2" || scope.Mode != OwnershipUnrestricted {
		t.Fatalf("unexpected scope: %#v", scope)
	}
}

func TestEmployeeCannotOverrideTenant(t *testing.T) {
	id := Identity{Email: "a@x.com", Role: RoleUser, EmployeeRole: EmployeeRoleEmployee, TenantID: "T1"}
	scope, err := ResolveScope(id, SessionContext{TenantOverride: "T2"})
	if !errors.Is(err, ErrPrivilegeViolation) {
		t.Fatalf("expected ErrPrivilegeViolation, got %v", err)
	}
	// The override is ignored entirely; access is never widened.
	if scope.TenantID != "T1" || scope.Mode != OwnershipSelfOrAssigned {
		t.Fatalf("unexpected scope after ignored override: %#v", scope)
	}
}

func TestPowerUserEmployeeOverrideForOtherIgnored(t *testing.T) {
	id := Identity{Email: "p@x.com", Role: RolePowerUser, TenantID: "T1"}
	scope, err := ResolveScope(id, SessionContext{EmployeeOverride: "b@x.com"})
	if !errors.Is(err, ErrPrivilegeViolation) {
		t.Fatalf("expected ErrPrivilegeViolation, got %v", err)
	}
	// Cross-person drill-down is a management privilege; the power-user
	// keeps the role-derived default instead.
	if scope.Mode != OwnershipUnrestricted || scope.Employee != "" {
		t.Fatalf("unexpected fallback scope: %#v", scope)
	}
}

func TestPowerUserEmployeeOverrideForSelfAllowed(t *testing.T) {
	id := Identity{Email: "p@x.com", Role: RolePowerUser, TenantID: "T1"}
	scope, err := ResolveScope(id, SessionContext{EmployeeOverride: "p@x.com"})
	if err != nil {
		t.Fatalf("resolve scope: %v", err)
	}
	if scope.Mode != OwnershipExplicitEmployee || scope.Employee != "p@x.com" {
		t.Fatalf("unexpected scope: %#v", scope)
	}
}

func TestManagerEmployeeOverrideForOtherAllowed(t *testing.T) {
	for _, id := range []Identity{
		{Email: "m@x.com", Role: RoleUser, EmployeeRole: EmployeeRoleManager, TenantID: "T1"},
		{Email: "ad@x.com", Role: RoleAdmin, TenantID: "T1"},
	} {
		scope, err := ResolveScope(id, SessionContext{EmployeeOverride: "b@x.com"})
		if err != nil {
			t.Fatalf("%s: resolve scope: %v", id.Email, err)
		}
		if scope.Mode != OwnershipExplicitEmployee || scope.Employee != "b@x.com" {
			t.Fatalf("%s: unexpected scope: %#v", id.Email, scope)
		}
	}
}

func TestPowerUserUnassignedOverrideIgnored(t *testing.T) {
	id := Identity{Email: "p@x.com", Role: RolePowerUser, TenantID: "T1"}
	scope, err := ResolveScope(id, SessionContext{EmployeeOverride: EmployeeScopeUnassigned})
	if !errors.Is(err, ErrPrivilegeViolation) {
		t.Fatalf("expected ErrPrivilegeViolation, got %v", err)
	}
	if scope.Mode != OwnershipUnrestricted {
		t.Fatalf("unexpected fallback scope: %#v", scope)
	}
}

func TestEmployeeOverrideForOtherIgnored(t *testing.T) {
	id := Identity{Email: "a@x.com", Role: RoleUser, EmployeeRole: EmployeeRoleEmployee, TenantID: "T1"}
	scope, err := ResolveScope(id, SessionContext{EmployeeOverride: "b@x.com"})
	if !errors.Is(err, ErrPrivilegeViolation) {
		t.Fatalf("expected ErrPrivilegeViolation, got %v", err)
	}
	if scope.Mode != OwnershipSelfOrAssigned || scope.Employee != "a@x.com" {
		t.Fatalf("unexpected fallback scope: %#v", scope)
	}
}

func TestEmployeeOverrideForSelfAllowed(t *testing.T) {
	id := Identity{Email: "a@x.com", Role: RoleUser, EmployeeRole: EmployeeRoleEmployee, TenantID: "T1"}
	scope, err := ResolveScope(id, SessionContext{EmployeeOverride: "a@x.com"})
	if err != nil {
		t.Fatalf("resolve scope: %v", err)
	}
	if scope.Mode != OwnershipExplicitEmployee || scope.Employee != "a@x.com" {
		t.Fatalf("unexpected scope: %#v", scope)
	}
}

func TestUnassignedOverride(t *testing.T) {
	id := Identity{Email: "m@x.com", Role: RoleUser, EmployeeRole: EmployeeRoleManager, TenantID: "T1"}
	scope, err := ResolveScope(id, SessionContext{EmployeeOverride: EmployeeScopeUnassigned})
	if err != nil {
		t.Fatalf("resolve scope: %v", err)
	}
	if scope.Mode != OwnershipUnassignedOnly {
		t.Fatalf("unexpected scope: %#v", scope)
	}
	if !scope.Matches(Record{"tenant_id": "T1", "assigned_to": nil}) {
		t.Fatalf("unassigned record must match")
	}
	if scope.Matches(Record{"tenant_id": "T1", "assigned_to": "a@x.com"}) {
		t.Fatalf("assigned record must not match")
	}
}

func TestNoTenantDeterminable(t *testing.T) {
	id := Identity{Email: "a@x.com", Role: RoleUser, EmployeeRole: EmployeeRoleEmployee}
	scope, err := ResolveScope(id, SessionContext{})
	if !errors.Is(err, ErrNoTenantDeterminable) {
		t.Fatalf("expected ErrNoTenantDeterminable, got %v", err)
	}
	if !scope.MatchesNothing() {
		t.Fatalf("scope must match nothing")
	}
	if !scope.Predicate().IsMatchNone() {
		t.Fatalf("predicate must be never-matches, got %#v", scope.Predicate())
	}
	if scope.Matches(Record{"tenant_id": "T1"}) {
		t.Fatalf("nothing-scope matched a record")
	}
}

func TestSuperadminAllTenants(t *testing.T) {
	id := Identity{Email: "root@hq.com", Role: RoleSuperAdmin, TenantID: "T0"}
	scope, err := ResolveScope(id, SessionContext{TenantOverride: AllTenants})
	if err != nil {
		t.Fatalf("resolve scope: %v", err)
	}
	if !scope.AllTenants || scope.Mode != OwnershipUnrestricted {
		t.Fatalf("unexpected scope: %#v", scope)
	}
	if !scope.Predicate().IsMatchAll() {
		t.Fatalf("all-tenants scope predicate must be unconstrained")
	}
}

func TestAdminCannotUseAllTenants(t *testing.T) {
	id := Identity{Email: "ad@x.com", Role: RoleAdmin, TenantID: "T1"}
	scope, err := ResolveScope(id, SessionContext{TenantOverride: AllTenants})
	if !errors.Is(err, ErrPrivilegeViolation) {
		t.Fatalf("expected ErrPrivilegeViolation, got %v", err)
	}
	if scope.AllTenants || scope.TenantID != "T1" {
		t.Fatalf("unexpected scope: %#v", scope)
	}
}

func TestScopePredicateMatchesAgree(t *testing.T) {
	records := equivalenceRecords()
	scopes := []EffectiveScope{}
	for _, sess := range []SessionContext{
		{},
		{EmployeeOverride: "a@x.com"},
		{EmployeeOverride: EmployeeScopeUnassigned},
	} {
		for _, id := range []Identity{
			{Email: "a@x.com", Role: RoleUser, EmployeeRole: EmployeeRoleEmployee, TenantID: "T1"},
			{Email: "m@x.com", Role: RoleUser, EmployeeRole: EmployeeRoleManager, TenantID: "T1"},
			{Email: "ad@x.com", Role: RoleAdmin, TenantID: "T2"},
		} {
			scope, _ := ResolveScope(id, sess)
			scopes = append(scopes, scope)
		}
	}
	for _, scope := range scopes {
		pred := scope.Predicate()
		for _, rec := range records {
			if scope.Matches(rec) != matchPredicate(t, pred, rec) {
				t.Fatalf("scope %#v diverges on record %#v", scope, rec)
			}
		}
	}
}
