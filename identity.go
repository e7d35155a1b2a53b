package recordauth

// Role is the caller's position in the four-tier hierarchy.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RolePowerUser  Role = "power-user"
	RoleUser       Role = "user"
)

// EmployeeRole further narrows a RoleUser caller. An empty value means the
// attribute is absent, which most policies treat as manager-equivalent.
type EmployeeRole string

const (
	EmployeeRoleManager  EmployeeRole = "manager"
	EmployeeRoleEmployee EmployeeRole = "employee"
	EmployeeRoleNone     EmployeeRole = ""
)

// Identity is the verified caller supplied by the authentication layer.
// It is opaque input to this engine; nothing here re-checks credentials.
type Identity struct {
	Email        string       `json:"email"`
	Role         Role         `json:"role"`
	EmployeeRole EmployeeRole `json:"employee_role,omitempty"`
	TenantID     string       `json:"tenant_id,omitempty"`
}

// CanOverrideTenant reports whether the role may hold a tenant override.
func (r Role) CanOverrideTenant() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Valid reports whether the role is one of the four known tiers.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RolePowerUser, RoleUser:
		return true
	}
	return false
}

// AboveEmployee reports whether the identity outranks an individual
// contributor: any role above user, or a user whose employee_role is
// manager or absent.
func (id Identity) AboveEmployee() bool {
	if id.Role == RoleSuperAdmin || id.Role == RoleAdmin || id.Role == RolePowerUser {
		return true
	}
	return id.EmployeeRole != EmployeeRoleEmployee
}

// CanOverrideEmployee reports whether the identity may point the employee
// scope at someone other than itself. Admins and superadmins always may;
// for everyone else the tenant's management ladder decides, so a
// power-user holds no cross-person override and may only narrow to
// itself.
func (id Identity) CanOverrideEmployee() bool {
	if id.Role == RoleAdmin || id.Role == RoleSuperAdmin {
		return true
	}
	return id.Role == RoleUser && id.EmployeeRole != EmployeeRoleEmployee
}

// attr returns the identity attribute addressed by a template placeholder.
// The second result is false when the attribute has no usable value, which
// callers must treat as a failed resolution, never as an empty string.
func (id Identity) attr(name string) (string, bool) {
	switch name {
	case "tenant_id":
		return id.TenantID, id.TenantID != ""
	case "email":
		return id.Email, id.Email != ""
	}
	return "", false
}

// conditionAttr returns the identity attribute addressed by a
// user_condition field. Absent employee_role is surfaced as nil so rules
// can test for it with a null literal.
func (id Identity) conditionAttr(field string) (any, bool) {
	switch field {
	case "role":
		return string(id.Role), true
	case "employee_role":
		if id.EmployeeRole == EmployeeRoleNone {
			return nil, true
		}
		return string(id.EmployeeRole), true
	case "tenant_id":
		if id.TenantID == "" {
			return nil, true
		}
		return id.TenantID, true
	case "email":
		return id.Email, true
	}
	return nil, false
}
