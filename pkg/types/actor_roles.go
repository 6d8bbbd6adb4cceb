package types

import "strings"

const (
	// ActorRoleSystemAdmin represents site-wide administrators that may read
	// every tenant.
	ActorRoleSystemAdmin = "system_admin"
	// ActorRoleSuperadmin is an alias of ActorRoleSystemAdmin.
	ActorRoleSuperadmin = "superadmin"
	// ActorRoleTenantAdmin reads every activity of its tenant.
	ActorRoleTenantAdmin = "tenant_admin"
	// ActorRoleOrgAdmin is reserved for nested org/workspace administrators.
	ActorRoleOrgAdmin = "org_admin"
	ActorRoleAdmin    = "admin"
)

// RoleName normalizes the user role for comparisons.
func (u UserRef) RoleName() string {
	return NormalizeRole(u.Role)
}

// HasAnyRole reports whether the user role matches one of roles.
func (u UserRef) HasAnyRole(roles ...string) bool {
	name := u.RoleName()
	if name == "" {
		return false
	}
	for _, role := range roles {
		if NormalizeRole(role) == name {
			return true
		}
	}
	return false
}

// NormalizeRole lowercases and trims role.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
