package domain

// Role enumerates dashboard operator roles.
type Role string

const (
	RoleSuperAdmin   Role = "SUPER_ADMIN"
	RoleCompanyAdmin Role = "COMPANY_ADMIN"
	RoleBranchAdmin  Role = "BRANCH_ADMIN"
	RoleAgent        Role = "AGENT"
	RoleViewer       Role = "VIEWER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleCompanyAdmin, RoleBranchAdmin, RoleAgent, RoleViewer:
		return true
	}
	return false
}
