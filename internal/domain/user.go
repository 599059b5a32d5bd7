package domain

// User is the profile returned by the backend on login.
// The client replaces it wholesale and never edits it in place.
type User struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name,omitempty"`
	Role        Role     `json:"role,omitempty"`
	Roles       []Role   `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	CompanyID   *string  `json:"company_id,omitempty"`
	BranchID    *string  `json:"branch_id,omitempty"`
}

// HasRole reports whether the user carries role either as primary role or in Roles.
func (u *User) HasRole(role Role) bool {
	if u == nil {
		return false
	}
	if u.Role == role {
		return true
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether perm is listed in the user's permissions.
func (u *User) HasPermission(perm string) bool {
	if u == nil {
		return false
	}
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// ScopedToCompany reports whether the user is restricted to a single company.
func (u *User) ScopedToCompany() bool {
	return u != nil && u.CompanyID != nil && *u.CompanyID != ""
}
