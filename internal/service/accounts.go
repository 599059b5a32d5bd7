package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/support-console/internal/auth"
	"github.com/spec-kit/support-console/internal/config"
	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/repository"
)

// rolePermissions lists what each role may do in the dev backend's
// collections. Unlisted roles get none.
var rolePermissions = map[domain.Role][]string{
	domain.RoleSuperAdmin:   {"tickets:read", "tickets:write", "companies:read", "companies:write", "users:read", "users:write", "settings:write"},
	domain.RoleCompanyAdmin: {"tickets:read", "tickets:write", "companies:read", "users:read", "users:write"},
	domain.RoleBranchAdmin:  {"tickets:read", "tickets:write", "users:read"},
	domain.RoleAgent:        {"tickets:read", "tickets:write"},
	domain.RoleViewer:       {"tickets:read"},
}

// SeedAccounts hashes the configured seed users into accounts.
func SeedAccounts(seeds []config.SeedUser, bcryptCost int) ([]repository.Account, error) {
	accounts := make([]repository.Account, 0, len(seeds))
	for _, seed := range seeds {
		role := domain.Role(strings.ToUpper(seed.Role))
		if !role.Valid() {
			return nil, fmt.Errorf("seed user %s: unknown role %q", seed.Email, seed.Role)
		}
		hash, err := auth.HashPassword(seed.Password, bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", seed.Email, err)
		}
		name, _, _ := strings.Cut(seed.Email, "@")
		accounts = append(accounts, repository.Account{
			User: domain.User{
				ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(seed.Email))).String(),
				Email:       seed.Email,
				Name:        name,
				Role:        role,
				Roles:       []domain.Role{role},
				Permissions: append([]string(nil), rolePermissions[role]...),
			},
			PasswordHash: hash,
		})
	}
	return accounts, nil
}
