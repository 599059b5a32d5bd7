package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-console/internal/domain"
	apperrors "github.com/spec-kit/support-console/pkg/util"
)

// RequireRole ensures the principal carries one of the allowed roles. With no
// roles given any authenticated principal passes.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowed) == 0 {
			return c.Next()
		}
		for _, role := range allowed {
			if principal.User.HasRole(role) {
				return c.Next()
			}
		}
		return apperrors.NewForbidden("insufficient role")
	}
}

// RequirePermission ensures the principal has perm.
func RequirePermission(perm string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.User.HasPermission(perm) && !principal.User.HasRole(domain.RoleSuperAdmin) {
			return apperrors.NewForbidden("missing permission " + perm)
		}
		return c.Next()
	}
}
