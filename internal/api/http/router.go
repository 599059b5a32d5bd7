package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-console/internal/api/http/handlers"
	"github.com/spec-kit/support-console/internal/auth"
	"github.com/spec-kit/support-console/internal/domain"
)

// Collections served under /api/v1 and the roles allowed to write them.
// Reading needs only a valid session.
var CollectionWriters = map[string][]domain.Role{
	"tickets":      {domain.RoleSuperAdmin, domain.RoleCompanyAdmin, domain.RoleBranchAdmin, domain.RoleAgent},
	"companies":    {domain.RoleSuperAdmin},
	"branches":     {domain.RoleSuperAdmin, domain.RoleCompanyAdmin},
	"categories":   {domain.RoleSuperAdmin, domain.RoleCompanyAdmin},
	"sla-policies": {domain.RoleSuperAdmin, domain.RoleCompanyAdmin},
	"users":        {domain.RoleSuperAdmin, domain.RoleCompanyAdmin},
}

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Records        map[string]*handlers.RecordsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	v1 := app.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh", cfg.Auth.Refresh)

	authed := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole())
	authed.Post("/logout-all", cfg.Auth.LogoutAll)
	authed.Post("/logout-one", cfg.Auth.LogoutOne)
	authed.Get("/me", cfg.Auth.Me)

	for name, h := range cfg.Records {
		group := v1.Group("/"+name, cfg.AuthMiddleware.Handle, auth.RequireRole())
		write := auth.RequireRole(CollectionWriters[name]...)

		group.Get("", h.List)
		group.Post("", write, h.Create)
		group.Get("/:id", h.Get)
		group.Patch("/:id", write, h.Update)
		group.Delete("/:id", write, h.Delete)
	}
}
