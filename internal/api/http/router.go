package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jobsync/jobsync-auth/internal/api/http/handlers"
	"github.com/jobsync/jobsync-auth/internal/auth"
	"github.com/jobsync/jobsync-auth/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Admin   *handlers.AdminHandler
	Gate    *auth.Gate
	Metrics fiber.Handler

	LoginRatePerMin int
	LoginBurst      int
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	limited := RateLimit(cfg.LoginRatePerMin, cfg.LoginBurst)
	authGroup.Post("/register", limited, cfg.Auth.Register)
	authGroup.Post("/signup", limited, cfg.Auth.Signup)
	authGroup.Post("/login", limited, cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Gate.Optional, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.Gate.Handle, cfg.Auth.Me)
	authGroup.Post("/password", cfg.Gate.Handle, cfg.Auth.ChangePassword)

	admin := api.Group("/admin", cfg.Gate.Handle, auth.Require(domain.RoleAdmin))
	admin.Patch("/users/:id/role", cfg.Admin.ChangeRole)

	employer := api.Group("/employer", cfg.Gate.Handle, auth.RequireAny(domain.RoleEmployer, domain.RoleAdmin))
	employer.Get("/session", cfg.Auth.Session)
}
