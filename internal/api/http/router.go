package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/api/http/handlers"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// OAuth handshake: begin endpoints redirect out, callback endpoints run
	// the reconciler. The admin flow keeps its own callback path so the two
	// flows never share failure destinations.
	app.Get("/auth/login", cfg.Auth.BeginLogin)
	app.Get("/auth/admin-login", cfg.Auth.BeginAdminLogin)
	app.Get("/auth/callback", cfg.Auth.Callback)
	app.Get("/admin-login/callback", cfg.Auth.AdminCallback)

	api := app.Group("/api/auth")
	api.Post("/login", cfg.Auth.Login)
	api.Post("/logout", cfg.Auth.Logout)
	api.Get("/gate", cfg.Auth.Gate)
	api.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	admin := app.Group("/api/admin", cfg.AuthMiddleware.Handle, auth.RequireSurface(auth.SurfaceAdminAPI))
	admin.Delete("/companies/:id", cfg.Admin.DeleteCompany)
	admin.Get("/sms/balance", cfg.Admin.SMSBalance)
}
