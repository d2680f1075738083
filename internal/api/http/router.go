package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-workflow/internal/api/http/handlers"
	"github.com/spec-kit/request-workflow/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Requests       *handlers.RequestsHandler
	Refdata        *handlers.RefdataHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)
	app.Post("/auth/logout", cfg.Auth.Logout)
	app.Post("/users/register", cfg.Auth.Register)

	app.Get("/categories", cfg.Refdata.Categories)
	app.Get("/users", cfg.Refdata.Users)
	app.Get("/actions", cfg.Refdata.Actions)

	requests := app.Group("/requests", cfg.AuthMiddleware.Handle)
	requests.Get("", cfg.Requests.List)
	requests.Post("", cfg.Requests.Create)
	requests.Post("/forward/:id", cfg.Requests.Forward)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Put("/:id", cfg.Requests.Update)
	requests.Delete("/:id", cfg.Requests.Delete)
	requests.Get("/:id/duplicate", cfg.Requests.GetDuplicateGroup)
	requests.Post("/:id/duplicate", cfg.Requests.MarkDuplicate)
	requests.Delete("/:id/duplicate", cfg.Requests.ClearDuplicate)
}
