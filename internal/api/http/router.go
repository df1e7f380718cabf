package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/equipment-checkout/internal/api/http/handlers"
	"github.com/spec-kit/equipment-checkout/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Clerks         *handlers.ClerksHandler
	Scan           *handlers.ScanHandler
	Assets         *handlers.AssetsHandler
	Transactions   *handlers.TransactionsHandler
	Prefixes       *handlers.PrefixesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Clerks.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	protected.Post("/auth/register", auth.RequireAdmin(), cfg.Clerks.Register)

	protected.Post("/scan", cfg.Scan.Scan)
	protected.Post("/scan/mode", cfg.Scan.SetMode)
	protected.Get("/scan/state", cfg.Scan.State)

	protected.Post("/assets", cfg.Assets.Register)
	protected.Get("/assets", cfg.Assets.List)
	protected.Get("/assets/:category/:id", cfg.Assets.Get)
	protected.Post("/assets/:category/:id/status", cfg.Assets.ChangeStatus)
	protected.Post("/assets/:category/:id/return", cfg.Assets.Return)

	protected.Get("/transactions", cfg.Transactions.List)
	protected.Get("/audit", cfg.Transactions.Audit)
	protected.Get("/activity", cfg.Transactions.Activity)

	protected.Get("/prefixes", cfg.Prefixes.List)
	protected.Post("/prefixes", auth.RequireAdmin(), cfg.Prefixes.Create)
	protected.Put("/prefixes/:id", auth.RequireAdmin(), cfg.Prefixes.Update)
	protected.Delete("/prefixes/:id", auth.RequireAdmin(), cfg.Prefixes.Delete)
}
