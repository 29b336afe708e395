package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/http/handlers"
	"github.com/spec-kit/queue-service/internal/auth"
	"github.com/spec-kit/queue-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Agents         *handlers.AgentsHandler
	Tickets        *handlers.TicketsHandler
	Queues         *handlers.QueuesHandler
	Catalog        *handlers.CatalogHandler
	Dispatch       *handlers.DispatchHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/agents/login", cfg.Agents.Login)

	// Public queue reads and walk-in ticket requests.
	services := app.Group("/services")
	services.Get("/", cfg.Queues.ListServices)
	services.Get("/:id", cfg.Queues.GetService)
	services.Get("/:id/queue", cfg.Queues.GetQueue)
	services.Get("/:id/estimate", cfg.Queues.EstimateWait)
	services.Get("/:id/counters", cfg.Catalog.ListCounters)
	services.Post("/:id/tickets", cfg.AuthMiddleware.HandleOptional, cfg.Tickets.RequestTicket)

	tickets := app.Group("/tickets")
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/cancel", cfg.AuthMiddleware.HandleOptional, cfg.Tickets.CancelTicket)

	// Agent operations on the floor.
	agentOps := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAgentRole())
	agentOps.Post("/services/:id/call-next", cfg.Dispatch.CallNext)
	agentOps.Post("/counters/:id/serve", cfg.Dispatch.StartServing)
	agentOps.Post("/counters/:id/complete", cfg.Dispatch.CompleteCurrent)
	agentOps.Post("/tickets/:id/no-show", cfg.Dispatch.MarkNoShow)
	agentOps.Post("/tickets/:id/validation", cfg.Tickets.ResolveValidation)

	// Admin catalog and staffing management.
	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAgentRole(domain.AgentRoleAdmin))
	admin.Post("/services", cfg.Catalog.CreateService)
	admin.Post("/services/:id/open", cfg.Catalog.OpenService)
	admin.Post("/services/:id/close", cfg.Catalog.CloseService)
	admin.Post("/services/:id/pause", cfg.Catalog.PauseService)
	admin.Delete("/services/:id", cfg.Catalog.DecommissionService)
	admin.Post("/counters", cfg.Catalog.CreateCounter)
	admin.Post("/counters/:id/open", cfg.Dispatch.OpenCounter)
	admin.Post("/counters/:id/close", cfg.Dispatch.CloseCounter)
	admin.Post("/counters/:id/pause", cfg.Dispatch.PauseCounter)
	admin.Put("/counters/:id/agent", cfg.Dispatch.AssignAgent)
	admin.Delete("/counters/:id/agent", cfg.Dispatch.RemoveAgent)
}
