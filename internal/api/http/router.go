package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Staff          *handlers.StaffHandler
	Catalog        *handlers.CatalogHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Functions      *handlers.FunctionsHandler
	Realtime       *handlers.RealtimeHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	requireAuth := cfg.AuthMiddleware.Handle
	staffOnly := auth.RequireStaff()

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", cfg.Users.Signup)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/me", requireAuth, cfg.Users.Me)

	// Preflight requests are answered by the CORS middleware before any
	// authentication runs.
	functions := app.Group(FunctionsPrefix, cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "authorization, x-client-info, apikey, content-type",
		AllowMethods: "POST,OPTIONS",
	}))
	functions.Post("/faq-ia", requireAuth, cfg.Functions.AssistFAQ)
	functions.Post("/criar-funcionario", requireAuth, staffOnly, cfg.Functions.CreateStaff)

	app.Get("/categorias", cfg.Catalog.ListCategories)
	app.Post("/categorias", requireAuth, staffOnly, cfg.Catalog.CreateCategory)

	faq := app.Group("/faq")
	faq.Get("", cfg.Catalog.ListFAQ)
	faq.Post("", requireAuth, staffOnly, cfg.Catalog.CreateFAQ)
	faq.Get("/:id", cfg.Catalog.GetFAQ)
	faq.Post("/:id/util", requireAuth, cfg.Catalog.MarkHelpful)

	app.Get("/funcionarios", requireAuth, staffOnly, cfg.Staff.ListStaff)

	tickets := app.Group("/chamados", requireAuth)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/respostas", cfg.Tickets.ListResponses)
	tickets.Post("/:id/respostas", cfg.Tickets.AddResponse)
	tickets.Get("/:id/historico", cfg.Tickets.ListHistory)
	tickets.Post("/:id/ia", cfg.Tickets.ConsultAssistant)
	tickets.Post("/:id/ia/aceitar", cfg.Tickets.AcceptSuggestion)
	tickets.Post("/:id/ia/rejeitar", cfg.Tickets.RejectSuggestion)
	tickets.Post("/:id/encaminhar", staffOnly, cfg.StaffTickets.Forward)
	tickets.Post("/:id/status", staffOnly, cfg.StaffTickets.UpdateStatus)
	tickets.Post("/:id/resolver", staffOnly, cfg.StaffTickets.Resolve)

	stream := websocket.New(cfg.Realtime.Stream)
	live := app.Group("/realtime", requireAuth)
	live.Get("/chamados", cfg.Realtime.UpgradeTicketList, stream)
	live.Get("/chamados/:id", cfg.Realtime.UpgradeTicketThread, stream)
	live.Get("/faq", cfg.Realtime.UpgradeFAQ, stream)
}
