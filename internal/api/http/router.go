package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/deskflow/helpdesk/internal/api/http/handlers"
	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Staff          *handlers.StaffHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	SLA            *handlers.SLAHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/staff/login", cfg.Staff.Login)
	authGroup.Post("/password/reset/request", cfg.Staff.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Staff.ConfirmPasswordReset)

	authn := cfg.AuthMiddleware.Handle
	anyone := auth.RequireAnyRole()
	app.Post("/auth/password/change", authn, anyone, cfg.Staff.ChangePassword)
	app.Get("/me", authn, anyone, cfg.Users.Me)

	notifications := app.Group("/notifications", authn, anyone)
	notifications.Get("/", cfg.Notifications.List)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)

	app.Get("/sectors", authn, auth.RequireUser(), cfg.Staff.ListPublicSectors)
	tickets := app.Group("/tickets", authn, auth.RequireUser())
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/messages", cfg.Tickets.AddMessage)
	tickets.Post("/:id/attachments/upload-url", cfg.Tickets.RequestUploadURL)
	tickets.Post("/:id/close", cfg.Tickets.CloseTicket)

	staff := app.Group("/staff", authn, auth.RequireStaffRole())
	staffTickets := staff.Group("/tickets")
	staffTickets.Get("/", cfg.StaffTickets.ListStaffTickets)
	staffTickets.Get("/:id", cfg.StaffTickets.GetStaffTicket)
	staffTickets.Get("/:id/history", cfg.StaffTickets.ListHistory)
	staffTickets.Patch("/:id/status", cfg.StaffTickets.UpdateStatus)
	staffTickets.Patch("/:id/level", cfg.StaffTickets.UpdateLevel)
	staffTickets.Post("/:id/assign", cfg.StaffTickets.AssignStaff)
	staffTickets.Post("/:id/self-assign", cfg.StaffTickets.SelfAssign)
	staffTickets.Post("/:id/team", cfg.StaffTickets.AssignTeam)
	staffTickets.Post("/:id/messages", cfg.StaffTickets.AddStaffMessage)
	staffTickets.Post("/:id/attachments/upload-url", cfg.StaffTickets.RequestUploadURL)
	staffTickets.Put("/:id/deadline", cfg.StaffTickets.SetDeadline)
	staffTickets.Post("/:id/deadline/extend", cfg.StaffTickets.ExtendDeadline)
	staffTickets.Delete("/:id/deadline", cfg.StaffTickets.ClearDeadline)

	staff.Get("/sla/stats", cfg.SLA.Stats)
	staff.Get("/sectors/:id/sla-policy", cfg.SLA.GetPolicy)

	// admin guard is per route: a "" group would apply it to all of /staff
	admin := auth.RequireStaffRole(domain.StaffRoleAdmin)
	staff.Put("/sectors/:id/sla-policy", admin, cfg.SLA.PutPolicy)
	staff.Delete("/sectors/:id/sla-policy", admin, cfg.SLA.DeletePolicy)
	staff.Post("/sectors", admin, cfg.Staff.CreateSector)
	staff.Get("/sectors", admin, cfg.Staff.ListSectors)
	staff.Get("/sectors/:id", admin, cfg.Staff.GetSector)
	staff.Put("/sectors/:id", admin, cfg.Staff.UpdateSector)
	staff.Post("/teams", admin, cfg.Staff.CreateTeam)
	staff.Get("/teams", admin, cfg.Staff.ListTeams)
	staff.Get("/teams/:id", admin, cfg.Staff.GetTeam)
	staff.Put("/teams/:id", admin, cfg.Staff.UpdateTeam)
	staff.Post("/members", admin, cfg.Staff.CreateStaff)
	staff.Get("/members", admin, cfg.Staff.ListStaff)
	staff.Get("/members/:id", admin, cfg.Staff.GetStaff)
	staff.Put("/members/:id", admin, cfg.Staff.UpdateStaff)
	staff.Post("/members/:id/password-reset", admin, cfg.Staff.ResetStaffPassword)
}
