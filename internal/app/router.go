package app

import (
	"reservation-client/internal/guard"
	reservationuc "reservation-client/internal/reservation/usecase"
	authclient "reservation-client/internal/session/adapter/client"
	"reservation-client/internal/session/domain/model"
	sessionuc "reservation-client/internal/session/usecase"
	"reservation-client/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Navigation targets. The guard only knows these two abstract destinations.
const (
	loginRoute = "/login"
	homeRoute  = "/"
)

// dashboardRoute maps a role to its dashboard.
func dashboardRoute(role model.Role) string {
	if role == model.RoleAdmin {
		return "/admin"
	}
	return "/user"
}

// App owns the HTTP surface of the dashboard. All session reads go through the
// session store; no handler touches persisted storage directly.
type App struct {
	sessions     sessionuc.SessionUsecaseInterface
	auth         *authclient.AuthClient
	reservations reservationuc.ReservationUsecaseInterface
	hub          *UpdateHub
	log          logger.Logger
}

// New creates the application around its collaborators.
func New(
	sessions sessionuc.SessionUsecaseInterface,
	auth *authclient.AuthClient,
	reservations reservationuc.ReservationUsecaseInterface,
	hub *UpdateHub,
	log logger.Logger,
) *App {
	if log == nil {
		log = logger.NewLogger()
	}
	return &App{
		sessions:     sessions,
		auth:         auth,
		reservations: reservations,
		hub:          hub,
		log:          log.WithComponent("app"),
	}
}

// SetupRoutes registers every route on the Fiber app. Guarded groups are gated
// by the guard middleware; the guard decision is evaluated per request.
func (a *App) SetupRoutes(router *fiber.App) {
	router.Use(requestid.New())
	router.Use(a.RequestContext())

	// Public
	router.Get(loginRoute, a.LoginPage)
	router.Post(loginRoute, a.Login)
	router.Post("/register", a.Register)
	router.Post("/logout", a.Logout)

	// Any authenticated role
	router.Get(homeRoute, a.Guard(guard.AnyRole), a.Home)

	// Guest dashboard
	user := router.Group("/user", a.Guard(model.RoleUser))
	user.Get("/", a.UserDashboard)
	user.Post("/reservations", a.CreateReservation)
	user.Patch("/reservations/:id/cancel", a.CancelReservation)

	// Admin dashboard
	admin := router.Group("/admin", a.Guard(model.RoleAdmin))
	admin.Get("/", a.AdminDashboard)
	admin.Patch("/reservations/:id/cancel", a.AdminCancelReservation)
	admin.Patch("/reservations/:id/restore", a.AdminRestoreReservation)

	// Live refresh hints for open dashboards
	if a.hub != nil {
		router.Use("/ws", a.hub.Upgrade())
		router.Get("/ws", a.hub.Handler())
	}
}
