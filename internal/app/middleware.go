package app

import (
	"reservation-client/internal/guard"
	"reservation-client/internal/session/domain/model"
	"reservation-client/internal/shared/contextkeys"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// RequestContext copies the id assigned by the requestid middleware into the
// request context, so downstream logging and outbound API calls carry the same
// correlation id the dashboard request came in with.
func (a *App) RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && id != "" {
			c.SetUserContext(contextkeys.WithRequestID(c.UserContext(), id))
		}
		return c.Next()
	}
}

// Guard returns middleware gating a route on the guard's decision. The policy
// itself lives in guard.Decide; this adapter only translates the decision into
// HTTP. Evaluation happens per request against a fresh session snapshot, never
// cached.
func (a *App) Guard(required model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch guard.Decide(a.sessions.Current(), required) {
		case guard.Defer:
			// Restore still settling; tell the view to retry rather than
			// bouncing an about-to-be-valid session to the login screen.
			c.Set("Retry-After", "1")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "session restore in progress",
			})
		case guard.RedirectToLogin:
			return c.Redirect(loginRoute, fiber.StatusSeeOther)
		case guard.RedirectToHome:
			return c.Redirect(homeRoute, fiber.StatusSeeOther)
		}
		return c.Next()
	}
}
