package app

import (
	"errors"

	reservationclient "reservation-client/internal/reservation/adapter/client"
	reservationmodel "reservation-client/internal/reservation/domain/model"
	authclient "reservation-client/internal/session/adapter/client"
	"reservation-client/internal/session/domain/model"
	apperrors "reservation-client/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
)

// loginRequest is the form the login view posts.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registerRequest is the form the register tab posts. Self-service signup is
// always a USER account; admins are provisioned out of band.
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// createReservationRequest is the guest dashboard's booking form.
type createReservationRequest struct {
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
	Guests   int    `json:"guests"`
}

// LoginPage describes the login view. An already-authenticated visitor is sent
// straight to their dashboard.
func (a *App) LoginPage(c *fiber.Ctx) error {
	snap := a.sessions.Current()
	if snap.Authenticated() {
		return c.Redirect(dashboardRoute(snap.Session.Role), fiber.StatusSeeOther)
	}
	return c.JSON(fiber.Map{
		"view":          "login",
		"authenticated": false,
	})
}

// Login exchanges credentials for a token at the auth API and installs the
// resulting session. API failures are surfaced with the API's own message and
// leave the session store untouched.
func (a *App) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Email and password are required"})
	}

	token, err := a.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, authclient.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
		}
		return a.apiError(c, err)
	}

	sess, err := a.sessions.Login(c.UserContext(), token)
	if err != nil {
		// The API issued a token the client cannot decode; the store has
		// already degraded to a safe absent session.
		a.log.WithContext(c.UserContext()).Errorf("Auth API issued an undecodable token: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Login failed"})
	}

	return c.JSON(fiber.Map{
		"role":     sess.Role,
		"redirect": dashboardRoute(sess.Role),
	})
}

// Register creates a USER account. A 409 from the API is guidance, not a
// failure: the email already has an account, so steer to login.
func (a *App) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name, email and password are required"})
	}

	err := a.auth.Register(c.UserContext(), authclient.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     string(model.RoleUser),
	})
	if err != nil {
		if errors.Is(err, authclient.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Email already registered. Please login.",
			})
		}
		return a.apiError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registered successfully. Please login now.",
	})
}

// Logout destroys the session and lands on the login view.
func (a *App) Logout(c *fiber.Ctx) error {
	if err := a.sessions.Logout(c.UserContext()); err != nil {
		a.log.WithContext(c.UserContext()).Errorf("Logout failed to clear persisted state: %v", err)
	}
	return c.Redirect(loginRoute, fiber.StatusSeeOther)
}

// Home routes an authenticated visitor to the dashboard for their role.
func (a *App) Home(c *fiber.Ctx) error {
	snap := a.sessions.Current()
	// Guard middleware has already ensured an authenticated session.
	return c.Redirect(dashboardRoute(snap.Session.Role), fiber.StatusSeeOther)
}

// UserDashboard returns the guest view model: own reservations plus the
// booking form's fixed inputs.
func (a *App) UserDashboard(c *fiber.Ctx) error {
	status := reservationmodel.Status(c.Query("status", string(reservationmodel.StatusActive)))

	items, err := a.reservations.MyReservations(c.UserContext(), status)
	if err != nil {
		return a.apiError(c, err)
	}
	return c.JSON(fiber.Map{
		"view":         "user",
		"reservations": items,
		"timeSlots":    reservationmodel.TimeSlots,
		"status":       status,
	})
}

// CreateReservation books a table for the current user.
func (a *App) CreateReservation(c *fiber.Ctx) error {
	var req createReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	created, err := a.reservations.Create(c.UserContext(), reservationclient.CreateRequest{
		Date:     req.Date,
		TimeSlot: req.TimeSlot,
		Guests:   req.Guests,
	})
	if err != nil {
		return a.apiError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// CancelReservation cancels one of the current user's reservations.
func (a *App) CancelReservation(c *fiber.Ctx) error {
	if err := a.reservations.CancelMine(c.UserContext(), c.Params("id")); err != nil {
		return a.apiError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Reservation cancelled"})
}

// AdminDashboard returns a page of all reservations.
func (a *App) AdminDashboard(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 5)
	status := reservationmodel.Status(c.Query("status", string(reservationmodel.StatusActive)))

	result, err := a.reservations.AllReservations(c.UserContext(), page, limit, status)
	if err != nil {
		return a.apiError(c, err)
	}
	return c.JSON(fiber.Map{
		"view":  "admin",
		"data":  result.Items,
		"page":  result.Page,
		"pages": result.Pages,
	})
}

// AdminCancelReservation cancels any reservation by id.
func (a *App) AdminCancelReservation(c *fiber.Ctx) error {
	if err := a.reservations.AdminCancel(c.UserContext(), c.Params("id")); err != nil {
		return a.apiError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Reservation cancelled"})
}

// AdminRestoreReservation restores a cancelled reservation to ACTIVE.
func (a *App) AdminRestoreReservation(c *fiber.Ctx) error {
	if err := a.reservations.AdminRestore(c.UserContext(), c.Params("id")); err != nil {
		return a.apiError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Reservation restored"})
}

// apiError maps usecase and client errors onto HTTP responses, preferring the
// remote API's message when one was carried through.
func (a *App) apiError(c *fiber.Ctx, err error) error {
	if errors.Is(err, apperrors.ErrNotAuthenticated) {
		return c.Redirect(loginRoute, fiber.StatusSeeOther)
	}
	if errors.Is(err, apperrors.ErrStaleSession) {
		// The session changed while the call was in flight; the response was
		// discarded and the view should re-evaluate from scratch.
		return c.Redirect(homeRoute, fiber.StatusSeeOther)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{"error": appErr.Message})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
}
