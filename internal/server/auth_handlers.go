package server

import (
	"log/slog"

	"bulletin/internal/middleware"
	"bulletin/internal/models"
	"bulletin/internal/service"
	"bulletin/internal/session"

	"github.com/gofiber/fiber/v2"
)

// LoginRequest is the login form.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Register handles POST /api/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if _, err := s.credentials.Register(c.UserContext(), req); err != nil {
		return respondError(c, err)
	}

	return models.RespondWithMessage(c, fiber.StatusOK, "Registration complete")
}

// Login handles POST /api/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.credentials.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		// An unknown username is reported like a wrong password.
		if models.IsCode(err, models.CodeNotFound) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid username or password"))
		}
		return respondError(c, err)
	}

	if err := s.sessions.Login(c, user.Username); err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return models.RespondWithMessage(c, fiber.StatusOK, "Login successful")
}

// Logout handles GET /logout
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.sessions.Logout(c); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "logout failed", slog.String("error", err.Error()))
	}
	return c.Redirect("/", fiber.StatusFound)
}

// DeleteAccount handles POST /account/delete. The session is cleared whether
// or not the account still existed.
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	id := session.FromContext(c)

	err := s.credentials.DeleteAccount(c.UserContext(), id.Username)
	if err != nil && !models.IsCode(err, models.CodeNotFound) {
		return respondError(c, err)
	}

	if lerr := s.sessions.Logout(c); lerr != nil {
		middleware.Logger.WarnContext(c.UserContext(), "session cleanup failed", slog.String("error", lerr.Error()))
	}

	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("User", id.Username))
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}
