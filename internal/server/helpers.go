package server

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"bulletin/internal/middleware"
	"bulletin/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// parseID extracts a route parameter as a positive post ID. Anything that
// is not a well-formed ID cannot name a post, so it is reported as NotFound.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	raw := c.Params(param)
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, models.NewNotFoundError("Post", raw)
	}
	return uint(id), nil
}

// respondError writes the error envelope for err with the status its code maps
// to. Server-side failures are logged with the wrapped cause first.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

// isAPIPath reports whether path is served with JSON envelopes.
func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/") ||
		path == "/account/delete"
}

// ErrorHandler renders errors that escape handlers: API routes get the JSON
// envelope, page routes a plain-text fallback page.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
	}

	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}

	if isAPIPath(c.Path()) {
		msg := "Internal server error"
		switch {
		case status < fiber.StatusInternalServerError && fiberErr != nil:
			msg = fiberErr.Message
		case status < fiber.StatusInternalServerError:
			return models.RespondWithError(c, status, err)
		}
		return c.Status(status).JSON(models.ErrorResponse{Success: false, Msg: msg})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	switch status {
	case fiber.StatusNotFound:
		return c.Status(status).SendString("404 Not Found: the page you are looking for does not exist.")
	case fiber.StatusInternalServerError:
		return c.Status(status).SendString("500 Internal Server Error: something went wrong on our side.")
	default:
		return c.Status(status).SendString(strconv.Itoa(status) + " " + utils.StatusMessage(status))
	}
}
