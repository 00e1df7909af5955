package models

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// genericErrorMessage is what clients see for every 5xx.
const genericErrorMessage = "Internal server error"

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
}

// SuccessResponse is the envelope for successful API responses.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// RespondWithError creates a standardized error response. Server-side failures
// are reduced to a generic message so wrapped details never leave the process.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	msg := genericErrorMessage
	if status < fiber.StatusInternalServerError {
		var appErr *AppError
		if errors.As(err, &appErr) {
			msg = appErr.Message
		} else if err != nil {
			msg = err.Error()
		}
	}

	return c.Status(status).JSON(ErrorResponse{Success: false, Msg: msg})
}

// RespondWithData writes the success envelope with a payload.
func RespondWithData(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(SuccessResponse{Success: true, Data: data})
}

// RespondWithMessage writes the success envelope with only a message.
func RespondWithMessage(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(SuccessResponse{Success: true, Msg: msg})
}
