package handler

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	"signapi/internal/http/middleware"
	"signapi/internal/model"
	"signapi/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
//
// Validation failures are the caller's fault (400), permission failures are
// 403, unknown ids and tokens are 404, illegal status transitions are
// conflicts (409), and configuration errors are server faults (500) whose
// details stay out of the response.
func writeDomainError(c *fiber.Ctx, err error) error {
	var valErr *model.ValidationError
	if errors.As(err, &valErr) {
		return writeError(c, fiber.StatusBadRequest, valErr.Code, valErr.Message)
	}

	var permErr *model.PermissionError
	if errors.As(err, &permErr) {
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", permErr.Message)
	}

	if errors.Is(err, service.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
	}
	if errors.Is(err, service.ErrIDRequired) {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	}

	var transErr *model.InvalidTransitionError
	if errors.As(err, &transErr) {
		return writeError(c, fiber.StatusConflict, "INVALID_TRANSITION", transErr.Error())
	}

	var cfgErr *model.ConfigurationError
	if errors.As(err, &cfgErr) {
		return writeError(c, fiber.StatusInternalServerError, "CONFIGURATION_ERROR", "internal configuration error")
	}

	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
