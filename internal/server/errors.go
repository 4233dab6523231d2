package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "unavailable", msg)
}

// ErrorHandler renders errors that escape the handlers, such as the 408
// from the timeout middleware, in the same envelope as every other error.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) {
		return errInternal(c, "internal server error")
	}

	switch fiberErr.Code {
	case fiber.StatusRequestTimeout:
		return newError(c, fiberErr.Code, "timeout", "the upstream request took too long")
	case fiber.StatusNotFound:
		return errNotFound(c, fiberErr.Message)
	case fiber.StatusMethodNotAllowed:
		return newError(c, fiberErr.Code, "method_not_allowed", fiberErr.Message)
	case fiber.StatusBadRequest:
		return errBadRequest(c, fiberErr.Message)
	default:
		return newError(c, fiberErr.Code, "error", fiberErr.Message)
	}
}
