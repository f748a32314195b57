package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/hoply/hoply/internal/core/domain"
	"github.com/hoply/hoply/internal/pkg/telemetry"
)

// APIError is the JSON body of every error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

func newError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: requestID(c),
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal hides err from the client. It is logged and reported instead.
func errInternal(c *fiber.Ctx, msg string, err error) error {
	LoggerFromCtx(c.UserContext()).Error(msg, "path", c.Path(), "error", err)
	telemetry.CaptureError(err, map[string]string{
		"request_id": requestID(c),
		"route":      c.Route().Path,
	})
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// fromDomainError maps service errors to responses.
func fromDomainError(c *fiber.Ctx, msg string, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidOwner):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, err.Error())
	default:
		return errInternal(c, msg, err)
	}
}
