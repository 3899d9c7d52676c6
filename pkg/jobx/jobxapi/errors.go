package jobxapi

import (
	"errors"

	"github.com/Abraxas-365/inferq/pkg/errx"
	"github.com/Abraxas-365/inferq/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders errx errors with their registered status, fiber
// errors with theirs, and everything else as a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	requestID := c.Get(fiber.HeaderXRequestID)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"code":       "HTTP_ERROR",
			"message":    fe.Message,
			"status":     fe.Code,
			"request_id": requestID,
		})
	}

	var xe *errx.Error
	if errors.As(err, &xe) {
		entry := logx.WithFields(logx.Fields{
			"path":       c.Path(),
			"method":     c.Method(),
			"code":       xe.Code,
			"request_id": requestID,
		})
		if xe.HTTPStatus >= fiber.StatusInternalServerError {
			entry.WithError(err).Error("request failed")
		} else {
			entry.Debug(xe.Message)
		}

		resp := xe.ToResponse()
		return c.Status(xe.HTTPStatus).JSON(fiber.Map{
			"code":       resp.Code,
			"message":    resp.Message,
			"type":       resp.Type,
			"status":     resp.StatusCode,
			"details":    resp.Details,
			"request_id": requestID,
		})
	}

	logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": requestID,
	}).WithError(err).Error("unhandled request error")

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"code":       "INTERNAL_ERROR",
		"message":    "An unexpected error occurred",
		"status":     fiber.StatusInternalServerError,
		"request_id": requestID,
	})
}

// NotFound is the catch-all for unknown routes.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"code":    "NOT_FOUND",
		"message": "The requested endpoint does not exist",
		"path":    c.Path(),
		"method":  c.Method(),
	})
}
