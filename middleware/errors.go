package middleware

import (
	"errors"

	"learnhub/logger"
	"learnhub/services/apperr"

	"github.com/gofiber/fiber/v2"
)

var statusFor = map[apperr.Kind]int{
	apperr.Unauthorized: fiber.StatusUnauthorized,
	apperr.NotFound:     fiber.StatusNotFound,
	apperr.Ineligible:   fiber.StatusUnprocessableEntity,
	apperr.Conflict:     fiber.StatusConflict,
	apperr.Internal:     fiber.StatusInternalServerError,
}

// ErrorResponse writes err in the JSON envelope. Internal errors are logged
// in full and reported with a generic message.
func ErrorResponse(c *fiber.Ctx, log *logger.Logger, err error) error {
	kind := apperr.KindOf(err)
	status, ok := statusFor[kind]
	if !ok {
		status = fiber.StatusInternalServerError
	}

	message := "Internal server error!"
	var data interface{}
	var e *apperr.Error
	if errors.As(err, &e) {
		if kind != apperr.Internal {
			message = e.Message
		}
		if e.Details != nil {
			data = e.Details
		}
	}

	if kind == apperr.Internal && log != nil {
		log.Request(c.Locals("requestid")).Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	}
	return JsonResponse(c, status, false, message, data)
}
