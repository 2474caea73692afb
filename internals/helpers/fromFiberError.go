package helper

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"schoolku_backend/internals/helpers/apperrors"
)

// ErrorHandler dipasang sebagai fiber.Config.ErrorHandler.
// Error yang lolos dari handler/middleware (401 dari AuthJWT, 404 route, panic)
// dirender dengan shape JsonAppError; 5xx dicatat ke lg.
func ErrorHandler(lg *zap.Logger) fiber.ErrorHandler {
	if lg == nil {
		lg = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
			return JsonError(c, fe.Code, fe.Message)
		}
		if apperrors.Status(err) >= fiber.StatusInternalServerError {
			lg.Error("unhandled error",
				zap.Error(err),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Any("request_id", c.Locals("requestid")),
			)
		}
		return JsonAppError(c, err, nil)
	}
}

var nopErrorHandler = ErrorHandler(nil)

// FromFiberError: ErrorHandler tanpa logger (test, tool kecil).
func FromFiberError(c *fiber.Ctx, err error) error {
	return nopErrorHandler(c, err)
}
