package middlewares

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// RecoveryMiddleware: panic → 500, dicatat lewat zap bersama request id.
// stack hanya disertakan di luar production.
func RecoveryMiddleware(lg *zap.Logger, withStack bool) fiber.Handler {
	if lg == nil {
		lg = zap.NewNop()
	}
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			fields := []zap.Field{
				zap.Any("panic", e),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Any("request_id", c.Locals("requestid")),
			}
			if withStack {
				fields = append(fields, zap.ByteString("stack", debug.Stack()))
			}
			lg.Error("panic recovered", fields...)
		},
	})
}
