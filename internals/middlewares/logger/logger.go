package logger

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

// LoggerMiddleware untuk mencatat semua request (format akses log)
func LoggerMiddleware(timezone string) fiber.Handler {
	if timezone == "" {
		timezone = "Asia/Dhaka"
	}
	return logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   timezone,
		Format:     "[${time}] ${ip} - ${locals:requestid} ${method} ${path} - ${status} - ${latency}\n",
	})
}

// ZapErrorLogger: request yang berakhir 5xx dicatat terstruktur via zap.
func ZapErrorLogger(lg *zap.Logger) fiber.Handler {
	lg = lg.Named("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		if status >= fiber.StatusInternalServerError {
			lg.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.Any("request_id", c.Locals("requestid")),
				zap.Error(err),
			)
		}
		return err
	}
}
