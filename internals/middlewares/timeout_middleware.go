package middlewares

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestTimeout: HTTP timeout guard (selaras dengan statement_timeout di DB).
// Service memakai c.UserContext(), jadi query ikut dibatalkan saat lewat batas.
func RequestTimeout(d time.Duration) fiber.Handler {
	if d <= 0 {
		d = 5 * time.Second
	}
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
