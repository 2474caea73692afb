package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Global limiter: untuk semua endpoint biasa
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":    false,
				"message":    "❌ Terlalu banyak permintaan. Silakan coba lagi nanti.",
				"error_code": "TOO_MANY_REQUESTS",
			})
		},
	})
}

// Scan limiter: kiosk QR/face satu IP bisa scan banyak orang, jadi lebih longgar
// tapi per (IP, branch).
func ScanRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        600,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + c.Params("branch_id")
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":    false,
				"message":    "❌ Terlalu banyak scan. Tunggu sebentar.",
				"error_code": "TOO_MANY_REQUESTS",
			})
		},
	})
}
