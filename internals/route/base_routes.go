package routes

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schoolku_backend/internals/helpers/metrics"
)

// HealthFunc: nil = tanpa cek DB (mis. mode inmem)
type HealthFunc func(ctx context.Context) error

func BaseRoutes(app *fiber.App, health HealthFunc) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("schoolku attendance & fee ledger API")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "Connected"
		serverStatus := "OK"
		httpStatus := fiber.StatusOK

		if health != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := health(ctx); err != nil {
				dbStatus = "Database connection error"
				serverStatus = "DOWN"
				httpStatus = fiber.StatusServiceUnavailable
			}
		}

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         serverStatus,
			"database":       dbStatus,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": time.Since(startTime).Seconds(),
			"environment":    os.Getenv("APP_ENV"),
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
}
