package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"schoolku_backend/internals/configs"
	"schoolku_backend/internals/middlewares/logger"
)

// SetupMiddlewares: urutan penting (recover paling luar, request id sebelum logger).
func SetupMiddlewares(app *fiber.App, cfg configs.Config, lg *zap.Logger) {
	app.Use(RecoveryMiddleware(lg, cfg.Env != "production"))
	app.Use(requestid.New(requestid.Config{Generator: utils.UUIDv4}))
	app.Use(logger.LoggerMiddleware(cfg.DefaultTimezone))
	app.Use(logger.ZapErrorLogger(lg))
	app.Use(CorsMiddleware(cfg.CorsOrigins))
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault})) // gzip
	app.Use(etag.New())                                                  // 304 caching
	app.Use(RequestTimeout(cfg.RequestTimeout))
	app.Use(GlobalRateLimiter())
}
