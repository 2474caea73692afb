package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"schoolku_backend/internals/configs"
	database "schoolku_backend/internals/databases"
	attendanceSvc "schoolku_backend/internals/features/attendance/service"
	feeScheduler "schoolku_backend/internals/features/finance/fees/scheduler"
	helper "schoolku_backend/internals/helpers"
	middlewares "schoolku_backend/internals/middlewares"
	routes "schoolku_backend/internals/route"
)

func main() {
	cfg := configs.Load()
	lg := configs.NewLogger(cfg)
	defer func() { _ = lg.Sync() }()

	cutoffs, err := attendanceSvc.NewCutoffTable(cfg.AttendanceCutoffs)
	if err != nil {
		lg.Fatal("invalid attendance cutoffs", zap.Error(err))
	}

	// DB connect + pool + migrate + warm-up
	db, err := database.Connect(cfg.DB, lg)
	if err != nil {
		lg.Fatal("db connect failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		lg.Fatal("db migrate failed", zap.Error(err))
	}
	database.WarmUp(db, lg)

	svc := routes.NewServices(routes.GormStores(db), cutoffs, lg)

	app := fiber.New(fiber.Config{
		// JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ErrorHandler:            helper.ErrorHandler(lg),
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"}, // sesuaikan dengan CIDR Cloudflare jika perlu
	})
	middlewares.SetupMiddlewares(app, cfg, lg)

	routes.SetupRoutes(app, svc, routes.RouteOptions{
		JWTSecret: cfg.JWTSecret,
		Health:    func(ctx context.Context) error { return database.Ping(ctx, db) },
	})

	// scheduler setelah DB siap
	audit, err := feeScheduler.StartLedgerAuditCron(cfg.LedgerAuditCron, svc.Fees, lg)
	if err != nil {
		lg.Fatal("ledger audit cron", zap.Error(err))
	}

	// Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		lg.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown: stop cron → HTTP → pool DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdown(app, audit.Stop(), db, lg)
}

func shutdown(app *fiber.App, cronDone context.Context, db *gorm.DB, lg *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		lg.Warn("http shutdown", zap.Error(err))
	}
	select {
	case <-cronDone.Done():
	case <-ctx.Done():
		lg.Warn("ledger audit still running at shutdown")
	}
	database.Close(db)
	lg.Info("bye")
}
