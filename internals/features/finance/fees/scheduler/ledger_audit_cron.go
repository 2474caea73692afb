package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"schoolku_backend/internals/features/finance/fees/service"
)

const DefaultLedgerAuditSchedule = "30 1 * * *"

// ── ENTRYPOINT: panggil dari main.go, Stop() saat shutdown
func StartLedgerAuditCron(schedule string, fees *service.FeeLedger, log *zap.Logger) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultLedgerAuditSchedule
	}
	lg := log.Named("ledger-audit")

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
		defer cancel()
		RunLedgerAudit(ctx, fees, lg)
	})
	if err != nil {
		return nil, err
	}
	lg.Info("started", zap.String("schedule", schedule))
	c.Start()
	return c, nil
}

// RunLedgerAudit: satu putaran verifikasi semua branch.
func RunLedgerAudit(ctx context.Context, fees *service.FeeLedger, lg *zap.Logger) *service.VerifyReport {
	start := time.Now()
	rep, err := fees.VerifyLedgers(ctx, nil)
	if err != nil {
		lg.Error("verify failed", zap.Error(err))
		return nil
	}
	lg.Info("done",
		zap.Int("checked", rep.Checked),
		zap.Int("drifts", len(rep.Drifts)),
		zap.Duration("took", time.Since(start)),
	)
	return rep
}
