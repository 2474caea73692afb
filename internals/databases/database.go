package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"schoolku_backend/internals/configs"
	attendanceModel "schoolku_backend/internals/features/attendance/model"
	auditModel "schoolku_backend/internals/features/audit/model"
	feeModel "schoolku_backend/internals/features/finance/fees/model"
	peopleModel "schoolku_backend/internals/features/people/model"
	seqModel "schoolku_backend/internals/features/sequences/model"
)

func Connect(cfg configs.DBConfig, lg *zap.Logger) (*gorm.DB, error) {
	lg.Info("connecting postgres", zap.String("host", cfg.Host), zap.String("db", cfg.Name))

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // cocok untuk PgBouncer (transaction pooling)
	}), &gorm.Config{
		Logger:                 configs.NewGormLogger(lg, cfg.SlowThreshold),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := TunePool(db, cfg); err != nil {
		return nil, err
	}
	lg.Info("db connected")
	return db, nil
}

func TunePool(db *gorm.DB, cfg configs.DBConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("pool tune: %w", err)
	}
	// sesuaikan dengan limit Supabase/PgBouncer
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return nil
}

// WarmUp: ping ringan supaya pool terisi sebelum request pertama.
func WarmUp(db *gorm.DB, lg *zap.Logger) {
	go func() {
		time.Sleep(500 * time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := Ping(ctx, db); err != nil {
			lg.Warn("warm-up ping failed", zap.Error(err))
		}
	}()
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Migrate: AutoMigrate tabel + index parsial yang tidak bisa diekspresikan lewat tag.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("extension pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&peopleModel.BranchModel{},
		&peopleModel.PersonModel{},
		&attendanceModel.AttendanceRecordModel{},
		&feeModel.PaymentModel{},
		&seqModel.SequenceCounterModel{},
		&auditModel.AuditLogModel{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	stmts := []string{
		// roster aktif per period (absentee)
		`CREATE INDEX IF NOT EXISTS idx_persons_active_period
		   ON persons (person_branch_id, person_kind, person_batch_period)
		   WHERE person_is_active = TRUE AND person_deleted_at IS NULL`,
		// riwayat per person
		`CREATE INDEX IF NOT EXISTS idx_attendance_records_person_date
		   ON attendance_records (attendance_record_branch_id, attendance_record_person_id, attendance_record_date)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_branch_period
		   ON payments (payment_branch_id, payment_year, payment_month)`,
		// check-out tidak boleh sebelum check-in
		`DO $$ BEGIN
		   ALTER TABLE attendance_records ADD CONSTRAINT chk_attendance_records_checkout
		     CHECK (attendance_record_check_out_at IS NULL OR attendance_record_check_out_at >= attendance_record_check_in_at);
		 EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	}
	for _, s := range stmts {
		if err := db.Exec(s).Error; err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
