package main

import (
	"context"
	"errors"
	"os"
	"time"

	"go.uber.org/zap"

	"schoolku_backend/internals/configs"
	database "schoolku_backend/internals/databases"
	auditRepo "schoolku_backend/internals/features/audit/repository"
	auditSvc "schoolku_backend/internals/features/audit/service"
	feeRepo "schoolku_backend/internals/features/finance/fees/repository"
	feeSvc "schoolku_backend/internals/features/finance/fees/service"
	peopleRepo "schoolku_backend/internals/features/people/repository"
	peopleSvc "schoolku_backend/internals/features/people/service"
	seqRepo "schoolku_backend/internals/features/sequences/repository"
	seqSvc "schoolku_backend/internals/features/sequences/service"
)

func main() {
	cfg := configs.Load()
	lg := configs.NewLogger(cfg)
	defer func() { _ = lg.Sync() }()

	db, err := database.Connect(cfg.DB, lg)
	if err != nil {
		lg.Fatal("db connect failed", zap.Error(err))
	}
	defer database.Close(db)

	audit := auditSvc.NewRecorder(auditRepo.NewAuditRepository(db), lg)
	seq := seqSvc.NewGenerator(seqRepo.NewSequenceRepository(db))
	reg := peopleSvc.NewRegistry(peopleRepo.NewPeopleRepository(db), seq, audit, lg)

	cli := &commandLine{
		fees:    feeSvc.NewFeeLedger(feeRepo.NewFeeRepository(db), reg, seq, audit, lg),
		migrate: func(context.Context) error { return database.Migrate(db) },
		out:     os.Stdout,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := cli.run(ctx, os.Args); err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(2)
		}
		lg.Error("ledgerctl failed", zap.Error(err))
		os.Exit(1)
	}
}
