package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"schoolku_backend/internals/features/finance/fees/service"
	"schoolku_backend/internals/testutil"
)

func TestRunLedgerAudit(t *testing.T) {
	env := testutil.NewEnv(t)
	fees := service.NewFeeLedger(env.DB.Fees(), env.Registry, env.Seq, env.Audit, nil)
	env.Student(t, "Rahim", "AM", 5000, 500, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), nil)

	core, logs := observer.New(zap.InfoLevel)
	rep := RunLedgerAudit(context.Background(), fees, zap.New(core))
	require.NotNil(t, rep)
	assert.Equal(t, 1, rep.Checked)
	assert.Empty(t, rep.Drifts)
	assert.Equal(t, 1, logs.FilterMessage("done").Len())
}

func TestStartLedgerAuditCron(t *testing.T) {
	env := testutil.NewEnv(t)
	fees := service.NewFeeLedger(env.DB.Fees(), env.Registry, env.Seq, env.Audit, nil)

	c, err := StartLedgerAuditCron("", fees, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)
	<-c.Stop().Done()

	_, err = StartLedgerAuditCron("every tuesday", fees, zap.NewNop())
	assert.Error(t, err)
}
