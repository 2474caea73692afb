package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	feeSvc "schoolku_backend/internals/features/finance/fees/service"
)

type fakeLedger struct {
	drifts      []feeSvc.Drift
	verifiedFor *uuid.UUID
	rebuilt     string
	rebuildErr  error
}

func (f *fakeLedger) VerifyLedgers(_ context.Context, branchID *uuid.UUID) (*feeSvc.VerifyReport, error) {
	f.verifiedFor = branchID
	return &feeSvc.VerifyReport{Checked: 3, Drifts: f.drifts}, nil
}

func (f *fakeLedger) RebuildLedger(_ context.Context, _ uuid.UUID, ref string, _ *uuid.UUID) (*feeSvc.RebuildResult, error) {
	f.rebuilt = ref
	if f.rebuildErr != nil {
		return nil, f.rebuildErr
	}
	return &feeSvc.RebuildResult{Changed: true}, nil
}

func setup(fees *fakeLedger) (*commandLine, *bytes.Buffer, *bool) {
	out := &bytes.Buffer{}
	migrated := false
	return &commandLine{
		fees:    fees,
		migrate: func(context.Context) error { migrated = true; return nil },
		out:     out,
	}, out, &migrated
}

type cliTest struct {
	name    string
	args    []string // tanpa nama program
	wantErr error
}

func Test_commandLine_usage(t *testing.T) {
	cli, _, _ := setup(&fakeLedger{})

	tests := []cliTest{
		{name: "no command", args: nil, wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "verify: bad branch", args: []string{"verify-ledger", "-branch", "nope"}, wantErr: errHelp},
		{name: "verify: unknown flag", args: []string{"verify-ledger", "-x"}, wantErr: errHelp},
		{name: "rebuild: no student", args: []string{"rebuild-ledger", "-branch", uuid.NewString()}, wantErr: errHelp},
		{name: "rebuild: no branch", args: []string{"rebuild-ledger", "-student", "DHK001-2026-001"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(context.Background(), append([]string{"ledgerctl"}, tt.args...))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, out, migrated := setup(&fakeLedger{})
	require.NoError(t, cli.run(context.Background(), []string{"ledgerctl", "migrate"}))
	assert.True(t, *migrated)
	assert.Contains(t, out.String(), "migrated")
}

func Test_commandLine_verify(t *testing.T) {
	fees := &fakeLedger{}
	cli, out, _ := setup(fees)

	require.NoError(t, cli.run(context.Background(), []string{"ledgerctl", "verify-ledger"}))
	assert.Nil(t, fees.verifiedFor)
	assert.Contains(t, out.String(), `"checked": 3`)

	branch := uuid.New()
	fees.drifts = []feeSvc.Drift{{PaidDrift: decimal.NewFromInt(-250)}}
	err := cli.run(context.Background(), []string{"ledgerctl", "verify-ledger", "-branch", branch.String()})
	assert.ErrorIs(t, err, errDrift)
	require.NotNil(t, fees.verifiedFor)
	assert.Equal(t, branch, *fees.verifiedFor)
}

func Test_commandLine_rebuild(t *testing.T) {
	fees := &fakeLedger{}
	cli, out, _ := setup(fees)

	args := []string{"ledgerctl", "rebuild-ledger", "-branch", uuid.NewString(), "-student", "DHK001-2026-001"}
	require.NoError(t, cli.run(context.Background(), args))
	assert.Equal(t, "DHK001-2026-001", fees.rebuilt)
	assert.Contains(t, out.String(), `"changed": true`)

	fees.rebuildErr = errors.New("payments exceed total fees")
	err := cli.run(context.Background(), args)
	assert.EqualError(t, err, "payments exceed total fees")
}
