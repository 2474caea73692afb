// Package testutil: fixture bersama untuk test service & handler (store in-memory).
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"schoolku_backend/internals/databases/inmem"
	auditSvc "schoolku_backend/internals/features/audit/service"
	peopleModel "schoolku_backend/internals/features/people/model"
	peopleSvc "schoolku_backend/internals/features/people/service"
	seqSvc "schoolku_backend/internals/features/sequences/service"
)

const BranchCode = "DHK001"

type Env struct {
	DB       *inmem.DB
	Audit    *auditSvc.Recorder
	Seq      *seqSvc.Generator
	Registry *peopleSvc.Registry
	Branch   *peopleModel.BranchModel
}

// NewEnv: satu branch DHK001 (timezone UTC supaya test tidak butuh tzdata).
func NewEnv(t *testing.T) *Env {
	t.Helper()
	db := inmem.New()
	audit := auditSvc.NewRecorder(db.Audit(), zap.NewNop())
	seq := seqSvc.NewGenerator(db.Sequences())
	reg := peopleSvc.NewRegistry(db.People(), seq, audit, zap.NewNop())

	b, err := reg.CreateBranch(context.Background(), peopleSvc.NewBranch{
		Code:     BranchCode,
		Name:     "Dhaka Main",
		Timezone: "UTC",
	})
	require.NoError(t, err)

	return &Env{DB: db, Audit: audit, Seq: seq, Registry: reg, Branch: b}
}

func (e *Env) BranchID() uuid.UUID { return e.Branch.BranchID }

// Student onboard student baru; batchID nil → batch baru.
func (e *Env) Student(t *testing.T, name, period string, total, monthly int64, admission time.Time, batchID *uuid.UUID) *peopleModel.PersonModel {
	t.Helper()
	if batchID == nil {
		id := uuid.New()
		batchID = &id
	}
	p, _, err := e.Registry.Onboard(context.Background(), e.BranchID(), peopleSvc.NewPerson{
		Kind:          peopleModel.PersonKindStudent,
		Name:          name,
		BatchID:       batchID,
		BatchPeriod:   &period,
		AdmissionDate: &admission,
		MonthlyFee:    decimal.NewFromInt(monthly),
		TotalFees:     decimal.NewFromInt(total),
	}, nil)
	require.NoError(t, err)
	return p
}

func (e *Env) Staff(t *testing.T, name string, kind peopleModel.PersonKind) *peopleModel.PersonModel {
	t.Helper()
	p, _, err := e.Registry.Onboard(context.Background(), e.BranchID(), peopleSvc.NewPerson{
		Kind: kind,
		Name: name,
	}, nil)
	require.NoError(t, err)
	return p
}

// AuditActions: daftar "entity/action" sesuai urutan insert.
func (e *Env) AuditActions() []string {
	logs := e.DB.AuditLogs()
	out := make([]string, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.AuditLogEntity+"/"+l.AuditLogAction)
	}
	return out
}

// Clock: jam palsu yang bisa dimajukan dari test.
type Clock struct{ T time.Time }

func (c *Clock) Now() time.Time { return c.T }

func (c *Clock) Set(t time.Time) { c.T = t }
