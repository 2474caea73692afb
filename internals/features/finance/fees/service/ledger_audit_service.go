package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	auditSvc "schoolku_backend/internals/features/audit/service"
	peopleModel "schoolku_backend/internals/features/people/model"
	"schoolku_backend/internals/helpers/apperrors"
	"schoolku_backend/internals/helpers/metrics"
)

// Drift: student yang ledger-nya tidak cocok dengan stream payment.
type Drift struct {
	LedgerRow
	// paid − Σnet
	PaidDrift decimal.Decimal `json:"paid_drift"`
	// (paid + due) − total
	ConservationDrift decimal.Decimal `json:"conservation_drift"`
}

type VerifyReport struct {
	Checked int     `json:"checked"`
	Drifts  []Drift `json:"drifts"`
}

// CheckRow: pure.
func CheckRow(r LedgerRow) (Drift, bool) {
	d := Drift{
		LedgerRow:         r,
		PaidDrift:         r.Paid.Sub(r.SumNet),
		ConservationDrift: r.Paid.Add(r.Due).Sub(r.Total),
	}
	ok := d.PaidDrift.IsZero() && d.ConservationDrift.IsZero() &&
		!r.Paid.IsNegative() && !r.Due.IsNegative()
	return d, !ok
}

// VerifyLedgers: read-only, dipanggil cron / CLI / endpoint owner.
func (f *FeeLedger) VerifyLedgers(ctx context.Context, branchID *uuid.UUID) (*VerifyReport, error) {
	rows, err := f.store.LedgerSnapshot(ctx, branchID)
	if err != nil {
		return nil, err
	}
	rep := &VerifyReport{Checked: len(rows), Drifts: make([]Drift, 0)}
	for _, r := range rows {
		if d, bad := CheckRow(r); bad {
			rep.Drifts = append(rep.Drifts, d)
		}
	}
	if branchID == nil {
		metrics.LedgerDrift.Set(float64(len(rep.Drifts)))
	}
	for _, d := range rep.Drifts {
		f.log.Warn("ledger drift",
			zap.String("branch_id", d.BranchID.String()),
			zap.String("student", d.PersonCode),
			zap.String("paid", d.Paid.StringFixed(2)),
			zap.String("sum_net", d.SumNet.StringFixed(2)),
			zap.String("due", d.Due.StringFixed(2)),
			zap.String("total", d.Total.StringFixed(2)),
		)
	}
	return rep, nil
}

type RebuildResult struct {
	StudentID uuid.UUID               `json:"student_id"`
	Before    peopleModel.LedgerState `json:"before"`
	After     peopleModel.LedgerState `json:"after"`
	Changed   bool                    `json:"changed"`
}

// RebuildLedger: paid = Σnet payment, due = total − paid.
// Kalau Σnet > total, ledger tidak bisa seimbang → ErrLedgerInvariant (tidak ditulis).
func (f *FeeLedger) RebuildLedger(ctx context.Context, branchID uuid.UUID, ref string, actor *uuid.UUID) (res *RebuildResult, err error) {
	defer func() { ledgerOp("rebuild", outcomeOf(err)) }()

	student, err := f.resolveStudent(ctx, branchID, ref, false)
	if err != nil {
		return nil, err
	}

	res = &RebuildResult{StudentID: student.PersonID}
	err = f.store.InTx(ctx, func(tx Tx) error {
		p, err := tx.LockStudent(branchID, student.PersonID)
		if err != nil {
			return err
		}
		res.Before = p.Ledger()

		sum, err := tx.SumNet(branchID, student.PersonID)
		if err != nil {
			return err
		}
		due := p.PersonTotalFees.Sub(sum)
		if due.IsNegative() {
			return fmt.Errorf("%s: payments %s exceed total fees %s: %w",
				p.PersonCode, sum.StringFixed(2), p.PersonTotalFees.StringFixed(2), apperrors.ErrLedgerInvariant)
		}

		res.After = peopleModel.LedgerState{
			TotalFees:       p.PersonTotalFees,
			PaidAmount:      sum,
			DueAmount:       due,
			LastPaymentDate: p.PersonLastPaymentAt,
		}
		res.Changed = !sum.Equal(p.PersonPaidAmount) || !due.Equal(p.PersonDueAmount)
		if !res.Changed {
			return nil
		}
		return tx.SetLedger(branchID, student.PersonID, sum, due)
	})
	if err != nil {
		return nil, err
	}

	if res.Changed {
		f.audit.Record(auditSvc.Entry{
			BranchID: branchID,
			ActorID:  actor,
			Entity:   "person_ledger",
			EntityID: student.PersonID,
			Action:   "rebuild",
			Change:   auditSvc.Change{OldData: res.Before, NewData: res.After},
		})
	}
	return res, nil
}
