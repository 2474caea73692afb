// file: internals/features/finance/fees/service/fee_ledger_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	auditSvc "schoolku_backend/internals/features/audit/service"
	"schoolku_backend/internals/features/finance/fees/model"
	peopleModel "schoolku_backend/internals/features/people/model"
	seqSvc "schoolku_backend/internals/features/sequences/service"
	"schoolku_backend/internals/helpers/apperrors"
	"schoolku_backend/internals/helpers/dbtime"
	"schoolku_backend/internals/helpers/metrics"
)

/* ===================== Ports ===================== */

// Tx: operasi di dalam satu transaksi DB.
type Tx interface {
	InsertPayment(p *model.PaymentModel) error
	// LockPayment: SELECT ... FOR UPDATE
	LockPayment(branchID, paymentID uuid.UUID) (*model.PaymentModel, error)
	UpdatePayment(p *model.PaymentModel) error
	DeletePayment(branchID, paymentID uuid.UUID) error

	// ApplyDelta: paid += delta, due = GREATEST(0, due − delta) secara atomik.
	// delta > 0 dijaga due >= delta; delta < 0 dijaga paid >= |delta|.
	ApplyDelta(branchID, studentID uuid.UUID, delta decimal.Decimal, at time.Time) (peopleModel.LedgerState, error)

	LockStudent(branchID, studentID uuid.UUID) (*peopleModel.PersonModel, error)
	SumNet(branchID, studentID uuid.UUID) (decimal.Decimal, error)
	SetLedger(branchID, studentID uuid.UUID, paid, due decimal.Decimal) error
}

type PaymentFilter struct {
	StudentID *uuid.UUID
	Year      int
	Month     int
	Limit     int
	Offset    int
}

// LedgerRow: snapshot satu student untuk audit ledger.
type LedgerRow struct {
	BranchID   uuid.UUID       `json:"branch_id"`
	StudentID  uuid.UUID       `json:"student_id"`
	PersonCode string          `json:"person_code"`
	Total      decimal.Decimal `json:"total_fees"`
	Paid       decimal.Decimal `json:"paid_amount"`
	Due        decimal.Decimal `json:"due_amount"`
	SumNet     decimal.Decimal `json:"sum_net"`
}

type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	GetPayment(ctx context.Context, branchID, paymentID uuid.UUID) (*model.PaymentModel, error)
	ListPayments(ctx context.Context, branchID uuid.UUID, f PaymentFilter) ([]model.PaymentModel, int64, error)
	// LedgerSnapshot: branchID nil = semua branch
	LedgerSnapshot(ctx context.Context, branchID *uuid.UUID) ([]LedgerRow, error)
}

// PersonDirectory dipenuhi people/service.Registry.
type PersonDirectory interface {
	Resolve(ctx context.Context, branchID uuid.UUID, ref string) (*peopleModel.PersonModel, error)
	ResolveActive(ctx context.Context, branchID uuid.UUID, ref string) (*peopleModel.PersonModel, error)
	GetBranch(ctx context.Context, branchID uuid.UUID) (*peopleModel.BranchModel, error)
}

/* ===================== Service ===================== */

type FeeLedger struct {
	store  Store
	people PersonDirectory
	seq    *seqSvc.Generator
	audit  *auditSvc.Recorder
	log    *zap.Logger
	now    func() time.Time
}

func NewFeeLedger(store Store, people PersonDirectory, seq *seqSvc.Generator, audit *auditSvc.Recorder, log *zap.Logger) *FeeLedger {
	if log == nil {
		log = zap.NewNop()
	}
	return &FeeLedger{store: store, people: people, seq: seq, audit: audit, log: log.Named("fees"), now: time.Now}
}

func (f *FeeLedger) WithClock(now func() time.Time) *FeeLedger {
	f.now = now
	return f
}

func ledgerOp(op, outcome string) {
	metrics.LedgerOps.WithLabelValues(op, outcome).Inc()
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(apperrors.Code(err))
}

type RecordInput struct {
	BranchID    uuid.UUID
	StudentRef  string
	Amount      decimal.Decimal
	Discount    decimal.Decimal
	Month       int // 0 → bulan berjalan
	Year        int
	Method      string
	Description *string
	CollectedBy *uuid.UUID
}

type PaymentResult struct {
	Payment *model.PaymentModel     `json:"payment"`
	Ledger  peopleModel.LedgerState `json:"ledger"`
	Audit   auditSvc.Change         `json:"-"`
}

func (f *FeeLedger) resolveStudent(ctx context.Context, branchID uuid.UUID, ref string, active bool) (*peopleModel.PersonModel, error) {
	var (
		p   *peopleModel.PersonModel
		err error
	)
	if active {
		p, err = f.people.ResolveActive(ctx, branchID, ref)
	} else {
		p, err = f.people.Resolve(ctx, branchID, ref)
	}
	if err != nil {
		return nil, err
	}
	if p.PersonKind != peopleModel.PersonKindStudent {
		return nil, fmt.Errorf("%s is not a student: %w", p.PersonCode, apperrors.ErrNotFound)
	}
	return p, nil
}

/* ===================== RecordPayment ===================== */

func (f *FeeLedger) RecordPayment(ctx context.Context, in RecordInput) (res *PaymentResult, err error) {
	defer func() { ledgerOp("record", outcomeOf(err)) }()

	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be > 0: %w", apperrors.ErrInvalidAmount)
	}
	if in.Discount.IsNegative() {
		return nil, fmt.Errorf("discount must be >= 0: %w", apperrors.ErrInvalidAmount)
	}
	method := strings.ToLower(strings.TrimSpace(in.Method))
	if method == "" {
		method = model.PaymentMethodCash
	}
	if !model.ValidPaymentMethod(method) {
		return nil, apperrors.Invalid("unknown payment method %q", in.Method)
	}

	student, err := f.resolveStudent(ctx, in.BranchID, in.StudentRef, true)
	if err != nil {
		return nil, err
	}
	branch, err := f.people.GetBranch(ctx, in.BranchID)
	if err != nil {
		return nil, err
	}

	now := f.now()
	local := now.In(dbtime.LoadLocation(branch.BranchTimezone))
	month, year := in.Month, in.Year
	if month == 0 {
		month = int(local.Month())
	}
	if year == 0 {
		year = local.Year()
	}
	if month < 1 || month > 12 {
		return nil, apperrors.Invalid("month must be 1..12")
	}

	net := model.NetOf(in.Amount, in.Discount)
	if net.GreaterThan(student.PersonDueAmount) {
		return nil, fmt.Errorf("net %s exceeds outstanding due %s: %w", net.StringFixed(2), student.PersonDueAmount.StringFixed(2), apperrors.ErrInvalidAmount)
	}

	// nomor kwitansi diambil di luar transaksi; kalau transaksi gagal nomornya hangus
	receipt, err := f.seq.Next(ctx, branch.BranchCode, seqSvc.KindReceipt, local)
	if err != nil {
		return nil, err
	}

	p := &model.PaymentModel{
		PaymentBranchID:      in.BranchID,
		PaymentStudentID:     student.PersonID,
		PaymentAmount:        in.Amount,
		PaymentDiscount:      in.Discount,
		PaymentNetAmount:     net,
		PaymentReceiptNumber: receipt,
		PaymentCollectedBy:   in.CollectedBy,
		PaymentMonth:         month,
		PaymentYear:          year,
		PaymentMethod:        method,
		PaymentDescription:   in.Description,
	}

	var ledger peopleModel.LedgerState
	err = f.store.InTx(ctx, func(tx Tx) error {
		if err := tx.InsertPayment(p); err != nil {
			return err
		}
		st, err := tx.ApplyDelta(in.BranchID, student.PersonID, net, now)
		if err != nil {
			return err
		}
		ledger = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	change := auditSvc.Change{OldData: student.Ledger(), NewData: paymentAudit(p, ledger)}
	f.audit.Record(auditSvc.Entry{
		BranchID: in.BranchID,
		ActorID:  in.CollectedBy,
		Entity:   "payment",
		EntityID: p.PaymentID,
		Action:   "create",
		Change:   change,
	})
	return &PaymentResult{Payment: p, Ledger: ledger, Audit: change}, nil
}

// paymentAudit: bentuk new_data audit untuk payment + ledger
func paymentAudit(p *model.PaymentModel, l peopleModel.LedgerState) map[string]any {
	return map[string]any{"payment": p, "ledger": l}
}

/* ===================== AmendPayment ===================== */

type AmendInput struct {
	BranchID    uuid.UUID
	PaymentID   uuid.UUID
	Amount      *decimal.Decimal
	Discount    *decimal.Decimal
	Description *string
	Actor       *uuid.UUID
}

// AmendPayment: ledger digeser sebesar delta net saja, tidak pernah dihitung ulang.
func (f *FeeLedger) AmendPayment(ctx context.Context, in AmendInput) (res *PaymentResult, change auditSvc.Change, err error) {
	defer func() { ledgerOp("amend", outcomeOf(err)) }()

	if in.Amount == nil && in.Discount == nil && in.Description == nil {
		return nil, change, apperrors.Invalid("nothing to amend")
	}
	if in.Amount != nil && !in.Amount.IsPositive() {
		return nil, change, fmt.Errorf("amount must be > 0: %w", apperrors.ErrInvalidAmount)
	}
	if in.Discount != nil && in.Discount.IsNegative() {
		return nil, change, fmt.Errorf("discount must be >= 0: %w", apperrors.ErrInvalidAmount)
	}

	now := f.now()
	var (
		before  model.PaymentModel
		updated *model.PaymentModel
		ledger  peopleModel.LedgerState
	)
	err = f.store.InTx(ctx, func(tx Tx) error {
		p, err := tx.LockPayment(in.BranchID, in.PaymentID)
		if err != nil {
			return err
		}
		before = *p

		if in.Amount != nil {
			p.PaymentAmount = *in.Amount
		}
		if in.Discount != nil {
			p.PaymentDiscount = *in.Discount
		}
		if in.Description != nil {
			p.PaymentDescription = in.Description
		}
		p.PaymentNetAmount = model.NetOf(p.PaymentAmount, p.PaymentDiscount)

		delta := p.PaymentNetAmount.Sub(before.PaymentNetAmount)
		st, err := tx.ApplyDelta(in.BranchID, p.PaymentStudentID, delta, now)
		if err != nil {
			return err
		}
		if err := tx.UpdatePayment(p); err != nil {
			return err
		}
		updated, ledger = p, st
		return nil
	})
	if err != nil {
		return nil, change, err
	}

	change = auditSvc.Change{OldData: &before, NewData: updated}
	f.audit.Record(auditSvc.Entry{
		BranchID: in.BranchID,
		ActorID:  in.Actor,
		Entity:   "payment",
		EntityID: in.PaymentID,
		Action:   "amend",
		Change:   change,
	})
	return &PaymentResult{Payment: updated, Ledger: ledger}, change, nil
}

/* ===================== ReversePayment ===================== */

// ReversePayment: terapkan delta kebalikan lalu hapus payment (hard delete).
func (f *FeeLedger) ReversePayment(ctx context.Context, branchID, paymentID uuid.UUID, actor *uuid.UUID) (ledger peopleModel.LedgerState, change auditSvc.Change, err error) {
	defer func() { ledgerOp("reverse", outcomeOf(err)) }()

	now := f.now()
	var removed model.PaymentModel
	err = f.store.InTx(ctx, func(tx Tx) error {
		p, err := tx.LockPayment(branchID, paymentID)
		if err != nil {
			return err
		}
		removed = *p
		st, err := tx.ApplyDelta(branchID, p.PaymentStudentID, p.PaymentNetAmount.Neg(), now)
		if err != nil {
			return err
		}
		if err := tx.DeletePayment(branchID, paymentID); err != nil {
			return err
		}
		ledger = st
		return nil
	})
	if err != nil {
		return ledger, change, err
	}

	change = auditSvc.Change{OldData: &removed, NewData: map[string]any{"ledger": ledger}}
	f.audit.Record(auditSvc.Entry{
		BranchID: branchID,
		ActorID:  actor,
		Entity:   "payment",
		EntityID: paymentID,
		Action:   "reverse",
		Change:   change,
	})
	return ledger, change, nil
}

/* ===================== Reads ===================== */

// ExpectedDue: pure. Bulan admisi ikut dihitung.
// max(0, bulanSejakAdmisi × monthlyFee − paid)
func ExpectedDue(admission, asOf time.Time, monthlyFee, paid decimal.Decimal) decimal.Decimal {
	months := MonthsSinceAdmission(admission, asOf)
	exp := monthlyFee.Mul(decimal.NewFromInt(int64(months))).Sub(paid)
	if exp.IsNegative() {
		return decimal.Zero
	}
	return exp
}

func MonthsSinceAdmission(admission, asOf time.Time) int {
	if admission.IsZero() || asOf.Before(admission) {
		return 0
	}
	return (asOf.Year()-admission.Year())*12 + int(asOf.Month()) - int(admission.Month()) + 1
}

type StudentLedger struct {
	StudentID   uuid.UUID               `json:"student_id"`
	PersonCode  string                  `json:"person_code"`
	PersonName  string                  `json:"person_name"`
	Ledger      peopleModel.LedgerState `json:"ledger"`
	MonthlyFee  decimal.Decimal         `json:"monthly_fee"`
	ExpectedDue decimal.Decimal         `json:"expected_due"`
	Payments    []model.PaymentModel    `json:"payments"`
}

func (f *FeeLedger) StudentLedger(ctx context.Context, branchID uuid.UUID, ref string) (*StudentLedger, error) {
	p, err := f.resolveStudent(ctx, branchID, ref, false)
	if err != nil {
		return nil, err
	}
	rows, _, err := f.store.ListPayments(ctx, branchID, PaymentFilter{StudentID: &p.PersonID})
	if err != nil {
		return nil, err
	}
	out := &StudentLedger{
		StudentID:   p.PersonID,
		PersonCode:  p.PersonCode,
		PersonName:  p.PersonName,
		Ledger:      p.Ledger(),
		MonthlyFee:  p.PersonMonthlyFee,
		ExpectedDue: decimal.Zero,
		Payments:    rows,
	}
	if p.PersonAdmissionDate != nil {
		out.ExpectedDue = ExpectedDue(*p.PersonAdmissionDate, f.now(), p.PersonMonthlyFee, p.PersonPaidAmount)
	}
	return out, nil
}

func (f *FeeLedger) GetPayment(ctx context.Context, branchID, paymentID uuid.UUID) (*model.PaymentModel, error) {
	return f.store.GetPayment(ctx, branchID, paymentID)
}

func (f *FeeLedger) ListPayments(ctx context.Context, branchID uuid.UUID, flt PaymentFilter) ([]model.PaymentModel, int64, error) {
	if flt.Month < 0 || flt.Month > 12 {
		return nil, 0, apperrors.Invalid("month must be 1..12")
	}
	return f.store.ListPayments(ctx, branchID, flt)
}
