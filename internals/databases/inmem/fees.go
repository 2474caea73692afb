package inmem

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"schoolku_backend/internals/features/finance/fees/model"
	"schoolku_backend/internals/features/finance/fees/service"
	peopleModel "schoolku_backend/internals/features/people/model"
	"schoolku_backend/internals/helpers/apperrors"
)

type FeeStore struct {
	db *DB
}

var _ service.Store = (*FeeStore)(nil)

// InTx: mu dipegang sepanjang fn (serializable); error → persons & payments dikembalikan.
func (s *FeeStore) InTx(_ context.Context, fn func(tx service.Tx) error) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	persons := make(map[uuid.UUID]*peopleModel.PersonModel, len(s.db.persons))
	for id, p := range s.db.persons {
		persons[id] = clonePerson(p)
	}
	payments := make(map[uuid.UUID]*model.PaymentModel, len(s.db.payments))
	for id, p := range s.db.payments {
		payments[id] = clonePayment(p)
	}

	if err := fn(&feeTx{db: s.db}); err != nil {
		s.db.persons, s.db.payments = persons, payments
		return err
	}
	return nil
}

func (s *FeeStore) GetPayment(_ context.Context, branchID, paymentID uuid.UUID) (*model.PaymentModel, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.payments[paymentID]
	if !ok || p.PaymentBranchID != branchID {
		return nil, fmt.Errorf("payment: %w", apperrors.ErrNotFound)
	}
	return clonePayment(p), nil
}

func (s *FeeStore) ListPayments(_ context.Context, branchID uuid.UUID, f service.PaymentFilter) ([]model.PaymentModel, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	rows := make([]model.PaymentModel, 0)
	for _, p := range s.db.payments {
		if p.PaymentBranchID != branchID {
			continue
		}
		if f.StudentID != nil && p.PaymentStudentID != *f.StudentID {
			continue
		}
		if f.Year > 0 && p.PaymentYear != f.Year {
			continue
		}
		if f.Month > 0 && p.PaymentMonth != f.Month {
			continue
		}
		rows = append(rows, *p)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].PaymentCreatedAt.Equal(rows[j].PaymentCreatedAt) {
			return rows[i].PaymentCreatedAt.After(rows[j].PaymentCreatedAt)
		}
		return rows[i].PaymentReceiptNumber > rows[j].PaymentReceiptNumber
	})

	total := int64(len(rows))
	if f.Limit > 0 {
		start := f.Offset
		if start > len(rows) {
			start = len(rows)
		}
		end := start + f.Limit
		if end > len(rows) {
			end = len(rows)
		}
		rows = rows[start:end]
	}
	return rows, total, nil
}

func (s *FeeStore) LedgerSnapshot(_ context.Context, branchID *uuid.UUID) ([]service.LedgerRow, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	out := make([]service.LedgerRow, 0)
	for _, p := range s.db.persons {
		if p.PersonKind != peopleModel.PersonKindStudent {
			continue
		}
		if branchID != nil && p.PersonBranchID != *branchID {
			continue
		}
		out = append(out, service.LedgerRow{
			BranchID:   p.PersonBranchID,
			StudentID:  p.PersonID,
			PersonCode: p.PersonCode,
			Total:      p.PersonTotalFees,
			Paid:       p.PersonPaidAmount,
			Due:        p.PersonDueAmount,
			SumNet:     s.db.sumNetLocked(p.PersonBranchID, p.PersonID),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BranchID != out[j].BranchID {
			return out[i].BranchID.String() < out[j].BranchID.String()
		}
		return out[i].PersonCode < out[j].PersonCode
	})
	return out, nil
}

func (db *DB) sumNetLocked(branchID, studentID uuid.UUID) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range db.payments {
		if p.PaymentBranchID == branchID && p.PaymentStudentID == studentID {
			sum = sum.Add(p.PaymentNetAmount)
		}
	}
	return sum
}

/* ===================== Tx (mu sudah dipegang InTx) ===================== */

type feeTx struct {
	db *DB
}

func (t *feeTx) InsertPayment(p *model.PaymentModel) error {
	for _, x := range t.db.payments {
		if x.PaymentBranchID == p.PaymentBranchID && x.PaymentReceiptNumber == p.PaymentReceiptNumber {
			return fmt.Errorf("payment %s: %w", p.PaymentReceiptNumber, apperrors.ErrUniqueViolation)
		}
	}
	if p.PaymentID == uuid.Nil {
		p.PaymentID = uuid.New()
	}
	now := t.db.now()
	p.PaymentCreatedAt, p.PaymentUpdatedAt = now, now
	t.db.payments[p.PaymentID] = clonePayment(p)
	return nil
}

func (t *feeTx) LockPayment(branchID, paymentID uuid.UUID) (*model.PaymentModel, error) {
	p, ok := t.db.payments[paymentID]
	if !ok || p.PaymentBranchID != branchID {
		return nil, fmt.Errorf("payment: %w", apperrors.ErrNotFound)
	}
	return clonePayment(p), nil
}

func (t *feeTx) UpdatePayment(p *model.PaymentModel) error {
	cur, ok := t.db.payments[p.PaymentID]
	if !ok || cur.PaymentBranchID != p.PaymentBranchID {
		return fmt.Errorf("payment: %w", apperrors.ErrNotFound)
	}
	cur.PaymentAmount = p.PaymentAmount
	cur.PaymentDiscount = p.PaymentDiscount
	cur.PaymentNetAmount = p.PaymentNetAmount
	cur.PaymentDescription = p.PaymentDescription
	cur.PaymentUpdatedAt = t.db.now()
	return nil
}

func (t *feeTx) DeletePayment(branchID, paymentID uuid.UUID) error {
	p, ok := t.db.payments[paymentID]
	if !ok || p.PaymentBranchID != branchID {
		return fmt.Errorf("payment: %w", apperrors.ErrNotFound)
	}
	delete(t.db.payments, paymentID)
	return nil
}

func (t *feeTx) student(branchID, studentID uuid.UUID) (*peopleModel.PersonModel, error) {
	p, ok := t.db.persons[studentID]
	if !ok || p.PersonBranchID != branchID || p.PersonKind != peopleModel.PersonKindStudent {
		return nil, fmt.Errorf("student: %w", apperrors.ErrNotFound)
	}
	return p, nil
}

func (t *feeTx) LockStudent(branchID, studentID uuid.UUID) (*peopleModel.PersonModel, error) {
	p, err := t.student(branchID, studentID)
	if err != nil {
		return nil, err
	}
	return clonePerson(p), nil
}

func (t *feeTx) ApplyDelta(branchID, studentID uuid.UUID, delta decimal.Decimal, at time.Time) (peopleModel.LedgerState, error) {
	p, err := t.student(branchID, studentID)
	if err != nil {
		return peopleModel.LedgerState{}, err
	}
	switch {
	case delta.IsZero():
		return p.Ledger(), nil
	case delta.IsPositive() && p.PersonDueAmount.LessThan(delta):
		return p.Ledger(), fmt.Errorf("net %s exceeds outstanding due %s: %w",
			delta.StringFixed(2), p.PersonDueAmount.StringFixed(2), apperrors.ErrInvalidAmount)
	case delta.IsNegative() && p.PersonPaidAmount.LessThan(delta.Neg()):
		return p.Ledger(), fmt.Errorf("reversal %s exceeds paid %s for %s: %w",
			delta.Neg().StringFixed(2), p.PersonPaidAmount.StringFixed(2), p.PersonCode, apperrors.ErrLedgerInvariant)
	}

	p.PersonPaidAmount = decimal.Max(decimal.Zero, p.PersonPaidAmount.Add(delta))
	p.PersonDueAmount = decimal.Max(decimal.Zero, p.PersonDueAmount.Sub(delta))
	if delta.IsPositive() {
		ts := at
		p.PersonLastPaymentAt = &ts
	}
	p.PersonUpdatedAt = t.db.now()
	return p.Ledger(), nil
}

func (t *feeTx) SumNet(branchID, studentID uuid.UUID) (decimal.Decimal, error) {
	return t.db.sumNetLocked(branchID, studentID), nil
}

func (t *feeTx) SetLedger(branchID, studentID uuid.UUID, paid, due decimal.Decimal) error {
	p, err := t.student(branchID, studentID)
	if err != nil {
		return err
	}
	p.PersonPaidAmount, p.PersonDueAmount = paid, due
	p.PersonUpdatedAt = t.db.now()
	return nil
}
