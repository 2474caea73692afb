// file: internals/features/finance/fees/repository/fee_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schoolku_backend/internals/features/finance/fees/model"
	"schoolku_backend/internals/features/finance/fees/service"
	peopleModel "schoolku_backend/internals/features/people/model"
	"schoolku_backend/internals/helpers/apperrors"
)

type FeeRepository struct {
	DB *gorm.DB
}

func NewFeeRepository(db *gorm.DB) *FeeRepository {
	return &FeeRepository{DB: db}
}

var _ service.Store = (*FeeRepository)(nil)

func (r *FeeRepository) InTx(ctx context.Context, fn func(tx service.Tx) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&feeTx{db: tx})
	})
}

func (r *FeeRepository) GetPayment(ctx context.Context, branchID, paymentID uuid.UUID) (*model.PaymentModel, error) {
	var p model.PaymentModel
	if err := r.DB.WithContext(ctx).
		Where("payment_branch_id = ? AND payment_id = ?", branchID, paymentID).
		First(&p).Error; err != nil {
		return nil, paymentNotFound(err)
	}
	return &p, nil
}

func (r *FeeRepository) ListPayments(ctx context.Context, branchID uuid.UUID, f service.PaymentFilter) ([]model.PaymentModel, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.PaymentModel{}).
		Where("payment_branch_id = ?", branchID)
	if f.StudentID != nil {
		q = q.Where("payment_student_id = ?", *f.StudentID)
	}
	if f.Year > 0 {
		q = q.Where("payment_year = ?", f.Year)
	}
	if f.Month > 0 {
		q = q.Where("payment_month = ?", f.Month)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.PaymentModel
	q = q.Order("payment_created_at DESC, payment_receipt_number DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

const ledgerSnapshotSQL = `
SELECT
  p.person_branch_id   AS branch_id,
  p.person_id          AS student_id,
  p.person_code        AS person_code,
  p.person_total_fees  AS total,
  p.person_paid_amount AS paid,
  p.person_due_amount  AS due,
  COALESCE(SUM(pay.payment_net_amount), 0) AS sum_net
FROM persons p
LEFT JOIN payments pay
  ON pay.payment_student_id = p.person_id
 AND pay.payment_branch_id  = p.person_branch_id
WHERE p.person_kind = 'student'
  AND p.person_deleted_at IS NULL
  %s
GROUP BY p.person_id
ORDER BY p.person_branch_id, p.person_code`

func (r *FeeRepository) LedgerSnapshot(ctx context.Context, branchID *uuid.UUID) ([]service.LedgerRow, error) {
	var rows []service.LedgerRow
	db := r.DB.WithContext(ctx)
	var err error
	if branchID != nil {
		err = db.Raw(fmt.Sprintf(ledgerSnapshotSQL, "AND p.person_branch_id = ?"), *branchID).Scan(&rows).Error
	} else {
		err = db.Raw(fmt.Sprintf(ledgerSnapshotSQL, "")).Scan(&rows).Error
	}
	return rows, err
}

func paymentNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("payment: %w", apperrors.ErrNotFound)
	}
	return err
}

/* ===================== Tx ===================== */

type feeTx struct {
	db *gorm.DB
}

func (t *feeTx) InsertPayment(p *model.PaymentModel) error {
	return t.db.Create(p).Error
}

func (t *feeTx) LockPayment(branchID, paymentID uuid.UUID) (*model.PaymentModel, error) {
	var p model.PaymentModel
	if err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("payment_branch_id = ? AND payment_id = ?", branchID, paymentID).
		First(&p).Error; err != nil {
		return nil, paymentNotFound(err)
	}
	return &p, nil
}

// UpdatePayment: hanya kolom yang boleh di-amend.
func (t *feeTx) UpdatePayment(p *model.PaymentModel) error {
	return t.db.Model(&model.PaymentModel{}).
		Where("payment_branch_id = ? AND payment_id = ?", p.PaymentBranchID, p.PaymentID).
		Updates(map[string]any{
			"payment_amount":      p.PaymentAmount,
			"payment_discount":    p.PaymentDiscount,
			"payment_net_amount":  p.PaymentNetAmount,
			"payment_description": p.PaymentDescription,
			"payment_updated_at":  gorm.Expr("now()"),
		}).Error
}

func (t *feeTx) DeletePayment(branchID, paymentID uuid.UUID) error {
	res := t.db.Where("payment_branch_id = ? AND payment_id = ?", branchID, paymentID).
		Delete(&model.PaymentModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("payment: %w", apperrors.ErrNotFound)
	}
	return nil
}

func (t *feeTx) LockStudent(branchID, studentID uuid.UUID) (*peopleModel.PersonModel, error) {
	var p peopleModel.PersonModel
	if err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("person_branch_id = ? AND person_id = ? AND person_kind = ?", branchID, studentID, peopleModel.PersonKindStudent).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("student: %w", apperrors.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

// ApplyDelta: increment di SQL, bukan read-modify-write.
//
//	paid = GREATEST(0, paid + delta)
//	due  = GREATEST(0, due  - delta)
//
// Guard di WHERE menjaga paid + due == total (GREATEST tidak pernah aktif).
func (t *feeTx) ApplyDelta(branchID, studentID uuid.UUID, delta decimal.Decimal, at time.Time) (peopleModel.LedgerState, error) {
	if delta.IsZero() {
		p, err := t.LockStudent(branchID, studentID)
		if err != nil {
			return peopleModel.LedgerState{}, err
		}
		return p.Ledger(), nil
	}

	set := map[string]any{
		"person_paid_amount": gorm.Expr("GREATEST(0, person_paid_amount + ?)", delta),
		"person_due_amount":  gorm.Expr("GREATEST(0, person_due_amount - ?)", delta),
	}
	var rows []peopleModel.PersonModel
	q := t.db.Model(&rows).
		Clauses(clause.Returning{}).
		Where("person_branch_id = ? AND person_id = ? AND person_kind = ?", branchID, studentID, peopleModel.PersonKindStudent)
	if delta.IsPositive() {
		q = q.Where("person_due_amount >= ?", delta)
		set["person_last_payment_at"] = at
	} else {
		q = q.Where("person_paid_amount >= ?", delta.Neg())
	}

	res := q.Updates(set)
	if res.Error != nil {
		return peopleModel.LedgerState{}, res.Error
	}
	if res.RowsAffected > 0 && len(rows) > 0 {
		return rows[0].Ledger(), nil
	}

	// guard gagal atau student tidak ada
	p, err := t.LockStudent(branchID, studentID)
	if err != nil {
		return peopleModel.LedgerState{}, err
	}
	if delta.IsPositive() {
		return p.Ledger(), fmt.Errorf("net %s exceeds outstanding due %s: %w",
			delta.StringFixed(2), p.PersonDueAmount.StringFixed(2), apperrors.ErrInvalidAmount)
	}
	return p.Ledger(), fmt.Errorf("reversal %s exceeds paid %s for %s: %w",
		delta.Neg().StringFixed(2), p.PersonPaidAmount.StringFixed(2), p.PersonCode, apperrors.ErrLedgerInvariant)
}

func (t *feeTx) SumNet(branchID, studentID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := t.db.Model(&model.PaymentModel{}).
		Select("COALESCE(SUM(payment_net_amount), 0)").
		Where("payment_branch_id = ? AND payment_student_id = ?", branchID, studentID).
		Row().Scan(&sum)
	return sum, err
}

func (t *feeTx) SetLedger(branchID, studentID uuid.UUID, paid, due decimal.Decimal) error {
	return t.db.Model(&peopleModel.PersonModel{}).
		Where("person_branch_id = ? AND person_id = ?", branchID, studentID).
		Updates(map[string]any{
			"person_paid_amount": paid,
			"person_due_amount":  due,
		}).Error
}
