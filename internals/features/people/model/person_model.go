// file: internals/features/people/model/person_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

/* =========================
   ENUMS (selaras dgn DB)
   ========================= */

type PersonKind string

const (
	PersonKindStudent PersonKind = "student"
	PersonKindStaff   PersonKind = "staff"
	PersonKindTeacher PersonKind = "teacher"
)

func (k PersonKind) Valid() bool {
	switch k {
	case PersonKindStudent, PersonKindStaff, PersonKindTeacher:
		return true
	}
	return false
}

// IsStaffLike: staff & teacher berbagi aturan absensi (tanpa period)
func (k PersonKind) IsStaffLike() bool {
	return k == PersonKindStaff || k == PersonKindTeacher
}

/* =========================================
   MODEL: persons (student | staff | teacher)
   ========================================= */

type PersonModel struct {
	PersonID       uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:person_id" json:"person_id"`
	PersonBranchID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_persons_branch_code,priority:1;index:idx_persons_roster,priority:1;column:person_branch_id" json:"person_branch_id"`
	PersonKind     PersonKind `gorm:"type:varchar(16);not null;index:idx_persons_roster,priority:2;column:person_kind" json:"person_kind"`

	// business ID, mis. DHK001-2026-001
	PersonCode  string  `gorm:"type:varchar(40);not null;uniqueIndex:uq_persons_branch_code,priority:2;column:person_code" json:"person_code"`
	PersonName  string  `gorm:"type:varchar(120);not null;column:person_name" json:"person_name"`
	PersonEmail *string `gorm:"type:varchar(160);column:person_email" json:"person_email,omitempty"`

	// khusus student: batch & period (timeSlot) batch
	PersonBatchID     *uuid.UUID `gorm:"type:uuid;column:person_batch_id" json:"person_batch_id,omitempty"`
	PersonBatchPeriod *string    `gorm:"type:varchar(20);column:person_batch_period" json:"person_batch_period,omitempty"`

	PersonIsActive      bool       `gorm:"not null;default:true;index:idx_persons_roster,priority:3;column:person_is_active" json:"person_is_active"`
	PersonAdmissionDate *time.Time `gorm:"type:date;column:person_admission_date" json:"person_admission_date,omitempty"`

	// ledger (embedded LedgerState, hanya bermakna untuk student)
	PersonMonthlyFee    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0;column:person_monthly_fee" json:"person_monthly_fee"`
	PersonTotalFees     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0;check:chk_persons_total_fees,person_total_fees >= 0;column:person_total_fees" json:"person_total_fees"`
	PersonPaidAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0;check:chk_persons_paid_amount,person_paid_amount >= 0;column:person_paid_amount" json:"person_paid_amount"`
	PersonDueAmount     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0;check:chk_persons_due_amount,person_due_amount >= 0;column:person_due_amount" json:"person_due_amount"`
	PersonLastPaymentAt *time.Time      `gorm:"type:timestamptz;column:person_last_payment_at" json:"person_last_payment_at,omitempty"`

	PersonCreatedAt time.Time      `gorm:"type:timestamptz;not null;autoCreateTime;column:person_created_at" json:"person_created_at"`
	PersonUpdatedAt time.Time      `gorm:"type:timestamptz;not null;autoUpdateTime;column:person_updated_at" json:"person_updated_at"`
	PersonDeletedAt gorm.DeletedAt `gorm:"column:person_deleted_at;index" json:"person_deleted_at,omitempty"`
}

func (PersonModel) TableName() string { return "persons" }

// LedgerState: snapshot paid/due seorang student.
type LedgerState struct {
	TotalFees       decimal.Decimal `json:"total_fees"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	DueAmount       decimal.Decimal `json:"due_amount"`
	LastPaymentDate *time.Time      `json:"last_payment_date,omitempty"`
}

func (p PersonModel) Ledger() LedgerState {
	return LedgerState{
		TotalFees:       p.PersonTotalFees,
		PaidAmount:      p.PersonPaidAmount,
		DueAmount:       p.PersonDueAmount,
		LastPaymentDate: p.PersonLastPaymentAt,
	}
}

// Balanced: paid + due == total, paid >= 0, due >= 0
func (l LedgerState) Balanced() bool {
	return l.PaidAmount.Add(l.DueAmount).Equal(l.TotalFees) &&
		!l.PaidAmount.IsNegative() && !l.DueAmount.IsNegative()
}

// Period efektif student ("" untuk staff/teacher)
func (p PersonModel) Period() string {
	if p.PersonKind != PersonKindStudent || p.PersonBatchPeriod == nil {
		return ""
	}
	return *p.PersonBatchPeriod
}
