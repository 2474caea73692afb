// file: internals/features/finance/fees/model/fee_payment_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

/* ===================== Enums (string) ===================== */

const (
	PaymentMethodCash         = "cash"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodOnline       = "online"
	PaymentMethodOther        = "other"
)

func ValidPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodOnline, PaymentMethodOther:
		return true
	}
	return false
}

/* ===================== Model ===================== */

// PaymentModel: satu event pembayaran SPP/fee di kasir branch.
// Yang boleh di-amend hanya amount, discount, description.
type PaymentModel struct {
	PaymentID        uuid.UUID `gorm:"column:payment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"payment_id"`
	PaymentBranchID  uuid.UUID `gorm:"column:payment_branch_id;type:uuid;not null;uniqueIndex:uq_payments_branch_receipt,priority:1" json:"payment_branch_id"`
	PaymentStudentID uuid.UUID `gorm:"column:payment_student_id;type:uuid;not null;index:idx_payments_student" json:"payment_student_id"`

	// Nominal
	PaymentAmount    decimal.Decimal `gorm:"column:payment_amount;type:numeric(14,2);not null;check:chk_payments_amount,payment_amount > 0" json:"payment_amount"`
	PaymentDiscount  decimal.Decimal `gorm:"column:payment_discount;type:numeric(14,2);not null;default:0;check:chk_payments_discount,payment_discount >= 0" json:"payment_discount"`
	PaymentNetAmount decimal.Decimal `gorm:"column:payment_net_amount;type:numeric(14,2);not null;check:chk_payments_net,payment_net_amount >= 0" json:"payment_net_amount"`

	// RCP-DHK001-202601-0001
	PaymentReceiptNumber string `gorm:"column:payment_receipt_number;type:varchar(48);not null;uniqueIndex:uq_payments_branch_receipt,priority:2" json:"payment_receipt_number"`

	PaymentCollectedBy *uuid.UUID `gorm:"column:payment_collected_by;type:uuid" json:"payment_collected_by,omitempty"`
	PaymentMonth       int        `gorm:"column:payment_month;not null;check:chk_payments_month,payment_month BETWEEN 1 AND 12" json:"payment_month"`
	PaymentYear        int        `gorm:"column:payment_year;not null" json:"payment_year"`
	PaymentMethod      string     `gorm:"column:payment_method;type:varchar(16);not null;default:'cash'" json:"payment_method"`
	PaymentDescription *string    `gorm:"column:payment_description;type:text" json:"payment_description,omitempty"`

	PaymentCreatedAt time.Time `gorm:"column:payment_created_at;type:timestamptz;not null;autoCreateTime" json:"payment_created_at"`
	PaymentUpdatedAt time.Time `gorm:"column:payment_updated_at;type:timestamptz;not null;autoUpdateTime" json:"payment_updated_at"`
}

func (PaymentModel) TableName() string { return "payments" }

// NetOf: max(0, amount − discount)
func NetOf(amount, discount decimal.Decimal) decimal.Decimal {
	n := amount.Sub(discount)
	if n.IsNegative() {
		return decimal.Zero
	}
	return n
}
