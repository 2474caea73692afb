// file: internals/features/finance/fees/dto/fee_dto.go
package dto

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"schoolku_backend/internals/features/finance/fees/model"
	"schoolku_backend/internals/features/finance/fees/service"
	peopleModel "schoolku_backend/internals/features/people/model"
)

/* =========================================================
   REQUEST
========================================================= */

type RecordPaymentRequest struct {
	StudentRef         string          `json:"student_ref" validate:"required,max=64"`
	PaymentAmount      decimal.Decimal `json:"payment_amount"`
	PaymentDiscount    decimal.Decimal `json:"payment_discount"`
	PaymentMonth       int             `json:"payment_month" validate:"omitempty,min=1,max=12"`
	PaymentYear        int             `json:"payment_year" validate:"omitempty,min=2000,max=2100"`
	PaymentMethod      string          `json:"payment_method" validate:"omitempty,oneof=cash bank_transfer online other"`
	PaymentDescription *string         `json:"payment_description,omitempty" validate:"omitempty,max=500"`
}

func (r RecordPaymentRequest) ToInput(branchID uuid.UUID, collectedBy *uuid.UUID) service.RecordInput {
	return service.RecordInput{
		BranchID:    branchID,
		StudentRef:  strings.TrimSpace(r.StudentRef),
		Amount:      r.PaymentAmount,
		Discount:    r.PaymentDiscount,
		Month:       r.PaymentMonth,
		Year:        r.PaymentYear,
		Method:      r.PaymentMethod,
		Description: r.PaymentDescription,
		CollectedBy: collectedBy,
	}
}

// PATCH: field nil = tidak diubah
type AmendPaymentRequest struct {
	PaymentAmount      *decimal.Decimal `json:"payment_amount,omitempty"`
	PaymentDiscount    *decimal.Decimal `json:"payment_discount,omitempty"`
	PaymentDescription *string          `json:"payment_description,omitempty" validate:"omitempty,max=500"`
}

func (r AmendPaymentRequest) ToInput(branchID, paymentID uuid.UUID, actor *uuid.UUID) service.AmendInput {
	return service.AmendInput{
		BranchID:    branchID,
		PaymentID:   paymentID,
		Amount:      r.PaymentAmount,
		Discount:    r.PaymentDiscount,
		Description: r.PaymentDescription,
		Actor:       actor,
	}
}

type ListPaymentsQuery struct {
	StudentID *uuid.UUID `query:"student_id"`
	Year      int        `query:"year" validate:"omitempty,min=2000,max=2100"`
	Month     int        `query:"month" validate:"omitempty,min=1,max=12"`
}

/* =========================================================
   RESPONSE
========================================================= */

type PaymentResponse struct {
	PaymentID            uuid.UUID       `json:"payment_id"`
	PaymentStudentID     uuid.UUID       `json:"payment_student_id"`
	PaymentAmount        string          `json:"payment_amount"`
	PaymentDiscount      string          `json:"payment_discount"`
	PaymentNetAmount     string          `json:"payment_net_amount"`
	PaymentReceiptNumber string          `json:"payment_receipt_number"`
	PaymentCollectedBy   *uuid.UUID      `json:"payment_collected_by,omitempty"`
	PaymentMonth         int             `json:"payment_month"`
	PaymentYear          int             `json:"payment_year"`
	PaymentMethod        string          `json:"payment_method"`
	PaymentDescription   *string         `json:"payment_description,omitempty"`
	PaymentCreatedAt     string          `json:"payment_created_at"`
	Ledger               *LedgerResponse `json:"ledger,omitempty"`
}

type LedgerResponse struct {
	TotalFees       string  `json:"total_fees"`
	PaidAmount      string  `json:"paid_amount"`
	DueAmount       string  `json:"due_amount"`
	LastPaymentDate *string `json:"last_payment_date,omitempty"`
}

func FromLedger(l peopleModel.LedgerState) *LedgerResponse {
	out := &LedgerResponse{
		TotalFees:  l.TotalFees.StringFixed(2),
		PaidAmount: l.PaidAmount.StringFixed(2),
		DueAmount:  l.DueAmount.StringFixed(2),
	}
	if l.LastPaymentDate != nil {
		s := l.LastPaymentDate.Format("2006-01-02T15:04:05Z07:00")
		out.LastPaymentDate = &s
	}
	return out
}

func FromPaymentModel(m *model.PaymentModel) PaymentResponse {
	return PaymentResponse{
		PaymentID:            m.PaymentID,
		PaymentStudentID:     m.PaymentStudentID,
		PaymentAmount:        m.PaymentAmount.StringFixed(2),
		PaymentDiscount:      m.PaymentDiscount.StringFixed(2),
		PaymentNetAmount:     m.PaymentNetAmount.StringFixed(2),
		PaymentReceiptNumber: m.PaymentReceiptNumber,
		PaymentCollectedBy:   m.PaymentCollectedBy,
		PaymentMonth:         m.PaymentMonth,
		PaymentYear:          m.PaymentYear,
		PaymentMethod:        m.PaymentMethod,
		PaymentDescription:   m.PaymentDescription,
		PaymentCreatedAt:     m.PaymentCreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func FromPaymentModels(rows []model.PaymentModel) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromPaymentModel(&rows[i]))
	}
	return out
}

func FromPaymentResult(r *service.PaymentResult) PaymentResponse {
	out := FromPaymentModel(r.Payment)
	out.Ledger = FromLedger(r.Ledger)
	return out
}
