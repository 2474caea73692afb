// file: internals/features/people/dto/person_dto.go
package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"schoolku_backend/internals/features/people/model"
	"schoolku_backend/internals/features/people/service"
	"schoolku_backend/internals/helpers/dbtime"
)

/* =========================================================
   REQUEST DTOs (JSON tags = nama kolom)
========================================================= */

type CreateBranchRequest struct {
	BranchCode     string `json:"branch_code" validate:"required,max=20,alphanum"`
	BranchName     string `json:"branch_name" validate:"required,max=120"`
	BranchTimezone string `json:"branch_timezone" validate:"omitempty,max=64"`
}

func (r CreateBranchRequest) ToInput() service.NewBranch {
	return service.NewBranch{Code: r.BranchCode, Name: r.BranchName, Timezone: r.BranchTimezone}
}

type CreatePersonRequest struct {
	PersonKind  string  `json:"person_kind" validate:"required,oneof=student staff teacher"`
	PersonName  string  `json:"person_name" validate:"required,max=120"`
	PersonEmail *string `json:"person_email,omitempty" validate:"omitempty,email,max=160"`

	PersonBatchID       *uuid.UUID `json:"person_batch_id,omitempty"`
	PersonBatchPeriod   *string    `json:"person_batch_period,omitempty" validate:"omitempty,max=20"`
	PersonAdmissionDate *string    `json:"person_admission_date,omitempty" validate:"omitempty,datetime=2006-01-02"`

	PersonMonthlyFee decimal.Decimal `json:"person_monthly_fee"`
	PersonTotalFees  decimal.Decimal `json:"person_total_fees"`
}

func (r CreatePersonRequest) ToInput() (service.NewPerson, error) {
	in := service.NewPerson{
		Kind:        model.PersonKind(strings.ToLower(strings.TrimSpace(r.PersonKind))),
		Name:        r.PersonName,
		Email:       r.PersonEmail,
		BatchID:     r.PersonBatchID,
		BatchPeriod: r.PersonBatchPeriod,
		MonthlyFee:  r.PersonMonthlyFee,
		TotalFees:   r.PersonTotalFees,
	}
	if r.PersonAdmissionDate != nil && strings.TrimSpace(*r.PersonAdmissionDate) != "" {
		d, err := dbtime.ParseDay(*r.PersonAdmissionDate)
		if err != nil {
			return in, err
		}
		in.AdmissionDate = &d
	}
	return in, nil
}

type SetActiveRequest struct {
	PersonIsActive *bool `json:"person_is_active" validate:"required"`
}

type ListPersonsQuery struct {
	Kind       string `query:"kind" validate:"omitempty,oneof=student staff teacher"`
	ActiveOnly *bool  `query:"active_only"`
}

/* =========================================================
   RESPONSE DTOs
========================================================= */

type PersonResponse struct {
	PersonID          uuid.UUID  `json:"person_id"`
	PersonBranchID    uuid.UUID  `json:"person_branch_id"`
	PersonKind        string     `json:"person_kind"`
	PersonCode        string     `json:"person_code"`
	PersonName        string     `json:"person_name"`
	PersonEmail       *string    `json:"person_email,omitempty"`
	PersonBatchID     *uuid.UUID `json:"person_batch_id,omitempty"`
	PersonBatchPeriod *string    `json:"person_batch_period,omitempty"`
	PersonIsActive    bool       `json:"person_is_active"`

	PersonAdmissionDate *string            `json:"person_admission_date,omitempty"`
	Ledger              *model.LedgerState `json:"ledger,omitempty"`

	PersonCreatedAt time.Time `json:"person_created_at"`
	PersonUpdatedAt time.Time `json:"person_updated_at"`
}

func FromPersonModel(p *model.PersonModel) PersonResponse {
	out := PersonResponse{
		PersonID:          p.PersonID,
		PersonBranchID:    p.PersonBranchID,
		PersonKind:        string(p.PersonKind),
		PersonCode:        p.PersonCode,
		PersonName:        p.PersonName,
		PersonEmail:       p.PersonEmail,
		PersonBatchID:     p.PersonBatchID,
		PersonBatchPeriod: p.PersonBatchPeriod,
		PersonIsActive:    p.PersonIsActive,
		PersonCreatedAt:   p.PersonCreatedAt,
		PersonUpdatedAt:   p.PersonUpdatedAt,
	}
	if p.PersonAdmissionDate != nil {
		s := p.PersonAdmissionDate.Format(dbtime.DayLayout)
		out.PersonAdmissionDate = &s
	}
	if p.PersonKind == model.PersonKindStudent {
		l := p.Ledger()
		out.Ledger = &l
	}
	return out
}

func FromPersonModels(rows []model.PersonModel) []PersonResponse {
	out := make([]PersonResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromPersonModel(&rows[i]))
	}
	return out
}
