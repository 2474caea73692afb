// file: internals/features/people/service/registry_service.go
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
	"schoolku_backend/internals/features/people/model"
	seqSvc "schoolku_backend/internals/features/sequences/service"
	"schoolku_backend/internals/helpers/apperrors"
)

type Store interface {
	CreateBranch(ctx context.Context, b *model.BranchModel) error
	GetBranch(ctx context.Context, branchID uuid.UUID) (*model.BranchModel, error)
	ListBranches(ctx context.Context) ([]model.BranchModel, error)

	CreatePerson(ctx context.Context, p *model.PersonModel) error
	GetPerson(ctx context.Context, branchID, personID uuid.UUID) (*model.PersonModel, error)
	GetPersonByCode(ctx context.Context, branchID uuid.UUID, code string) (*model.PersonModel, error)
	SetPersonActive(ctx context.Context, branchID, personID uuid.UUID, active bool) error
	ListPersons(ctx context.Context, branchID uuid.UUID, kind model.PersonKind, activeOnly bool) ([]model.PersonModel, error)
}

type Registry struct {
	store Store
	seq   *seqSvc.Generator
	audit *auditSvc.Recorder
	log   *zap.Logger
	now   func() time.Time
}

func NewRegistry(store Store, seq *seqSvc.Generator, audit *auditSvc.Recorder, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{store: store, seq: seq, audit: audit, log: log.Named("registry"), now: time.Now}
}

/* ===================== Branch ===================== */

type NewBranch struct {
	Code     string
	Name     string
	Timezone string
}

func (r *Registry) CreateBranch(ctx context.Context, in NewBranch) (*model.BranchModel, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.Invalid("branch code and name are required")
	}
	tz := strings.TrimSpace(in.Timezone)
	if tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return nil, apperrors.Invalid("unknown timezone %q", tz)
		}
	} else {
		tz = "Asia/Dhaka"
	}

	b := &model.BranchModel{BranchCode: code, BranchName: strings.TrimSpace(in.Name), BranchTimezone: tz}
	if err := r.store.CreateBranch(ctx, b); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, fmt.Errorf("branch code %s: %w", code, apperrors.ErrUniqueViolation)
		}
		return nil, err
	}
	return b, nil
}

func (r *Registry) GetBranch(ctx context.Context, branchID uuid.UUID) (*model.BranchModel, error) {
	return r.store.GetBranch(ctx, branchID)
}

func (r *Registry) ListBranches(ctx context.Context) ([]model.BranchModel, error) {
	return r.store.ListBranches(ctx)
}

/* ===================== Person ===================== */

type NewPerson struct {
	Kind          model.PersonKind
	Name          string
	Email         *string
	BatchID       *uuid.UUID
	BatchPeriod   *string
	AdmissionDate *time.Time
	MonthlyFee    decimal.Decimal
	TotalFees     decimal.Decimal
}

// Onboard membuat person baru + business ID dari sequence generator.
// Student mulai dengan paid = 0, due = total.
func (r *Registry) Onboard(ctx context.Context, branchID uuid.UUID, in NewPerson, actor *uuid.UUID) (*model.PersonModel, auditSvc.Change, error) {
	if !in.Kind.Valid() {
		return nil, auditSvc.Change{}, apperrors.Invalid("unknown person kind %q", in.Kind)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, auditSvc.Change{}, apperrors.Invalid("name is required")
	}
	if in.TotalFees.IsNegative() || in.MonthlyFee.IsNegative() {
		return nil, auditSvc.Change{}, fmt.Errorf("fees must not be negative: %w", apperrors.ErrInvalidAmount)
	}

	branch, err := r.store.GetBranch(ctx, branchID)
	if err != nil {
		return nil, auditSvc.Change{}, err
	}

	p := &model.PersonModel{
		PersonBranchID: branchID,
		PersonKind:     in.Kind,
		PersonName:     strings.TrimSpace(in.Name),
		PersonEmail:    in.Email,
		PersonIsActive: true,
	}

	seqKind := seqSvc.KindStaff
	if in.Kind == model.PersonKindStudent {
		period := ""
		if in.BatchPeriod != nil {
			period = NormalizePeriod(*in.BatchPeriod)
		}
		if period == "" || in.BatchID == nil || *in.BatchID == uuid.Nil {
			return nil, auditSvc.Change{}, apperrors.Invalid("students need a batch and batch period")
		}
		p.PersonBatchID = in.BatchID
		p.PersonBatchPeriod = &period
		p.PersonAdmissionDate = in.AdmissionDate
		p.PersonMonthlyFee = in.MonthlyFee
		p.PersonTotalFees = in.TotalFees
		p.PersonPaidAmount = decimal.Zero
		p.PersonDueAmount = in.TotalFees
		seqKind = seqSvc.KindStudent
	}

	at := r.now()
	if in.AdmissionDate != nil {
		at = *in.AdmissionDate
	}
	code, err := r.seq.Next(ctx, branch.BranchCode, seqKind, at)
	if err != nil {
		return nil, auditSvc.Change{}, err
	}
	p.PersonCode = code

	if err := r.store.CreatePerson(ctx, p); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, auditSvc.Change{}, fmt.Errorf("person code %s: %w", code, apperrors.ErrUniqueViolation)
		}
		return nil, auditSvc.Change{}, err
	}

	change := auditSvc.Change{NewData: p}
	r.audit.Record(auditSvc.Entry{
		BranchID: branchID,
		ActorID:  actor,
		Entity:   "person",
		EntityID: p.PersonID,
		Action:   "create",
		Change:   change,
	})
	return p, change, nil
}

// Resolve: ref boleh surrogate UUID atau business code, selalu dalam scope branch.
func (r *Registry) Resolve(ctx context.Context, branchID uuid.UUID, ref string) (*model.PersonModel, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty person reference: %w", apperrors.ErrNotFound)
	}
	if id, err := uuid.Parse(ref); err == nil {
		return r.store.GetPerson(ctx, branchID, id)
	}
	return r.store.GetPersonByCode(ctx, branchID, strings.ToUpper(ref))
}

// ResolveActive = Resolve + gating aktif.
func (r *Registry) ResolveActive(ctx context.Context, branchID uuid.UUID, ref string) (*model.PersonModel, error) {
	p, err := r.Resolve(ctx, branchID, ref)
	if err != nil {
		return nil, err
	}
	if !p.PersonIsActive {
		return nil, fmt.Errorf("%s %s: %w", p.PersonKind, p.PersonCode, apperrors.ErrInactiveSubject)
	}
	return p, nil
}

func (r *Registry) SetActive(ctx context.Context, branchID uuid.UUID, ref string, active bool, actor *uuid.UUID) (*model.PersonModel, auditSvc.Change, error) {
	p, err := r.Resolve(ctx, branchID, ref)
	if err != nil {
		return nil, auditSvc.Change{}, err
	}
	old := *p
	if p.PersonIsActive == active {
		return p, auditSvc.Change{OldData: old, NewData: p}, nil
	}
	if err := r.store.SetPersonActive(ctx, branchID, p.PersonID, active); err != nil {
		return nil, auditSvc.Change{}, err
	}
	p.PersonIsActive = active

	change := auditSvc.Change{
		OldData: map[string]any{"person_is_active": old.PersonIsActive},
		NewData: map[string]any{"person_is_active": active},
	}
	r.audit.Record(auditSvc.Entry{
		BranchID: branchID,
		ActorID:  actor,
		Entity:   "person",
		EntityID: p.PersonID,
		Action:   "set_active",
		Change:   change,
	})
	return p, change, nil
}

func (r *Registry) ListRoster(ctx context.Context, branchID uuid.UUID, kind model.PersonKind, activeOnly bool) ([]model.PersonModel, error) {
	if !kind.Valid() {
		return nil, apperrors.Invalid("unknown person kind %q", kind)
	}
	return r.store.ListPersons(ctx, branchID, kind, activeOnly)
}

// NormalizePeriod: "am" → "AM"
func NormalizePeriod(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
