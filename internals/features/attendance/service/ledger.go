// file: internals/features/attendance/service/ledger.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"schoolku_backend/internals/features/attendance/model"
	auditSvc "schoolku_backend/internals/features/audit/service"
	peopleModel "schoolku_backend/internals/features/people/model"
	"schoolku_backend/internals/helpers/apperrors"
	"schoolku_backend/internals/helpers/dbtime"
	"schoolku_backend/internals/helpers/metrics"
)

type RosterQuery struct {
	BranchID uuid.UUID
	Date     time.Time
	Kind     peopleModel.PersonKind
	Period   string // "" = semua period
}

type CheckInFill struct {
	CheckInAt   time.Time
	Status      model.AttendanceStatus
	LateSeconds *int
	Method      model.AttendanceMethod
	MarkedBy    *uuid.UUID
}

type Store interface {
	// Insert gagal dengan unique violation kalau key sudah ada.
	Insert(ctx context.Context, rec *model.AttendanceRecordModel) error
	GetByKey(ctx context.Context, key model.Key) (*model.AttendanceRecordModel, error)
	GetByID(ctx context.Context, branchID, recordID uuid.UUID) (*model.AttendanceRecordModel, error)

	// FillCheckIn hanya mengubah record yang check_in_at masih NULL.
	FillCheckIn(ctx context.Context, recordID uuid.UUID, f CheckInFill) (*model.AttendanceRecordModel, bool, error)
	// SetCheckOut hanya mengubah record yang sudah check-in dan belum check-out.
	SetCheckOut(ctx context.Context, recordID uuid.UUID, at time.Time) (*model.AttendanceRecordModel, bool, error)

	// Upsert: INSERT ... ON CONFLICT (key) DO UPDATE; old = nil kalau baru.
	Upsert(ctx context.Context, rec *model.AttendanceRecordModel) (old *model.AttendanceRecordModel, err error)
	Delete(ctx context.Context, branchID, recordID uuid.UUID) error

	ListByPerson(ctx context.Context, branchID, personID uuid.UUID, from, to time.Time) ([]model.AttendanceRecordModel, error)
	RosterSnapshot(ctx context.Context, q RosterQuery) ([]peopleModel.PersonModel, []model.AttendanceRecordModel, error)
}

// PersonResolver dipenuhi people/service.Registry.
type PersonResolver interface {
	Resolve(ctx context.Context, branchID uuid.UUID, ref string) (*peopleModel.PersonModel, error)
	ResolveActive(ctx context.Context, branchID uuid.UUID, ref string) (*peopleModel.PersonModel, error)
}

type Ledger struct {
	store   Store
	people  PersonResolver
	cutoffs CutoffTable
	audit   *auditSvc.Recorder
	log     *zap.Logger
	now     func() time.Time
}

func NewLedger(store Store, people PersonResolver, cutoffs CutoffTable, audit *auditSvc.Recorder, log *zap.Logger) *Ledger {
	if cutoffs == nil {
		cutoffs = DefaultCutoffs()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		store:   store,
		people:  people,
		cutoffs: cutoffs,
		audit:   audit,
		log:     log.Named("attendance"),
		now:     time.Now,
	}
}

// WithClock dipakai test.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

func (l *Ledger) Cutoffs() CutoffTable { return l.cutoffs }

/* ===================== Input ===================== */

type MarkInput struct {
	BranchID  uuid.UUID
	PersonRef string
	Date      *time.Time // hari (UTC midnight); nil → hari ini di Loc
	Period    *string
	BatchID   *uuid.UUID
	Method    model.AttendanceMethod
	At        *time.Time // waktu check-in; nil → now
	QR        string
	Note      *string
	MarkedBy  *uuid.UUID
	Loc       *time.Location
}

type CheckOutInput struct {
	BranchID  uuid.UUID
	PersonRef string
	Date      *time.Time
	Period    *string
	At        *time.Time
	MarkedBy  *uuid.UUID
	Loc       *time.Location
}

type ExplicitInput struct {
	BranchID  uuid.UUID
	PersonRef string
	Date      time.Time
	Status    model.AttendanceStatus
	Period    *string
	Method    model.AttendanceMethod
	Note      *string
	MarkedBy  *uuid.UUID
}

// Outcome hasil MarkOrCheckIn
const (
	OutcomeCreated = "created"
	OutcomeFilled  = "filled"
)

type MarkResult struct {
	Record  *model.AttendanceRecordModel `json:"record"`
	Outcome string                       `json:"outcome,omitempty"`
	Audit   auditSvc.Change              `json:"-"`
}

/* ===================== Helpers ===================== */

func (l *Ledger) locOr(loc *time.Location) *time.Location {
	if loc != nil {
		return loc
	}
	return dbtime.LoadLocation("")
}

// resolveKey: person aktif + period efektif sesuai kind.
func (l *Ledger) resolveKey(ctx context.Context, branchID uuid.UUID, ref string, day time.Time, period *string, batchID *uuid.UUID) (*peopleModel.PersonModel, model.Key, error) {
	p, err := l.people.ResolveActive(ctx, branchID, ref)
	if err != nil {
		return nil, model.Key{}, err
	}
	eff, err := effectivePeriod(p, period, batchID)
	if err != nil {
		return nil, model.Key{}, err
	}
	return p, model.Key{BranchID: branchID, PersonID: p.PersonID, Date: day, Period: eff}, nil
}

// effectivePeriod:
// - staff/teacher: selalu ""
// - student: default batch period; kalau diisi harus sama dengan batch period-nya
func effectivePeriod(p *peopleModel.PersonModel, period *string, batchID *uuid.UUID) (string, error) {
	if p.PersonKind.IsStaffLike() {
		return "", nil
	}
	if batchID != nil && *batchID != uuid.Nil {
		if p.PersonBatchID == nil || *p.PersonBatchID != *batchID {
			return "", fmt.Errorf("student %s not in batch %s: %w", p.PersonCode, batchID, apperrors.ErrNotFound)
		}
	}
	own := p.Period()
	if own == "" {
		return "", apperrors.Invalid("student %s has no batch period", p.PersonCode)
	}
	if period == nil || strings.TrimSpace(*period) == "" {
		return own, nil
	}
	req := strings.ToUpper(strings.TrimSpace(*period))
	if req != own {
		return "", fmt.Errorf("student %s batch meets in %s, not %s: %w", p.PersonCode, own, req, apperrors.ErrNotFound)
	}
	return req, nil
}

func (l *Ledger) dayOr(day *time.Time, loc *time.Location) time.Time {
	if day != nil && !day.IsZero() {
		return dbtime.DayOf(*day, time.UTC)
	}
	return dbtime.DayOf(l.now(), loc)
}

func lateSecondsPtr(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}

func mark(op, outcome string) {
	metrics.AttendanceMarks.WithLabelValues(op, outcome).Inc()
}

// record: tulis audit lalu kembalikan change yang sama untuk response.
func (l *Ledger) record(branchID uuid.UUID, actor *uuid.UUID, rec *model.AttendanceRecordModel, action string, old *model.AttendanceRecordModel) auditSvc.Change {
	change := auditSvc.Change{NewData: rec}
	if old != nil {
		change.OldData = old
	}
	l.audit.Record(auditSvc.Entry{
		BranchID: branchID,
		ActorID:  actor,
		Entity:   "attendance_record",
		EntityID: rec.AttendanceRecordID,
		Action:   action,
		Change:   change,
	})
	return change
}

/* ===================== MarkOrCheckIn ===================== */

// MarkOrCheckIn: buat record baru, atau isi check-in pada record yang belum punya check-in.
// Duplicate/AlreadyComplete mengembalikan record yang ada bersama error.
func (l *Ledger) MarkOrCheckIn(ctx context.Context, in MarkInput) (*MarkResult, error) {
	method := in.Method
	if method == "" {
		method = model.AttendanceMethodManual
	}
	if !method.Valid() {
		return nil, apperrors.Invalid("unknown method %q", method)
	}
	loc := l.locOr(in.Loc)
	day := l.dayOr(in.Date, loc)

	p, key, err := l.resolveKey(ctx, in.BranchID, in.PersonRef, day, in.Period, in.BatchID)
	if err != nil {
		mark("check_in", "rejected")
		return nil, err
	}

	if method == model.AttendanceMethodQR || strings.TrimSpace(in.QR) != "" {
		qr, err := ParseQR(in.QR)
		if err == nil {
			err = VerifyQR(qr, p)
		}
		if err != nil {
			mark("check_in", "rejected")
			return nil, err
		}
	}

	at := l.now()
	if in.At != nil && !in.At.IsZero() {
		at = *in.At
		if !dbtime.DayOf(at, loc).Equal(day) {
			mark("check_in", "rejected")
			return nil, fmt.Errorf("check-in %s is not on %s: %w", at.In(loc).Format(time.RFC3339), day.Format(dbtime.DayLayout), apperrors.ErrInvalidTime)
		}
	}
	status, late := ClassifyCheckIn(l.cutoffs, key.Period, at.In(loc))

	rec := &model.AttendanceRecordModel{
		AttendanceRecordBranchID:    key.BranchID,
		AttendanceRecordPersonID:    key.PersonID,
		AttendanceRecordPersonKind:  p.PersonKind,
		AttendanceRecordDate:        key.Date,
		AttendanceRecordPeriod:      key.Period,
		AttendanceRecordStatus:      status,
		AttendanceRecordCheckInAt:   &at,
		AttendanceRecordLateSeconds: lateSecondsPtr(late),
		AttendanceRecordMethod:      method,
		AttendanceRecordMarkedBy:    in.MarkedBy,
		AttendanceRecordNote:        in.Note,
	}

	err = l.store.Insert(ctx, rec)
	if err == nil {
		mark("check_in", OutcomeCreated)
		change := l.record(key.BranchID, in.MarkedBy, rec, "check_in", nil)
		return &MarkResult{Record: rec, Outcome: OutcomeCreated, Audit: change}, nil
	}
	if !apperrors.IsUniqueViolation(err) {
		return nil, err
	}

	// key sudah ada → cek state record lama
	existing, err := l.store.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing.AttendanceRecordCheckInAt == nil {
		filled, ok, err := l.store.FillCheckIn(ctx, existing.AttendanceRecordID, CheckInFill{
			CheckInAt:   at,
			Status:      status,
			LateSeconds: lateSecondsPtr(late),
			Method:      method,
			MarkedBy:    in.MarkedBy,
		})
		if err != nil {
			return nil, err
		}
		if ok {
			mark("check_in", OutcomeFilled)
			change := l.record(key.BranchID, in.MarkedBy, filled, "fill", existing)
			return &MarkResult{Record: filled, Outcome: OutcomeFilled, Audit: change}, nil
		}
		// kalah balapan: ada request lain yang sudah mengisi check-in
		existing = filled
	}

	if existing.AttendanceRecordCheckOutAt != nil {
		mark("check_in", "already_complete")
		return &MarkResult{Record: existing}, fmt.Errorf("%s on %s: %w", p.PersonCode, day.Format(dbtime.DayLayout), apperrors.ErrAlreadyComplete)
	}
	mark("check_in", "duplicate")
	return &MarkResult{Record: existing}, fmt.Errorf("%s on %s: %w", p.PersonCode, day.Format(dbtime.DayLayout), apperrors.ErrDuplicateAttendance)
}

/* ===================== CheckOut ===================== */

func (l *Ledger) CheckOut(ctx context.Context, in CheckOutInput) (*MarkResult, error) {
	loc := l.locOr(in.Loc)
	day := l.dayOr(in.Date, loc)

	p, key, err := l.resolveKey(ctx, in.BranchID, in.PersonRef, day, in.Period, nil)
	if err != nil {
		mark("check_out", "rejected")
		return nil, err
	}

	existing, err := l.store.GetByKey(ctx, key)
	if errors.Is(err, apperrors.ErrNotFound) {
		mark("check_out", "no_check_in")
		return nil, fmt.Errorf("%s on %s: %w", p.PersonCode, day.Format(dbtime.DayLayout), apperrors.ErrNoCheckIn)
	}
	if err != nil {
		return nil, err
	}
	if existing.AttendanceRecordCheckInAt == nil {
		mark("check_out", "no_check_in")
		return &MarkResult{Record: existing}, fmt.Errorf("%s on %s: %w", p.PersonCode, day.Format(dbtime.DayLayout), apperrors.ErrNoCheckIn)
	}
	if existing.AttendanceRecordCheckOutAt != nil {
		mark("check_out", "already_complete")
		return &MarkResult{Record: existing}, fmt.Errorf("%s on %s: %w", p.PersonCode, day.Format(dbtime.DayLayout), apperrors.ErrAlreadyComplete)
	}

	at := l.now()
	if in.At != nil && !in.At.IsZero() {
		at = *in.At
	}
	if at.Before(*existing.AttendanceRecordCheckInAt) {
		mark("check_out", "rejected")
		return nil, fmt.Errorf("check-out %s before check-in %s: %w",
			at.In(loc).Format("15:04:05"), existing.AttendanceRecordCheckInAt.In(loc).Format("15:04:05"), apperrors.ErrInvalidTime)
	}

	updated, ok, err := l.store.SetCheckOut(ctx, existing.AttendanceRecordID, at)
	if err != nil {
		return nil, err
	}
	if !ok {
		mark("check_out", "already_complete")
		return &MarkResult{Record: updated}, fmt.Errorf("%s on %s: %w", p.PersonCode, day.Format(dbtime.DayLayout), apperrors.ErrAlreadyComplete)
	}
	mark("check_out", "checked_out")
	change := l.record(key.BranchID, in.MarkedBy, updated, "check_out", existing)
	return &MarkResult{Record: updated, Outcome: "checked_out", Audit: change}, nil
}

/* ===================== MarkExplicit ===================== */

// MarkExplicit: override admin untuk key yang sama. absent mengosongkan check-in/out (lihat CarryOver).
func (l *Ledger) MarkExplicit(ctx context.Context, in ExplicitInput) (*model.AttendanceRecordModel, auditSvc.Change, error) {
	if !in.Status.Valid() {
		return nil, auditSvc.Change{}, apperrors.Invalid("unknown status %q", in.Status)
	}
	method := in.Method
	if method == "" {
		method = model.AttendanceMethodManual
	}
	if !method.Valid() {
		return nil, auditSvc.Change{}, apperrors.Invalid("unknown method %q", method)
	}
	if in.Date.IsZero() {
		return nil, auditSvc.Change{}, apperrors.Invalid("date is required")
	}
	day := dbtime.DayOf(in.Date, time.UTC)

	// override admin boleh untuk person nonaktif (koreksi data lama)
	p, err := l.people.Resolve(ctx, in.BranchID, in.PersonRef)
	if err != nil {
		return nil, auditSvc.Change{}, err
	}
	period, err := effectivePeriod(p, in.Period, nil)
	if err != nil {
		return nil, auditSvc.Change{}, err
	}

	rec := &model.AttendanceRecordModel{
		AttendanceRecordBranchID:   in.BranchID,
		AttendanceRecordPersonID:   p.PersonID,
		AttendanceRecordPersonKind: p.PersonKind,
		AttendanceRecordDate:       day,
		AttendanceRecordPeriod:     period,
		AttendanceRecordStatus:     in.Status,
		AttendanceRecordMethod:     method,
		AttendanceRecordMarkedBy:   in.MarkedBy,
		AttendanceRecordNote:       in.Note,
	}
	old, err := l.store.Upsert(ctx, rec)
	if err != nil {
		mark("explicit", "error")
		return nil, auditSvc.Change{}, err
	}
	mark("explicit", string(in.Status))
	return rec, l.record(in.BranchID, in.MarkedBy, rec, "mark_explicit", old), nil
}

/* ===================== Delete ===================== */

func (l *Ledger) Delete(ctx context.Context, branchID, recordID uuid.UUID, actor *uuid.UUID) (auditSvc.Change, error) {
	old, err := l.store.GetByID(ctx, branchID, recordID)
	if err != nil {
		return auditSvc.Change{}, err
	}
	if err := l.store.Delete(ctx, branchID, recordID); err != nil {
		return auditSvc.Change{}, err
	}
	change := auditSvc.Change{OldData: old}
	l.audit.Record(auditSvc.Entry{
		BranchID: branchID,
		ActorID:  actor,
		Entity:   "attendance_record",
		EntityID: recordID,
		Action:   "delete",
		Change:   change,
	})
	return change, nil
}
