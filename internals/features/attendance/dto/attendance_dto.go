// file: internals/features/attendance/dto/attendance_dto.go
package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"schoolku_backend/internals/features/attendance/model"
	"schoolku_backend/internals/helpers/dbtime"
)

/* =========================================================
   REQUEST DTOs
========================================================= */

// CheckInRequest: date "YYYY-MM-DD" (default hari ini), time "HH:MM[:SS]" lokal branch atau RFC3339.
type CheckInRequest struct {
	PersonRef string     `json:"person_ref" validate:"required,max=64"`
	Date      *string    `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Period    *string    `json:"period,omitempty" validate:"omitempty,max=20"`
	BatchID   *uuid.UUID `json:"batch_id,omitempty"`
	Method    string     `json:"method" validate:"omitempty,oneof=qr face manual"`
	Time      *string    `json:"time,omitempty" validate:"omitempty,max=40"`
	QR        string     `json:"qr,omitempty" validate:"omitempty,max=1024"`
	Note      *string    `json:"note,omitempty" validate:"omitempty,max=500"`
}

// ScanRequest: kiosk QR, person diambil dari payload.
type ScanRequest struct {
	QR   string  `json:"qr" validate:"required,max=1024"`
	Time *string `json:"time,omitempty" validate:"omitempty,max=40"`
}

type CheckOutRequest struct {
	PersonRef string  `json:"person_ref" validate:"required,max=64"`
	Date      *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Period    *string `json:"period,omitempty" validate:"omitempty,max=20"`
	Time      *string `json:"time,omitempty" validate:"omitempty,max=40"`
}

type ExplicitMarkRequest struct {
	PersonRef string  `json:"person_ref" validate:"required,max=64"`
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	Status    string  `json:"status" validate:"required,oneof=present late absent"`
	Period    *string `json:"period,omitempty" validate:"omitempty,max=20"`
	Method    string  `json:"method" validate:"omitempty,oneof=qr face manual"`
	Note      *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

type DayQuery struct {
	Date   string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	Kind   string `query:"kind" validate:"omitempty,oneof=student staff teacher"`
	Period string `query:"period" validate:"omitempty,max=20"`
}

type RangeQuery struct {
	From string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `query:"to" validate:"omitempty,datetime=2006-01-02"`
}

/* =========================================================
   Parsing helpers
========================================================= */

// ParseDate: nil/kosong → nil (service pakai hari ini).
func ParseDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	d, err := dbtime.ParseDay(*s)
	if err != nil {
		return nil, fmt.Errorf("date harus YYYY-MM-DD")
	}
	return &d, nil
}

// ParseClock: "HH:MM[:SS]" pada hari day di loc, atau RFC3339 absolut.
func ParseClock(raw *string, day *time.Time, now time.Time, loc *time.Location) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	tod, err := dbtime.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("time harus HH:MM, HH:MM:SS atau RFC3339")
	}
	base := dbtime.DayOf(now, loc)
	if day != nil {
		base = *day
	}
	t := time.Date(base.Year(), base.Month(), base.Day(), tod.Hour(), tod.Minute(), tod.Second(), 0, loc)
	return &t, nil
}

// ResolveRange: default 30 hari terakhir (inklusif) sampai hari ini di loc.
func (q RangeQuery) ResolveRange(now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	to := dbtime.DayOf(now, loc)
	if s := strings.TrimSpace(q.To); s != "" {
		d, err := dbtime.ParseDay(s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = d
	}
	from := to.AddDate(0, 0, -29)
	if s := strings.TrimSpace(q.From); s != "" {
		d, err := dbtime.ParseDay(s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = d
	}
	return from, to, nil
}

/* =========================================================
   RESPONSE DTOs
========================================================= */

type AttendanceRecordResponse struct {
	AttendanceRecordID          uuid.UUID  `json:"attendance_record_id"`
	AttendanceRecordPersonID    uuid.UUID  `json:"attendance_record_person_id"`
	AttendanceRecordPersonKind  string     `json:"attendance_record_person_kind"`
	AttendanceRecordDate        string     `json:"attendance_record_date"`
	AttendanceRecordPeriod      string     `json:"attendance_record_period,omitempty"`
	AttendanceRecordStatus      string     `json:"attendance_record_status"`
	AttendanceRecordCheckInAt   *time.Time `json:"attendance_record_check_in_at,omitempty"`
	AttendanceRecordCheckOutAt  *time.Time `json:"attendance_record_check_out_at,omitempty"`
	AttendanceRecordLateSeconds *int       `json:"attendance_record_late_seconds,omitempty"`
	AttendanceRecordMethod      string     `json:"attendance_record_method"`
	AttendanceRecordMarkedBy    *uuid.UUID `json:"attendance_record_marked_by,omitempty"`
	AttendanceRecordNote        *string    `json:"attendance_record_note,omitempty"`
}

func FromRecordModel(m *model.AttendanceRecordModel) *AttendanceRecordResponse {
	if m == nil {
		return nil
	}
	return &AttendanceRecordResponse{
		AttendanceRecordID:          m.AttendanceRecordID,
		AttendanceRecordPersonID:    m.AttendanceRecordPersonID,
		AttendanceRecordPersonKind:  string(m.AttendanceRecordPersonKind),
		AttendanceRecordDate:        m.AttendanceRecordDate.Format(dbtime.DayLayout),
		AttendanceRecordPeriod:      m.AttendanceRecordPeriod,
		AttendanceRecordStatus:      string(m.AttendanceRecordStatus),
		AttendanceRecordCheckInAt:   m.AttendanceRecordCheckInAt,
		AttendanceRecordCheckOutAt:  m.AttendanceRecordCheckOutAt,
		AttendanceRecordLateSeconds: m.AttendanceRecordLateSeconds,
		AttendanceRecordMethod:      string(m.AttendanceRecordMethod),
		AttendanceRecordMarkedBy:    m.AttendanceRecordMarkedBy,
		AttendanceRecordNote:        m.AttendanceRecordNote,
	}
}

func FromRecordModels(rows []model.AttendanceRecordModel) []*AttendanceRecordResponse {
	out := make([]*AttendanceRecordResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromRecordModel(&rows[i]))
	}
	return out
}
