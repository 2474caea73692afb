// file: internals/features/attendance/model/attendance_record_model.go
package model

import (
	"time"

	"github.com/google/uuid"

	peopleModel "schoolku_backend/internals/features/people/model"
)

/* =========================
   ENUMS (selaras dgn DB)
   ========================= */

type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusLate, AttendanceStatusAbsent:
		return true
	}
	return false
}

// Attended: present/late dihitung hadir
func (s AttendanceStatus) Attended() bool {
	return s == AttendanceStatusPresent || s == AttendanceStatusLate
}

type AttendanceMethod string

const (
	AttendanceMethodQR     AttendanceMethod = "qr"
	AttendanceMethodFace   AttendanceMethod = "face"
	AttendanceMethodManual AttendanceMethod = "manual"
)

func (m AttendanceMethod) Valid() bool {
	switch m {
	case AttendanceMethodQR, AttendanceMethodFace, AttendanceMethodManual:
		return true
	}
	return false
}

/* =========================================
   MODEL: attendance_records
   key unik: (branch, person, date, period); period '' untuk staff/teacher
   ========================================= */

type AttendanceRecordModel struct {
	AttendanceRecordID         uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:attendance_record_id" json:"attendance_record_id"`
	AttendanceRecordBranchID   uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_records_key,priority:1;index:idx_attendance_records_day,priority:1;column:attendance_record_branch_id" json:"attendance_record_branch_id"`
	AttendanceRecordPersonID   uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_records_key,priority:2;column:attendance_record_person_id" json:"attendance_record_person_id"`
	AttendanceRecordPersonKind peopleModel.PersonKind `gorm:"type:varchar(16);not null;index:idx_attendance_records_day,priority:3;column:attendance_record_person_kind" json:"attendance_record_person_kind"`

	AttendanceRecordDate   time.Time `gorm:"type:date;not null;uniqueIndex:uq_attendance_records_key,priority:3;index:idx_attendance_records_day,priority:2;column:attendance_record_date" json:"attendance_record_date"`
	AttendanceRecordPeriod string    `gorm:"type:varchar(20);not null;default:'';uniqueIndex:uq_attendance_records_key,priority:4;column:attendance_record_period" json:"attendance_record_period"`

	AttendanceRecordStatus      AttendanceStatus `gorm:"type:varchar(10);not null;column:attendance_record_status" json:"attendance_record_status"`
	AttendanceRecordCheckInAt   *time.Time       `gorm:"type:timestamptz;column:attendance_record_check_in_at" json:"attendance_record_check_in_at,omitempty"`
	AttendanceRecordCheckOutAt  *time.Time       `gorm:"type:timestamptz;column:attendance_record_check_out_at" json:"attendance_record_check_out_at,omitempty"`
	AttendanceRecordLateSeconds *int             `gorm:"type:int;column:attendance_record_late_seconds" json:"attendance_record_late_seconds,omitempty"`
	AttendanceRecordMethod      AttendanceMethod `gorm:"type:varchar(10);not null;default:'manual';column:attendance_record_method" json:"attendance_record_method"`
	AttendanceRecordMarkedBy    *uuid.UUID       `gorm:"type:uuid;column:attendance_record_marked_by" json:"attendance_record_marked_by,omitempty"`
	AttendanceRecordNote        *string          `gorm:"type:text;column:attendance_record_note" json:"attendance_record_note,omitempty"`

	AttendanceRecordCreatedAt time.Time `gorm:"type:timestamptz;not null;autoCreateTime;column:attendance_record_created_at" json:"attendance_record_created_at"`
	AttendanceRecordUpdatedAt time.Time `gorm:"type:timestamptz;not null;autoUpdateTime;column:attendance_record_updated_at" json:"attendance_record_updated_at"`
}

func (AttendanceRecordModel) TableName() string { return "attendance_records" }

// Key = identitas logis satu record absensi.
type Key struct {
	BranchID uuid.UUID
	PersonID uuid.UUID
	Date     time.Time // tengah malam UTC (lihat dbtime.DayOf)
	Period   string
}

func (m AttendanceRecordModel) Key() Key {
	return Key{
		BranchID: m.AttendanceRecordBranchID,
		PersonID: m.AttendanceRecordPersonID,
		Date:     m.AttendanceRecordDate,
		Period:   m.AttendanceRecordPeriod,
	}
}

// Worked: durasi check-in → check-out (0 kalau belum lengkap)
func (m AttendanceRecordModel) Worked() time.Duration {
	if m.AttendanceRecordCheckInAt == nil || m.AttendanceRecordCheckOutAt == nil {
		return 0
	}
	d := m.AttendanceRecordCheckOutAt.Sub(*m.AttendanceRecordCheckInAt)
	if d < 0 {
		return 0
	}
	return d
}

// CarryOver: override admin menimpa seluruh state record lama (prev).
// absent → check-in/out & late dikosongkan; late_seconds hanya bertahan kalau status late.
func (m *AttendanceRecordModel) CarryOver(prev *AttendanceRecordModel) {
	m.AttendanceRecordCheckInAt, m.AttendanceRecordCheckOutAt, m.AttendanceRecordLateSeconds = nil, nil, nil
	if prev == nil || m.AttendanceRecordStatus == AttendanceStatusAbsent {
		return
	}
	m.AttendanceRecordCheckInAt = prev.AttendanceRecordCheckInAt
	m.AttendanceRecordCheckOutAt = prev.AttendanceRecordCheckOutAt
	if m.AttendanceRecordStatus == AttendanceStatusLate {
		m.AttendanceRecordLateSeconds = prev.AttendanceRecordLateSeconds
	}
}
