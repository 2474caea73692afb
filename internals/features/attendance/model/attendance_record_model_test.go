package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCarryOver(t *testing.T) {
	in := time.Date(2026, 1, 5, 9, 40, 0, 0, time.UTC)
	out := in.Add(8 * time.Hour)
	late := 1500
	prev := &AttendanceRecordModel{
		AttendanceRecordStatus:      AttendanceStatusLate,
		AttendanceRecordCheckInAt:   &in,
		AttendanceRecordCheckOutAt:  &out,
		AttendanceRecordLateSeconds: &late,
	}

	tests := []struct {
		name     string
		status   AttendanceStatus
		prev     *AttendanceRecordModel
		wantIn   bool
		wantLate bool
	}{
		{name: "absent clears everything", status: AttendanceStatusAbsent, prev: prev},
		{name: "present keeps times, drops late", status: AttendanceStatusPresent, prev: prev, wantIn: true},
		{name: "late keeps late seconds", status: AttendanceStatusLate, prev: prev, wantIn: true, wantLate: true},
		{name: "no previous record", status: AttendanceStatusLate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &AttendanceRecordModel{AttendanceRecordStatus: tt.status}
			m.CarryOver(tt.prev)
			assert.Equal(t, tt.wantIn, m.AttendanceRecordCheckInAt != nil)
			assert.Equal(t, tt.wantIn, m.AttendanceRecordCheckOutAt != nil)
			assert.Equal(t, tt.wantLate, m.AttendanceRecordLateSeconds != nil)
		})
	}
}
