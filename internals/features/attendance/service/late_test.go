package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolku_backend/internals/features/attendance/model"
)

func at(hhmmss string) time.Time {
	t, err := time.Parse("15:04:05", hhmmss)
	if err != nil {
		panic(err)
	}
	return time.Date(2026, 1, 5, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func TestClassifyCheckIn(t *testing.T) {
	cut := DefaultCutoffs()

	tests := []struct {
		name     string
		period   string
		checkIn  string
		want     model.AttendanceStatus
		wantLate int
	}{
		{name: "staff before cutoff", period: "", checkIn: "09:00:00", want: model.AttendanceStatusPresent},
		{name: "staff exactly at cutoff", period: "", checkIn: "09:15:00", want: model.AttendanceStatusPresent},
		{name: "staff one second late", period: "", checkIn: "09:15:01", want: model.AttendanceStatusLate, wantLate: 1},
		{name: "am student on time", period: "AM", checkIn: "09:40:00", want: model.AttendanceStatusPresent},
		{name: "am student late", period: "am", checkIn: "10:25:00", want: model.AttendanceStatusLate, wantLate: 25 * 60},
		{name: "pm student at cutoff", period: "PM", checkIn: "14:15:00", want: model.AttendanceStatusPresent},
		{name: "evening late", period: "EVENING", checkIn: "18:30:00", want: model.AttendanceStatusLate, wantLate: 15 * 60},
		{name: "unknown period falls back to staff", period: "NIGHT", checkIn: "09:20:00", want: model.AttendanceStatusLate, wantLate: 5 * 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, late := ClassifyCheckIn(cut, tt.period, at(tt.checkIn))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantLate, late)
		})
	}
}

func TestNewCutoffTable(t *testing.T) {
	tbl, err := NewCutoffTable(map[string]string{"am": "09:30", "PM": " "})
	require.NoError(t, err)
	assert.Equal(t, 9*3600+30*60, tbl.For("AM").Seconds())
	// entri kosong tetap default
	assert.Equal(t, 14*3600+15*60, tbl.For("PM").Seconds())

	_, err = NewCutoffTable(map[string]string{"AM": "25:99"})
	assert.Error(t, err)
}

func TestCutoffTable_View_sortedByTime(t *testing.T) {
	v := DefaultCutoffs().View()
	require.Len(t, v, 4)
	assert.Equal(t, CategoryStaff, v[0].Category)
	assert.Equal(t, "EVENING", v[3].Category)
}

func TestCategory(t *testing.T) {
	assert.Equal(t, CategoryStaff, Category(""))
	assert.Equal(t, "AM", Category(" am "))
}
