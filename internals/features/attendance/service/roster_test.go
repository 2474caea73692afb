package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"schoolku_backend/internals/features/attendance/model"
	peopleModel "schoolku_backend/internals/features/people/model"
)

func person(code string) peopleModel.PersonModel {
	return peopleModel.PersonModel{PersonID: uuid.New(), PersonCode: code, PersonKind: peopleModel.PersonKindStaff}
}

func record(p peopleModel.PersonModel, st model.AttendanceStatus) model.AttendanceRecordModel {
	return model.AttendanceRecordModel{
		AttendanceRecordID:       uuid.New(),
		AttendanceRecordPersonID: p.PersonID,
		AttendanceRecordStatus:   st,
	}
}

func codes(xs []RosterEntry) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		out = append(out, x.PersonCode)
	}
	return out
}

func TestDiffRoster(t *testing.T) {
	a, b, c, d, e := person("S-005"), person("S-002"), person("S-003"), person("S-001"), person("S-004")
	outsider := person("S-999")

	roster := []peopleModel.PersonModel{a, b, c, d, e, a} // a dobel
	records := []model.AttendanceRecordModel{
		record(a, model.AttendanceStatusPresent),
		record(b, model.AttendanceStatusLate),
		record(c, model.AttendanceStatusAbsent),
		record(outsider, model.AttendanceStatusPresent),
	}

	present, marked, unmarked := DiffRoster(roster, records)

	assert.Equal(t, []string{"S-002", "S-005"}, codes(present))
	assert.Equal(t, []string{"S-003"}, codes(marked))
	assert.Equal(t, []string{"S-001", "S-004"}, codes(unmarked))
	assert.Equal(t, 5, len(present)+len(marked)+len(unmarked))

	for _, u := range unmarked {
		assert.Nil(t, u.Record)
	}
	assert.Equal(t, model.AttendanceStatusAbsent, marked[0].Record.AttendanceRecordStatus)
}

func TestDiffRoster_empty(t *testing.T) {
	present, marked, unmarked := DiffRoster(nil, nil)
	assert.NotNil(t, present)
	assert.Empty(t, present)
	assert.Empty(t, marked)
	assert.Empty(t, unmarked)
}

func TestPercentage(t *testing.T) {
	assert.True(t, Percentage(0, 0).IsZero())
	assert.Equal(t, "66.67", Percentage(2, 3).StringFixed(2))
	assert.Equal(t, "100.00", Percentage(5, 5).StringFixed(2))
}

func TestSummarize(t *testing.T) {
	from := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 4) // 5 hari

	in := func(day int, hh, mm int) *time.Time {
		v := time.Date(2026, 1, day, hh, mm, 0, 0, time.UTC)
		return &v
	}
	late := 600
	records := []model.AttendanceRecordModel{
		{
			AttendanceRecordDate:       from,
			AttendanceRecordPeriod:     "AM",
			AttendanceRecordStatus:     model.AttendanceStatusPresent,
			AttendanceRecordCheckInAt:  in(5, 9, 0),
			AttendanceRecordCheckOutAt: in(5, 12, 0),
		},
		{
			AttendanceRecordDate:        from.AddDate(0, 0, 1),
			AttendanceRecordPeriod:      "AM",
			AttendanceRecordStatus:      model.AttendanceStatusLate,
			AttendanceRecordCheckInAt:   in(6, 10, 10),
			AttendanceRecordLateSeconds: &late,
		},
		{
			AttendanceRecordDate:   from.AddDate(0, 0, 2),
			AttendanceRecordPeriod: "AM",
			AttendanceRecordStatus: model.AttendanceStatusAbsent,
		},
		// di luar range, diabaikan
		{
			AttendanceRecordDate:   from.AddDate(0, 0, 10),
			AttendanceRecordPeriod: "AM",
			AttendanceRecordStatus: model.AttendanceStatusPresent,
		},
	}

	st := Summarize(records, from, to)
	assert.Equal(t, 5, st.Days)
	assert.Equal(t, 1, st.Present)
	assert.Equal(t, 1, st.Late)
	assert.Equal(t, 1, st.Absent)
	assert.Equal(t, 2, st.Unmarked)
	assert.Equal(t, "40.00", st.Percentage.StringFixed(2))
	assert.True(t, st.Hours.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, "10.00", st.AvgLateMinutes.StringFixed(2))
	if assert.Len(t, st.Periods, 1) {
		assert.Equal(t, "AM", st.Periods[0].Period)
	}
}

func TestSummarize_absentCountsNoHours(t *testing.T) {
	d := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	in, out := d.Add(9*time.Hour), d.Add(17*time.Hour)

	// data lama: absent tapi timestamp masih tersisa
	st := Summarize([]model.AttendanceRecordModel{{
		AttendanceRecordDate:       d,
		AttendanceRecordStatus:     model.AttendanceStatusAbsent,
		AttendanceRecordCheckInAt:  &in,
		AttendanceRecordCheckOutAt: &out,
	}}, d, d)
	assert.Equal(t, 1, st.Absent)
	assert.True(t, st.Hours.IsZero())
	if assert.Len(t, st.Periods, 1) {
		assert.True(t, st.Periods[0].Hours.IsZero())
	}
}
