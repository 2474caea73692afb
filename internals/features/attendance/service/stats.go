package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"schoolku_backend/internals/features/attendance/model"
	peopleModel "schoolku_backend/internals/features/people/model"
	"schoolku_backend/internals/helpers/apperrors"
	"schoolku_backend/internals/helpers/dbtime"
)

type PeriodStats struct {
	Period  string          `json:"period"`
	Present int             `json:"present"`
	Late    int             `json:"late"`
	Absent  int             `json:"absent"`
	Hours   decimal.Decimal `json:"hours"`
}

type PersonStats struct {
	PersonID   uuid.UUID `json:"person_id"`
	PersonCode string    `json:"person_code"`
	From       string    `json:"from"`
	To         string    `json:"to"`

	Days     int `json:"days"`
	Present  int `json:"present"`
	Late     int `json:"late"`
	Absent   int `json:"absent"`
	Unmarked int `json:"unmarked"`

	// (present + late) / days * 100, 2 desimal
	Percentage decimal.Decimal `json:"percentage"`
	Hours      decimal.Decimal `json:"hours"`
	// rata-rata telat (menit) untuk record late
	AvgLateMinutes decimal.Decimal `json:"avg_late_minutes"`

	Periods []PeriodStats `json:"periods"`
}

// Percentage: 0 kalau days = 0.
func Percentage(attended, days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(attended)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(days))).
		Round(2)
}

func hoursOf(d time.Duration) decimal.Decimal {
	return decimal.NewFromFloat(d.Hours()).Round(2)
}

// Summarize: pure, dipakai PersonStats & test.
func Summarize(records []model.AttendanceRecordModel, from, to time.Time) PersonStats {
	out := PersonStats{
		From: from.Format(dbtime.DayLayout),
		To:   to.Format(dbtime.DayLayout),
		Days: dbtime.DaysInRange(from, to),
	}

	var worked time.Duration
	var lateTotal int
	perPeriod := map[string]*PeriodStats{}
	perPeriodWorked := map[string]time.Duration{}
	markedDays := map[string]struct{}{}

	lo, hi := dbtime.DayOf(from, time.UTC), dbtime.DayOf(to, time.UTC)
	for _, r := range records {
		d := dbtime.DayOf(r.AttendanceRecordDate, time.UTC)
		if d.Before(lo) || d.After(hi) {
			continue
		}
		markedDays[d.Format(dbtime.DayLayout)] = struct{}{}

		ps, ok := perPeriod[r.AttendanceRecordPeriod]
		if !ok {
			ps = &PeriodStats{Period: r.AttendanceRecordPeriod}
			perPeriod[r.AttendanceRecordPeriod] = ps
		}
		switch r.AttendanceRecordStatus {
		case model.AttendanceStatusPresent:
			out.Present++
			ps.Present++
		case model.AttendanceStatusLate:
			out.Late++
			ps.Late++
			if r.AttendanceRecordLateSeconds != nil {
				lateTotal += *r.AttendanceRecordLateSeconds
			}
		case model.AttendanceStatusAbsent:
			out.Absent++
			ps.Absent++
		}
		if !r.AttendanceRecordStatus.Attended() {
			continue
		}
		w := r.Worked()
		worked += w
		perPeriodWorked[r.AttendanceRecordPeriod] += w
	}

	if u := out.Days - len(markedDays); u > 0 {
		out.Unmarked = u
	}
	out.Percentage = Percentage(out.Present+out.Late, out.Days)
	out.Hours = hoursOf(worked)
	out.AvgLateMinutes = decimal.Zero
	if out.Late > 0 {
		out.AvgLateMinutes = decimal.NewFromInt(int64(lateTotal)).
			Div(decimal.NewFromInt(int64(out.Late * 60))).
			Round(2)
	}

	out.Periods = make([]PeriodStats, 0, len(perPeriod))
	for k, ps := range perPeriod {
		ps.Hours = hoursOf(perPeriodWorked[k])
		out.Periods = append(out.Periods, *ps)
	}
	sort.Slice(out.Periods, func(i, j int) bool { return out.Periods[i].Period < out.Periods[j].Period })
	return out
}

func (l *Ledger) PersonStats(ctx context.Context, branchID uuid.UUID, ref string, from, to time.Time) (*PersonStats, error) {
	from, to = dbtime.DayOf(from, time.UTC), dbtime.DayOf(to, time.UTC)
	if to.Before(from) {
		return nil, apperrors.Invalid("range end %s before start %s", to.Format(dbtime.DayLayout), from.Format(dbtime.DayLayout))
	}
	p, err := l.people.Resolve(ctx, branchID, ref)
	if err != nil {
		return nil, err
	}
	records, err := l.store.ListByPerson(ctx, branchID, p.PersonID, from, to)
	if err != nil {
		return nil, err
	}
	st := Summarize(records, from, to)
	st.PersonID = p.PersonID
	st.PersonCode = p.PersonCode
	return &st, nil
}

// History: record mentah seorang person dalam rentang (panel student / teacher).
func (l *Ledger) History(ctx context.Context, branchID uuid.UUID, ref string, from, to time.Time) ([]model.AttendanceRecordModel, error) {
	from, to = dbtime.DayOf(from, time.UTC), dbtime.DayOf(to, time.UTC)
	if to.Before(from) {
		return nil, apperrors.Invalid("range end before start")
	}
	p, err := l.people.Resolve(ctx, branchID, ref)
	if err != nil {
		return nil, err
	}
	return l.store.ListByPerson(ctx, branchID, p.PersonID, from, to)
}

type DailySummary struct {
	Date           string          `json:"date"`
	Kind           string          `json:"kind"`
	Period         string          `json:"period,omitempty"`
	RosterSize     int             `json:"roster_size"`
	Present        int             `json:"present"`
	Late           int             `json:"late"`
	MarkedAbsent   int             `json:"marked_absent"`
	UnmarkedAbsent int             `json:"unmarked_absent"`
	Percentage     decimal.Decimal `json:"percentage"`
}

func (l *Ledger) DailySummary(ctx context.Context, branchID uuid.UUID, day time.Time, kind peopleModel.PersonKind, period string) (*DailySummary, error) {
	abs, err := l.ComputeAbsentees(ctx, branchID, day, kind, period)
	if err != nil {
		return nil, err
	}
	s := &DailySummary{
		Date:           abs.Date.Format(dbtime.DayLayout),
		Kind:           abs.Kind,
		Period:         abs.Period,
		RosterSize:     abs.RosterSize,
		MarkedAbsent:   len(abs.MarkedAbsent),
		UnmarkedAbsent: len(abs.UnmarkedAbsent),
	}
	for _, e := range abs.Present {
		if e.Record != nil && e.Record.AttendanceRecordStatus == model.AttendanceStatusLate {
			s.Late++
		} else {
			s.Present++
		}
	}
	s.Percentage = Percentage(s.Present+s.Late, s.RosterSize)
	return s, nil
}
