package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"schoolku_backend/internals/features/attendance/model"
	"schoolku_backend/internals/helpers/dbtime"
)

// CategoryStaff juga dipakai sebagai fallback untuk period yang tidak dikenal.
const CategoryStaff = "STAFF"

// CutoffTable: kategori period → batas jam masuk (waktu lokal branch).
type CutoffTable map[string]dbtime.Tod

func DefaultCutoffs() CutoffTable {
	return CutoffTable{
		"AM":          dbtime.MustParse("10:00"),
		"PM":          dbtime.MustParse("14:15"),
		"EVENING":     dbtime.MustParse("18:15"),
		CategoryStaff: dbtime.MustParse("09:15"),
	}
}

// NewCutoffTable dari config ("AM" → "10:00"). Entri kosong pakai default.
func NewCutoffTable(raw map[string]string) (CutoffTable, error) {
	t := DefaultCutoffs()
	for k, v := range raw {
		if strings.TrimSpace(v) == "" {
			continue
		}
		tod, err := dbtime.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("attendance cutoff %s: %w", k, err)
		}
		t[strings.ToUpper(strings.TrimSpace(k))] = tod
	}
	return t, nil
}

// Category: period student → kategorinya; staff/teacher (period kosong) → STAFF.
func Category(period string) string {
	p := strings.ToUpper(strings.TrimSpace(period))
	if p == "" {
		return CategoryStaff
	}
	return p
}

func (t CutoffTable) For(period string) dbtime.Tod {
	if tod, ok := t[Category(period)]; ok {
		return tod
	}
	return t[CategoryStaff]
}

// ClassifyCheckIn: pure. checkIn harus sudah di zona lokal branch.
// Telat kalau jam masuk > cutoff (tepat di cutoff masih present).
func ClassifyCheckIn(cutoffs CutoffTable, period string, checkIn time.Time) (model.AttendanceStatus, int) {
	cut := cutoffs.For(period).Seconds()
	at := checkIn.Hour()*3600 + checkIn.Minute()*60 + checkIn.Second()
	if at > cut {
		return model.AttendanceStatusLate, at - cut
	}
	return model.AttendanceStatusPresent, 0
}

// CutoffView untuk endpoint GET /attendance/cutoffs
type CutoffView struct {
	Category string     `json:"category"`
	Cutoff   dbtime.Tod `json:"cutoff"`
}

func (t CutoffTable) View() []CutoffView {
	out := make([]CutoffView, 0, len(t))
	for k, v := range t {
		out = append(out, CutoffView{Category: k, Cutoff: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cutoff.Seconds() < out[j].Cutoff.Seconds() })
	return out
}
