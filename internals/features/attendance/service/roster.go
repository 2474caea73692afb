package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"schoolku_backend/internals/features/attendance/model"
	peopleModel "schoolku_backend/internals/features/people/model"
	"schoolku_backend/internals/helpers/apperrors"
)

// RosterEntry: person + record pemicunya (nil untuk unmarked).
type RosterEntry struct {
	PersonID   uuid.UUID                    `json:"person_id"`
	PersonCode string                       `json:"person_code"`
	PersonName string                       `json:"person_name"`
	Period     string                       `json:"period,omitempty"`
	Record     *model.AttendanceRecordModel `json:"record,omitempty"`
}

type Absentees struct {
	Date           time.Time     `json:"date"`
	Kind           string        `json:"kind"`
	Period         string        `json:"period,omitempty"`
	RosterSize     int           `json:"roster_size"`
	Present        []RosterEntry `json:"present"`
	MarkedAbsent   []RosterEntry `json:"marked_absent"`
	UnmarkedAbsent []RosterEntry `json:"unmarked_absent"`
}

func entryOf(p peopleModel.PersonModel, rec *model.AttendanceRecordModel) RosterEntry {
	return RosterEntry{
		PersonID:   p.PersonID,
		PersonCode: p.PersonCode,
		PersonName: p.PersonName,
		Period:     p.Period(),
		Record:     rec,
	}
}

// DiffRoster: pure set-difference.
//
//	present        = roster ∩ {record present|late}
//	markedAbsent   = (roster − present) ∩ {record absent}
//	unmarkedAbsent = roster − present − markedAbsent
//
// Hanya anggota roster yang masuk bucket, jadi ketiganya selalu partisi roster.
func DiffRoster(roster []peopleModel.PersonModel, records []model.AttendanceRecordModel) (present, markedAbsent, unmarkedAbsent []RosterEntry) {
	attended := make(map[uuid.UUID]*model.AttendanceRecordModel, len(records))
	absent := make(map[uuid.UUID]*model.AttendanceRecordModel, len(records))
	for i := range records {
		r := &records[i]
		switch {
		case r.AttendanceRecordStatus.Attended():
			if _, ok := attended[r.AttendanceRecordPersonID]; !ok {
				attended[r.AttendanceRecordPersonID] = r
			}
		case r.AttendanceRecordStatus == model.AttendanceStatusAbsent:
			if _, ok := absent[r.AttendanceRecordPersonID]; !ok {
				absent[r.AttendanceRecordPersonID] = r
			}
		}
	}

	present = make([]RosterEntry, 0)
	markedAbsent = make([]RosterEntry, 0)
	unmarkedAbsent = make([]RosterEntry, 0)

	seen := make(map[uuid.UUID]struct{}, len(roster))
	for _, p := range roster {
		if _, dup := seen[p.PersonID]; dup {
			continue
		}
		seen[p.PersonID] = struct{}{}

		if rec, ok := attended[p.PersonID]; ok {
			present = append(present, entryOf(p, rec))
			continue
		}
		if rec, ok := absent[p.PersonID]; ok {
			markedAbsent = append(markedAbsent, entryOf(p, rec))
			continue
		}
		unmarkedAbsent = append(unmarkedAbsent, entryOf(p, nil))
	}

	byCode := func(xs []RosterEntry) {
		sort.Slice(xs, func(i, j int) bool { return xs[i].PersonCode < xs[j].PersonCode })
	}
	byCode(present)
	byCode(markedAbsent)
	byCode(unmarkedAbsent)
	return present, markedAbsent, unmarkedAbsent
}

// ComputeAbsentees: roster & record dibaca dalam satu snapshot (lihat Store.RosterSnapshot).
// period opsional; untuk student membatasi roster ke batch period tsb.
func (l *Ledger) ComputeAbsentees(ctx context.Context, branchID uuid.UUID, day time.Time, kind peopleModel.PersonKind, period string) (*Absentees, error) {
	if !kind.Valid() {
		return nil, apperrors.Invalid("unknown person kind %q", kind)
	}
	period = strings.ToUpper(strings.TrimSpace(period))
	if kind.IsStaffLike() {
		period = ""
	}

	roster, records, err := l.store.RosterSnapshot(ctx, RosterQuery{
		BranchID: branchID,
		Date:     day,
		Kind:     kind,
		Period:   period,
	})
	if err != nil {
		return nil, err
	}

	present, marked, unmarked := DiffRoster(roster, records)
	return &Absentees{
		Date:           day,
		Kind:           string(kind),
		Period:         period,
		RosterSize:     len(present) + len(marked) + len(unmarked),
		Present:        present,
		MarkedAbsent:   marked,
		UnmarkedAbsent: unmarked,
	}, nil
}
