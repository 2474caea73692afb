package inmem

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"schoolku_backend/internals/features/attendance/model"
	"schoolku_backend/internals/features/attendance/service"
	peopleModel "schoolku_backend/internals/features/people/model"
	"schoolku_backend/internals/helpers/apperrors"
)

type AttendanceStore struct {
	db *DB
}

var _ service.Store = (*AttendanceStore)(nil)

func sameKey(a, b model.Key) bool {
	return a.BranchID == b.BranchID && a.PersonID == b.PersonID &&
		a.Date.Equal(b.Date) && a.Period == b.Period
}

func (db *DB) recordByKeyLocked(k model.Key) *model.AttendanceRecordModel {
	for _, r := range db.records {
		if sameKey(r.Key(), k) {
			return r
		}
	}
	return nil
}

func (db *DB) insertRecordLocked(rec *model.AttendanceRecordModel) error {
	if db.recordByKeyLocked(rec.Key()) != nil {
		return fmt.Errorf("attendance record: %w", apperrors.ErrUniqueViolation)
	}
	if rec.AttendanceRecordID == uuid.Nil {
		rec.AttendanceRecordID = uuid.New()
	}
	now := db.now()
	rec.AttendanceRecordCreatedAt, rec.AttendanceRecordUpdatedAt = now, now
	db.records[rec.AttendanceRecordID] = cloneRecord(rec)
	return nil
}

func (s *AttendanceStore) Insert(_ context.Context, rec *model.AttendanceRecordModel) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.insertRecordLocked(rec)
}

func (s *AttendanceStore) GetByKey(_ context.Context, key model.Key) (*model.AttendanceRecordModel, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if r := s.db.recordByKeyLocked(key); r != nil {
		return cloneRecord(r), nil
	}
	return nil, fmt.Errorf("attendance record: %w", apperrors.ErrNotFound)
}

func (s *AttendanceStore) GetByID(_ context.Context, branchID, recordID uuid.UUID) (*model.AttendanceRecordModel, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.records[recordID]
	if !ok || r.AttendanceRecordBranchID != branchID {
		return nil, fmt.Errorf("attendance record: %w", apperrors.ErrNotFound)
	}
	return cloneRecord(r), nil
}

// conditional: versi in-memory dari UPDATE ... WHERE <guard> RETURNING *
func (s *AttendanceStore) conditional(id uuid.UUID, guard func(*model.AttendanceRecordModel) bool, apply func(*model.AttendanceRecordModel)) (*model.AttendanceRecordModel, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.records[id]
	if !ok {
		return nil, false, fmt.Errorf("attendance record: %w", apperrors.ErrNotFound)
	}
	if !guard(r) {
		return cloneRecord(r), false, nil
	}
	apply(r)
	r.AttendanceRecordUpdatedAt = s.db.now()
	return cloneRecord(r), true, nil
}

func (s *AttendanceStore) FillCheckIn(_ context.Context, recordID uuid.UUID, f service.CheckInFill) (*model.AttendanceRecordModel, bool, error) {
	return s.conditional(recordID,
		func(r *model.AttendanceRecordModel) bool { return r.AttendanceRecordCheckInAt == nil },
		func(r *model.AttendanceRecordModel) {
			at := f.CheckInAt
			r.AttendanceRecordCheckInAt = &at
			r.AttendanceRecordStatus = f.Status
			r.AttendanceRecordLateSeconds = f.LateSeconds
			r.AttendanceRecordMethod = f.Method
			r.AttendanceRecordMarkedBy = f.MarkedBy
		})
}

func (s *AttendanceStore) SetCheckOut(_ context.Context, recordID uuid.UUID, at time.Time) (*model.AttendanceRecordModel, bool, error) {
	return s.conditional(recordID,
		func(r *model.AttendanceRecordModel) bool {
			return r.AttendanceRecordCheckInAt != nil && r.AttendanceRecordCheckOutAt == nil
		},
		func(r *model.AttendanceRecordModel) {
			r.AttendanceRecordCheckOutAt = &at
		})
}

func (s *AttendanceStore) Upsert(_ context.Context, rec *model.AttendanceRecordModel) (*model.AttendanceRecordModel, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	cur := s.db.recordByKeyLocked(rec.Key())
	if cur == nil {
		return nil, s.db.insertRecordLocked(rec)
	}
	old := cloneRecord(cur)
	rec.CarryOver(old)
	cur.AttendanceRecordStatus = rec.AttendanceRecordStatus
	cur.AttendanceRecordCheckInAt = rec.AttendanceRecordCheckInAt
	cur.AttendanceRecordCheckOutAt = rec.AttendanceRecordCheckOutAt
	cur.AttendanceRecordLateSeconds = rec.AttendanceRecordLateSeconds
	cur.AttendanceRecordMethod = rec.AttendanceRecordMethod
	cur.AttendanceRecordMarkedBy = rec.AttendanceRecordMarkedBy
	cur.AttendanceRecordNote = rec.AttendanceRecordNote
	cur.AttendanceRecordUpdatedAt = s.db.now()
	*rec = *cloneRecord(cur)
	return old, nil
}

func (s *AttendanceStore) Delete(_ context.Context, branchID, recordID uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.records[recordID]
	if !ok || r.AttendanceRecordBranchID != branchID {
		return fmt.Errorf("attendance record: %w", apperrors.ErrNotFound)
	}
	delete(s.db.records, recordID)
	return nil
}

func (s *AttendanceStore) ListByPerson(_ context.Context, branchID, personID uuid.UUID, from, to time.Time) ([]model.AttendanceRecordModel, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]model.AttendanceRecordModel, 0)
	for _, r := range s.db.records {
		if r.AttendanceRecordBranchID != branchID || r.AttendanceRecordPersonID != personID {
			continue
		}
		if r.AttendanceRecordDate.Before(from) || r.AttendanceRecordDate.After(to) {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AttendanceRecordDate.Equal(out[j].AttendanceRecordDate) {
			return out[i].AttendanceRecordDate.Before(out[j].AttendanceRecordDate)
		}
		return out[i].AttendanceRecordPeriod < out[j].AttendanceRecordPeriod
	})
	return out, nil
}

// RosterSnapshot: mu dipegang selama kedua bacaan, setara satu snapshot.
func (s *AttendanceStore) RosterSnapshot(_ context.Context, q service.RosterQuery) ([]peopleModel.PersonModel, []model.AttendanceRecordModel, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	period := ""
	if q.Kind == peopleModel.PersonKindStudent {
		period = q.Period
	}
	roster := s.db.listPersonsLocked(q.BranchID, q.Kind, true, period)

	records := make([]model.AttendanceRecordModel, 0)
	for _, r := range s.db.records {
		if r.AttendanceRecordBranchID != q.BranchID || r.AttendanceRecordPersonKind != q.Kind {
			continue
		}
		if !r.AttendanceRecordDate.Equal(q.Date) {
			continue
		}
		if q.Period != "" && r.AttendanceRecordPeriod != q.Period {
			continue
		}
		records = append(records, *r)
	}
	return roster, records, nil
}
