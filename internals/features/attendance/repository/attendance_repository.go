// file: internals/features/attendance/repository/attendance_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schoolku_backend/internals/features/attendance/model"
	"schoolku_backend/internals/features/attendance/service"
	peopleModel "schoolku_backend/internals/features/people/model"
	"schoolku_backend/internals/helpers/apperrors"
)

type AttendanceRepository struct {
	DB *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{DB: db}
}

var _ service.Store = (*AttendanceRepository)(nil)

var keyColumns = []clause.Column{
	{Name: "attendance_record_branch_id"},
	{Name: "attendance_record_person_id"},
	{Name: "attendance_record_date"},
	{Name: "attendance_record_period"},
}

func whereKey(db *gorm.DB, k model.Key) *gorm.DB {
	return db.Where(
		"attendance_record_branch_id = ? AND attendance_record_person_id = ? AND attendance_record_date = ? AND attendance_record_period = ?",
		k.BranchID, k.PersonID, k.Date, k.Period,
	)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("attendance record: %w", apperrors.ErrNotFound)
	}
	return err
}

// Insert: unique violation (23505) dibiarkan naik apa adanya; service yang memetakan.
func (r *AttendanceRepository) Insert(ctx context.Context, rec *model.AttendanceRecordModel) error {
	return r.DB.WithContext(ctx).Create(rec).Error
}

func (r *AttendanceRepository) GetByKey(ctx context.Context, key model.Key) (*model.AttendanceRecordModel, error) {
	var m model.AttendanceRecordModel
	if err := whereKey(r.DB.WithContext(ctx), key).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *AttendanceRepository) GetByID(ctx context.Context, branchID, recordID uuid.UUID) (*model.AttendanceRecordModel, error) {
	var m model.AttendanceRecordModel
	if err := r.DB.WithContext(ctx).
		Where("attendance_record_branch_id = ? AND attendance_record_id = ?", branchID, recordID).
		First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// conditionalUpdate: UPDATE ... WHERE id = ? AND <guard> RETURNING *.
// ok=false → guard tidak terpenuhi; record terkini tetap dikembalikan.
func (r *AttendanceRepository) conditionalUpdate(ctx context.Context, id uuid.UUID, guard string, set map[string]any) (*model.AttendanceRecordModel, bool, error) {
	db := r.DB.WithContext(ctx)

	var rows []model.AttendanceRecordModel
	res := db.Model(&rows).
		Clauses(clause.Returning{}).
		Where("attendance_record_id = ? AND "+guard, id).
		Updates(set)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 && len(rows) > 0 {
		return &rows[0], true, nil
	}

	var cur model.AttendanceRecordModel
	if err := db.Where("attendance_record_id = ?", id).First(&cur).Error; err != nil {
		return nil, false, notFound(err)
	}
	return &cur, false, nil
}

func (r *AttendanceRepository) FillCheckIn(ctx context.Context, recordID uuid.UUID, f service.CheckInFill) (*model.AttendanceRecordModel, bool, error) {
	return r.conditionalUpdate(ctx, recordID, "attendance_record_check_in_at IS NULL", map[string]any{
		"attendance_record_check_in_at":  f.CheckInAt,
		"attendance_record_status":       f.Status,
		"attendance_record_late_seconds": f.LateSeconds,
		"attendance_record_method":       f.Method,
		"attendance_record_marked_by":    f.MarkedBy,
		"attendance_record_updated_at":   gorm.Expr("now()"),
	})
}

func (r *AttendanceRepository) SetCheckOut(ctx context.Context, recordID uuid.UUID, at time.Time) (*model.AttendanceRecordModel, bool, error) {
	return r.conditionalUpdate(ctx, recordID,
		"attendance_record_check_in_at IS NOT NULL AND attendance_record_check_out_at IS NULL",
		map[string]any{
			"attendance_record_check_out_at": at,
			"attendance_record_updated_at":   gorm.Expr("now()"),
		})
}

// Upsert: lock baris lama (kalau ada) supaya old/new yang diaudit konsisten,
// lalu INSERT ... ON CONFLICT (key) DO UPDATE ... RETURNING *.
func (r *AttendanceRepository) Upsert(ctx context.Context, rec *model.AttendanceRecordModel) (*model.AttendanceRecordModel, error) {
	var old *model.AttendanceRecordModel
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prev model.AttendanceRecordModel
		err := whereKey(tx.Clauses(clause.Locking{Strength: "UPDATE"}), rec.Key()).First(&prev).Error
		switch {
		case err == nil:
			old = &prev
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}
		rec.CarryOver(old)

		return tx.Clauses(
			clause.OnConflict{
				Columns: keyColumns,
				DoUpdates: clause.AssignmentColumns([]string{
					"attendance_record_status",
					"attendance_record_check_in_at",
					"attendance_record_check_out_at",
					"attendance_record_late_seconds",
					"attendance_record_method",
					"attendance_record_marked_by",
					"attendance_record_note",
					"attendance_record_updated_at",
				}),
			},
			clause.Returning{},
		).Create(rec).Error
	})
	if err != nil {
		return nil, err
	}
	return old, nil
}

func (r *AttendanceRepository) Delete(ctx context.Context, branchID, recordID uuid.UUID) error {
	res := r.DB.WithContext(ctx).
		Where("attendance_record_branch_id = ? AND attendance_record_id = ?", branchID, recordID).
		Delete(&model.AttendanceRecordModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("attendance record: %w", apperrors.ErrNotFound)
	}
	return nil
}

func (r *AttendanceRepository) ListByPerson(ctx context.Context, branchID, personID uuid.UUID, from, to time.Time) ([]model.AttendanceRecordModel, error) {
	var rows []model.AttendanceRecordModel
	err := r.DB.WithContext(ctx).
		Where("attendance_record_branch_id = ? AND attendance_record_person_id = ?", branchID, personID).
		Where("attendance_record_date BETWEEN ? AND ?", from, to).
		Order("attendance_record_date ASC, attendance_record_period ASC").
		Find(&rows).Error
	return rows, err
}

// RosterSnapshot: roster + record hari itu dibaca dalam satu snapshot
// (REPEATABLE READ, read-only) supaya check-in yang balapan tidak muncul di dua bucket.
func (r *AttendanceRepository) RosterSnapshot(ctx context.Context, q service.RosterQuery) ([]peopleModel.PersonModel, []model.AttendanceRecordModel, error) {
	var (
		roster  []peopleModel.PersonModel
		records []model.AttendanceRecordModel
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pq := tx.Where("person_branch_id = ? AND person_kind = ? AND person_is_active = TRUE", q.BranchID, q.Kind)
		if q.Period != "" && q.Kind == peopleModel.PersonKindStudent {
			pq = pq.Where("person_batch_period = ?", q.Period)
		}
		if err := pq.Order("person_code ASC").Find(&roster).Error; err != nil {
			return err
		}

		rq := tx.Where("attendance_record_branch_id = ? AND attendance_record_date = ? AND attendance_record_person_kind = ?",
			q.BranchID, q.Date, q.Kind)
		if q.Period != "" {
			rq = rq.Where("attendance_record_period = ?", q.Period)
		}
		return rq.Find(&records).Error
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, nil, err
	}
	return roster, records, nil
}
