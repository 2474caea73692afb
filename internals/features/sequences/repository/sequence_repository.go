// file: internals/features/sequences/repository/sequence_repository.go
package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schoolku_backend/internals/features/sequences/model"
	"schoolku_backend/internals/features/sequences/service"
)

type SequenceRepository struct {
	DB *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{DB: db}
}

var _ service.Store = (*SequenceRepository)(nil)

// Increment:
// 1) UPDATE ... SET value = value + 1 RETURNING (jalur normal, atomik di DB)
// 2) baris belum ada → seed dari scan ID lama lalu INSERT ... ON CONFLICT DO UPDATE.
//    Kalau dua request balapan bikin baris pertama, yang kalah jatuh ke DO UPDATE
//    sehingga tetap dapat angka berbeda.
func (r *SequenceRepository) Increment(ctx context.Context, key service.Key, legacyPrefix string) (int64, error) {
	db := r.DB.WithContext(ctx)

	var rows []model.SequenceCounterModel
	res := db.Model(&rows).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "sequence_counter_value"}}}).
		Where("sequence_counter_branch_code = ? AND sequence_counter_kind = ? AND sequence_counter_period_key = ?",
			key.BranchCode, string(key.Kind), key.PeriodKey).
		Updates(map[string]any{
			"sequence_counter_value":      gorm.Expr("sequence_counter_value + 1"),
			"sequence_counter_updated_at": gorm.Expr("now()"),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 && len(rows) > 0 {
		return rows[0].SequenceCounterValue, nil
	}

	seed, err := r.legacyMax(ctx, key, legacyPrefix)
	if err != nil {
		return 0, err
	}

	row := model.SequenceCounterModel{
		SequenceCounterBranchCode: key.BranchCode,
		SequenceCounterKind:       string(key.Kind),
		SequenceCounterPeriodKey:  key.PeriodKey,
		SequenceCounterValue:      seed + 1,
	}
	err = db.Clauses(
		clause.OnConflict{
			Columns: []clause.Column{
				{Name: "sequence_counter_branch_code"},
				{Name: "sequence_counter_kind"},
				{Name: "sequence_counter_period_key"},
			},
			DoUpdates: clause.Assignments(map[string]any{
				"sequence_counter_value":      gorm.Expr("sequence_counters.sequence_counter_value + 1"),
				"sequence_counter_updated_at": gorm.Expr("now()"),
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "sequence_counter_value"}}},
	).Create(&row).Error
	if err != nil {
		return 0, err
	}
	return row.SequenceCounterValue, nil
}

// legacyMax: ID terbesar yang sudah ada (urut panjang lalu leksikal = urut angka).
func (r *SequenceRepository) legacyMax(ctx context.Context, key service.Key, prefix string) (int64, error) {
	var table, column string
	switch key.Kind {
	case service.KindStudent, service.KindStaff:
		table, column = "persons", "person_code"
	case service.KindReceipt:
		table, column = "payments", "payment_receipt_number"
	default:
		return 0, nil
	}

	var ids []string
	err := r.DB.WithContext(ctx).
		Table(table).
		Where(column+" LIKE ?", escapeLike(prefix)+"%").
		Order("length(" + column + ") DESC, " + column + " DESC").
		Limit(1).
		Pluck(column, &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	n, _ := service.ParseSuffix(ids[0], prefix)
	return n, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
