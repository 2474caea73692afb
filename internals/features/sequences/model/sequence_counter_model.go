// file: internals/features/sequences/model/sequence_counter_model.go
package model

import "time"

// Counter atomik per (branch_code, kind, period_key).
// period_key = "" untuk kind tanpa periode (staff, certificate).
type SequenceCounterModel struct {
	SequenceCounterBranchCode string    `gorm:"type:varchar(20);primaryKey;column:sequence_counter_branch_code" json:"sequence_counter_branch_code"`
	SequenceCounterKind       string    `gorm:"type:varchar(20);primaryKey;column:sequence_counter_kind" json:"sequence_counter_kind"`
	SequenceCounterPeriodKey  string    `gorm:"type:varchar(10);primaryKey;column:sequence_counter_period_key" json:"sequence_counter_period_key"`
	SequenceCounterValue      int64     `gorm:"not null;default:0;column:sequence_counter_value" json:"sequence_counter_value"`
	SequenceCounterUpdatedAt  time.Time `gorm:"type:timestamptz;not null;autoUpdateTime;column:sequence_counter_updated_at" json:"sequence_counter_updated_at"`
}

func (SequenceCounterModel) TableName() string { return "sequence_counters" }
