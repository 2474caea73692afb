// file: internals/features/people/model/branch_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type BranchModel struct {
	BranchID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:branch_id" json:"branch_id"`
	BranchCode     string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_branches_code;column:branch_code" json:"branch_code"`
	BranchName     string    `gorm:"type:varchar(120);not null;column:branch_name" json:"branch_name"`
	BranchTimezone string    `gorm:"type:varchar(64);not null;default:'Asia/Dhaka';column:branch_timezone" json:"branch_timezone"`

	BranchCreatedAt time.Time `gorm:"type:timestamptz;not null;autoCreateTime;column:branch_created_at" json:"branch_created_at"`
	BranchUpdatedAt time.Time `gorm:"type:timestamptz;not null;autoUpdateTime;column:branch_updated_at" json:"branch_updated_at"`
}

func (BranchModel) TableName() string { return "branches" }
