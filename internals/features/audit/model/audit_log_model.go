// file: internals/features/audit/model/audit_log_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditLogModel struct {
	AuditLogID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:audit_log_id" json:"audit_log_id"`
	AuditLogBranchID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_audit_logs_entity,priority:1;column:audit_log_branch_id" json:"audit_log_branch_id"`
	AuditLogActorID   *uuid.UUID     `gorm:"type:uuid;column:audit_log_actor_id" json:"audit_log_actor_id,omitempty"`
	AuditLogEntity    string         `gorm:"type:varchar(40);not null;index:idx_audit_logs_entity,priority:2;column:audit_log_entity" json:"audit_log_entity"`
	AuditLogEntityID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_audit_logs_entity,priority:3;column:audit_log_entity_id" json:"audit_log_entity_id"`
	AuditLogAction    string         `gorm:"type:varchar(40);not null;column:audit_log_action" json:"audit_log_action"`
	AuditLogOldData   datatypes.JSON `gorm:"type:jsonb;column:audit_log_old_data" json:"audit_log_old_data,omitempty"`
	AuditLogNewData   datatypes.JSON `gorm:"type:jsonb;column:audit_log_new_data" json:"audit_log_new_data,omitempty"`
	AuditLogCreatedAt time.Time      `gorm:"type:timestamptz;not null;autoCreateTime;column:audit_log_created_at" json:"audit_log_created_at"`
}

func (AuditLogModel) TableName() string { return "audit_logs" }
