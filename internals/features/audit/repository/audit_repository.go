// file: internals/features/audit/repository/audit_repository.go
package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolku_backend/internals/features/audit/model"
	"schoolku_backend/internals/features/audit/service"
)

type AuditRepository struct {
	DB *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{DB: db}
}

var _ service.ReadWriter = (*AuditRepository)(nil)

func (r *AuditRepository) InsertAuditLog(ctx context.Context, row *model.AuditLogModel) error {
	return r.DB.WithContext(ctx).Create(row).Error
}

// ListByEntity: riwayat perubahan satu entitas (terbaru dulu).
func (r *AuditRepository) ListByEntity(ctx context.Context, branchID uuid.UUID, entity string, entityID uuid.UUID, limit int) ([]model.AuditLogModel, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []model.AuditLogModel
	err := r.DB.WithContext(ctx).
		Where("audit_log_branch_id = ? AND audit_log_entity = ? AND audit_log_entity_id = ?", branchID, entity, entityID).
		Order("audit_log_created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
