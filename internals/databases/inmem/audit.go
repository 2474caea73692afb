package inmem

import (
	"context"

	"github.com/google/uuid"

	"schoolku_backend/internals/features/audit/model"
	"schoolku_backend/internals/features/audit/service"
)

type AuditStore struct {
	db *DB
}

var _ service.ReadWriter = (*AuditStore)(nil)

func (s *AuditStore) InsertAuditLog(_ context.Context, row *model.AuditLogModel) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.FailAudit != nil {
		return s.db.FailAudit
	}
	if row.AuditLogID == uuid.Nil {
		row.AuditLogID = uuid.New()
	}
	row.AuditLogCreatedAt = s.db.now()
	s.db.audits = append(s.db.audits, *row)
	return nil
}

func (s *AuditStore) ListByEntity(_ context.Context, branchID uuid.UUID, entity string, entityID uuid.UUID, limit int) ([]model.AuditLogModel, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]model.AuditLogModel, 0)
	for i := len(s.db.audits) - 1; i >= 0 && len(out) < limit; i-- {
		a := s.db.audits[i]
		if a.AuditLogBranchID == branchID && a.AuditLogEntity == entity && a.AuditLogEntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}
