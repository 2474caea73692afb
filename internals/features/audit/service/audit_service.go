// file: internals/features/audit/service/audit_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"schoolku_backend/internals/features/audit/model"
	"schoolku_backend/internals/helpers/metrics"
)

// Change = pasangan old/new yang dikembalikan ke caller untuk dirender.
type Change struct {
	OldData any `json:"old_data"`
	NewData any `json:"new_data"`
}

type Entry struct {
	BranchID uuid.UUID
	ActorID  *uuid.UUID
	Entity   string
	EntityID uuid.UUID
	Action   string
	Change   Change
}

type Store interface {
	InsertAuditLog(ctx context.Context, row *model.AuditLogModel) error
}

// Reader: riwayat perubahan untuk panel admin.
type Reader interface {
	ListByEntity(ctx context.Context, branchID uuid.UUID, entity string, entityID uuid.UUID, limit int) ([]model.AuditLogModel, error)
}

type ReadWriter interface {
	Store
	Reader
}

// Recorder: side channel best-effort. Gagal tulis → log + metric, tidak pernah naik ke caller.
type Recorder struct {
	store   Store
	log     *zap.Logger
	timeout time.Duration
}

func NewRecorder(store Store, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{store: store, log: log.Named("audit"), timeout: 3 * time.Second}
}

// Record ditulis sinkron tapi dengan context sendiri (bukan context request),
// supaya request yang sudah selesai/cancel tidak membatalkan audit.
func (r *Recorder) Record(e Entry) {
	if r == nil || r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	row := &model.AuditLogModel{
		AuditLogBranchID: e.BranchID,
		AuditLogActorID:  e.ActorID,
		AuditLogEntity:   e.Entity,
		AuditLogEntityID: e.EntityID,
		AuditLogAction:   e.Action,
		AuditLogOldData:  toJSON(e.Change.OldData),
		AuditLogNewData:  toJSON(e.Change.NewData),
	}

	defer func() {
		if p := recover(); p != nil {
			metrics.AuditFailures.Inc()
			r.log.Warn("audit write panicked", zap.Any("panic", p), zap.String("entity", e.Entity))
		}
	}()
	if err := r.store.InsertAuditLog(ctx, row); err != nil {
		metrics.AuditFailures.Inc()
		r.log.Warn("audit write failed",
			zap.Error(err),
			zap.String("entity", e.Entity),
			zap.String("entity_id", e.EntityID.String()),
			zap.String("action", e.Action),
		)
	}
}

func toJSON(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
