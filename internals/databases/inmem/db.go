// Package inmem: store in-memory untuk test & demo lokal.
// Satu DB dibagi oleh semua feature (persons dipakai attendance & fees),
// setiap feature mendapat adapter sendiri yang memenuhi interface Store-nya.
package inmem

import (
	"sync"
	"time"

	"github.com/google/uuid"

	attendanceModel "schoolku_backend/internals/features/attendance/model"
	auditModel "schoolku_backend/internals/features/audit/model"
	feeModel "schoolku_backend/internals/features/finance/fees/model"
	peopleModel "schoolku_backend/internals/features/people/model"
	seqSvc "schoolku_backend/internals/features/sequences/service"
)

type DB struct {
	mu sync.Mutex

	branches map[uuid.UUID]*peopleModel.BranchModel
	persons  map[uuid.UUID]*peopleModel.PersonModel
	records  map[uuid.UUID]*attendanceModel.AttendanceRecordModel
	payments map[uuid.UUID]*feeModel.PaymentModel
	counters map[seqSvc.Key]int64
	audits   []auditModel.AuditLogModel

	// FailAudit: kalau diisi, InsertAuditLog selalu gagal (test best-effort audit)
	FailAudit error

	now func() time.Time
}

func New() *DB {
	return &DB{
		branches: map[uuid.UUID]*peopleModel.BranchModel{},
		persons:  map[uuid.UUID]*peopleModel.PersonModel{},
		records:  map[uuid.UUID]*attendanceModel.AttendanceRecordModel{},
		payments: map[uuid.UUID]*feeModel.PaymentModel{},
		counters: map[seqSvc.Key]int64{},
		now:      time.Now,
	}
}

func (db *DB) People() *PeopleStore         { return &PeopleStore{db: db} }
func (db *DB) Attendance() *AttendanceStore { return &AttendanceStore{db: db} }
func (db *DB) Fees() *FeeStore              { return &FeeStore{db: db} }
func (db *DB) Sequences() *SequenceStore    { return &SequenceStore{db: db} }
func (db *DB) Audit() *AuditStore           { return &AuditStore{db: db} }

// AuditLogs: salinan semua audit row (urut insert).
func (db *DB) AuditLogs() []auditModel.AuditLogModel {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]auditModel.AuditLogModel, len(db.audits))
	copy(out, db.audits)
	return out
}

// PutPerson: tulis langsung (tanpa validasi) untuk seed test, mis. ledger yang sengaja drift.
func (db *DB) PutPerson(p peopleModel.PersonModel) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if p.PersonID == uuid.Nil {
		p.PersonID = uuid.New()
	}
	db.persons[p.PersonID] = &p
}

// PutPayment: seed payment tanpa menyentuh ledger.
func (db *DB) PutPayment(p feeModel.PaymentModel) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if p.PaymentID == uuid.Nil {
		p.PaymentID = uuid.New()
	}
	if p.PaymentCreatedAt.IsZero() {
		p.PaymentCreatedAt = db.now()
	}
	db.payments[p.PaymentID] = &p
}

func clonePerson(p *peopleModel.PersonModel) *peopleModel.PersonModel {
	c := *p
	return &c
}

func cloneRecord(r *attendanceModel.AttendanceRecordModel) *attendanceModel.AttendanceRecordModel {
	c := *r
	return &c
}

func clonePayment(p *feeModel.PaymentModel) *feeModel.PaymentModel {
	c := *p
	return &c
}
