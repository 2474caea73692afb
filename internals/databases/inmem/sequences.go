package inmem

import (
	"context"

	"schoolku_backend/internals/features/sequences/service"
)

type SequenceStore struct {
	db *DB
}

var _ service.Store = (*SequenceStore)(nil)

// Increment: counter baru di-seed dari ID lama yang sudah ada (sama seperti versi SQL).
func (s *SequenceStore) Increment(_ context.Context, key service.Key, legacyPrefix string) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	n, ok := s.db.counters[key]
	if !ok {
		n = s.db.legacyMaxLocked(key.Kind, legacyPrefix)
	}
	n++
	s.db.counters[key] = n
	return n, nil
}

func (db *DB) legacyMaxLocked(kind service.Kind, prefix string) int64 {
	var hi int64
	consider := func(id string) {
		if n, ok := service.ParseSuffix(id, prefix); ok && n > hi {
			hi = n
		}
	}
	switch kind {
	case service.KindStudent, service.KindStaff:
		for _, p := range db.persons {
			consider(p.PersonCode)
		}
	case service.KindReceipt:
		for _, p := range db.payments {
			consider(p.PaymentReceiptNumber)
		}
	}
	return hi
}
