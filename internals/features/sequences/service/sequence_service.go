// file: internals/features/sequences/service/sequence_service.go
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"schoolku_backend/internals/helpers/metrics"
)

type Kind string

const (
	KindStudent     Kind = "student"
	KindStaff       Kind = "staff"
	KindReceipt     Kind = "receipt"
	KindCertificate Kind = "certificate"
)

// Key = scope satu counter.
type Key struct {
	BranchCode string
	Kind       Kind
	PeriodKey  string
}

// Store: increment atomik. legacyPrefix dipakai untuk seed counter baru
// dari ID lama (scan max) supaya penomoran data migrasi tetap nyambung.
type Store interface {
	Increment(ctx context.Context, key Key, legacyPrefix string) (int64, error)
}

type Generator struct {
	store Store
}

func NewGenerator(store Store) *Generator {
	return &Generator{store: store}
}

// KeyFor menurunkan period key dari kind & waktu:
// student → tahun, receipt → tahun+bulan, staff/certificate → tanpa periode.
func KeyFor(branchCode string, kind Kind, at time.Time) Key {
	k := Key{BranchCode: strings.ToUpper(strings.TrimSpace(branchCode)), Kind: kind}
	switch kind {
	case KindStudent:
		k.PeriodKey = at.Format("2006")
	case KindReceipt:
		k.PeriodKey = at.Format("200601")
	}
	return k
}

func width(kind Kind) int {
	switch kind {
	case KindReceipt:
		return 4
	case KindCertificate:
		return 6
	default:
		return 3
	}
}

// Prefix: bagian ID sebelum suffix angka.
func Prefix(k Key) string {
	switch k.Kind {
	case KindStudent:
		return k.BranchCode + "-" + k.PeriodKey + "-"
	case KindStaff:
		return k.BranchCode + "-STF-"
	case KindReceipt:
		return "RCP-" + k.BranchCode + "-" + k.PeriodKey + "-"
	case KindCertificate:
		return "CERT-" + k.BranchCode + "-"
	default:
		return k.BranchCode + "-" + strings.ToUpper(string(k.Kind)) + "-"
	}
}

// Format: prefix + angka zero-padded; melebar kalau lewat width.
func Format(k Key, n int64) string {
	return fmt.Sprintf("%s%0*d", Prefix(k), width(k.Kind), n)
}

// ParseSuffix mengambil angka suffix dari id yang diawali prefix.
func ParseSuffix(id, prefix string) (int64, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(id[len(prefix):], 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Next: ID berikutnya untuk (branchCode, kind, periode dari at).
func (g *Generator) Next(ctx context.Context, branchCode string, kind Kind, at time.Time) (string, error) {
	if strings.TrimSpace(branchCode) == "" {
		return "", fmt.Errorf("sequence: branch code is required")
	}
	key := KeyFor(branchCode, kind, at)
	n, err := g.store.Increment(ctx, key, Prefix(key))
	if err != nil {
		return "", fmt.Errorf("sequence %s/%s/%s: %w", key.BranchCode, key.Kind, key.PeriodKey, err)
	}
	metrics.SequenceIssued.WithLabelValues(string(kind)).Inc()
	return Format(key, n), nil
}
