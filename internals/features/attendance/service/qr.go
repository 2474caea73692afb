package service

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	peopleModel "schoolku_backend/internals/features/people/model"
	"schoolku_backend/internals/helpers/apperrors"
)

// QRPayload = isi QR kartu: {"personId": "...", "branchId": "...", "personName": "..."}
type QRPayload struct {
	PersonID   string `json:"personId"`
	BranchID   string `json:"branchId"`
	PersonName string `json:"personName,omitempty"`
}

func ParseQR(raw string) (QRPayload, error) {
	var p QRPayload
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return p, fmt.Errorf("empty payload: %w", apperrors.ErrInvalidQR)
	}
	if err := sonic.UnmarshalString(raw, &p); err != nil {
		return p, fmt.Errorf("malformed payload: %w", apperrors.ErrInvalidQR)
	}
	if strings.TrimSpace(p.PersonID) == "" || strings.TrimSpace(p.BranchID) == "" {
		return p, fmt.Errorf("payload missing personId/branchId: %w", apperrors.ErrInvalidQR)
	}
	return p, nil
}

// EncodeQR dipakai panel admin untuk mencetak kartu.
func EncodeQR(p *peopleModel.PersonModel) (string, error) {
	return sonic.MarshalString(QRPayload{
		PersonID:   p.PersonCode,
		BranchID:   p.PersonBranchID.String(),
		PersonName: p.PersonName,
	})
}

// VerifyQR: personId (UUID atau kode) dan branchId harus sama dengan person yang di-resolve.
func VerifyQR(p QRPayload, person *peopleModel.PersonModel) error {
	bid, err := uuid.Parse(strings.TrimSpace(p.BranchID))
	if err != nil || bid != person.PersonBranchID {
		return fmt.Errorf("branch mismatch: %w", apperrors.ErrInvalidQR)
	}
	ref := strings.TrimSpace(p.PersonID)
	if id, err := uuid.Parse(ref); err == nil {
		if id != person.PersonID {
			return fmt.Errorf("person mismatch: %w", apperrors.ErrInvalidQR)
		}
		return nil
	}
	if !strings.EqualFold(ref, person.PersonCode) {
		return fmt.Errorf("person mismatch: %w", apperrors.ErrInvalidQR)
	}
	return nil
}
