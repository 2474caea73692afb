package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	peopleModel "schoolku_backend/internals/features/people/model"
	"schoolku_backend/internals/helpers/apperrors"
)

func TestParseQR(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "valid", raw: `{"personId":"DHK001-2026-001","branchId":"b","personName":"Rahim"}`},
		{name: "empty", raw: "  ", wantErr: true},
		{name: "not json", raw: "DHK001-2026-001", wantErr: true},
		{name: "missing branch", raw: `{"personId":"DHK001-2026-001"}`, wantErr: true},
		{name: "missing person", raw: `{"branchId":"b"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQR(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidQR)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestVerifyQR(t *testing.T) {
	person := &peopleModel.PersonModel{
		PersonID:       uuid.New(),
		PersonBranchID: uuid.New(),
		PersonCode:     "DHK001-2026-001",
		PersonName:     "Rahim",
	}

	raw, err := EncodeQR(person)
	require.NoError(t, err)
	qr, err := ParseQR(raw)
	require.NoError(t, err)
	assert.NoError(t, VerifyQR(qr, person))

	t.Run("uuid ref", func(t *testing.T) {
		p := QRPayload{PersonID: person.PersonID.String(), BranchID: person.PersonBranchID.String()}
		assert.NoError(t, VerifyQR(p, person))
	})
	t.Run("code is case-insensitive", func(t *testing.T) {
		p := QRPayload{PersonID: "dhk001-2026-001", BranchID: person.PersonBranchID.String()}
		assert.NoError(t, VerifyQR(p, person))
	})
	t.Run("other branch", func(t *testing.T) {
		p := QRPayload{PersonID: person.PersonCode, BranchID: uuid.NewString()}
		assert.ErrorIs(t, VerifyQR(p, person), apperrors.ErrInvalidQR)
	})
	t.Run("other person", func(t *testing.T) {
		p := QRPayload{PersonID: uuid.NewString(), BranchID: person.PersonBranchID.String()}
		assert.ErrorIs(t, VerifyQR(p, person), apperrors.ErrInvalidQR)
	})
}
