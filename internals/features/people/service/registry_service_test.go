package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolku_backend/internals/features/people/model"
	"schoolku_backend/internals/features/people/service"
	"schoolku_backend/internals/helpers/apperrors"
	"schoolku_backend/internals/testutil"
)

var admission = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

func TestOnboard_student(t *testing.T) {
	env := testutil.NewEnv(t)

	p := env.Student(t, "Rahim", " am ", 5000, 500, admission, nil)
	assert.Equal(t, "DHK001-2026-001", p.PersonCode)
	assert.Equal(t, "AM", p.Period())
	assert.True(t, p.PersonIsActive)
	assert.True(t, p.PersonPaidAmount.IsZero())
	assert.True(t, p.PersonDueAmount.Equal(decimal.NewFromInt(5000)))
	assert.True(t, p.Ledger().Balanced())

	next := env.Student(t, "Karim", "PM", 5000, 500, admission, nil)
	assert.Equal(t, "DHK001-2026-002", next.PersonCode)

	// tahun admisi lain → counter lain
	later := env.Student(t, "Nadia", "AM", 5000, 500, admission.AddDate(1, 0, 0), nil)
	assert.Equal(t, "DHK001-2027-001", later.PersonCode)

	assert.Equal(t, []string{"person/create", "person/create", "person/create"}, env.AuditActions())
}

func TestOnboard_staffAndTeacherShareCounter(t *testing.T) {
	env := testutil.NewEnv(t)
	a := env.Staff(t, "Karim", model.PersonKindStaff)
	b := env.Staff(t, "Salma", model.PersonKindTeacher)
	assert.Equal(t, "DHK001-STF-001", a.PersonCode)
	assert.Equal(t, "DHK001-STF-002", b.PersonCode)
	assert.Equal(t, "", b.Period())
}

func TestOnboard_rejects(t *testing.T) {
	env := testutil.NewEnv(t)
	batch := uuid.New()
	am := "AM"

	tests := []struct {
		name    string
		in      service.NewPerson
		wantErr error
	}{
		{name: "unknown kind", in: service.NewPerson{Kind: "parent", Name: "X"}, wantErr: apperrors.ErrInvalidInput},
		{name: "no name", in: service.NewPerson{Kind: model.PersonKindStaff, Name: " "}, wantErr: apperrors.ErrInvalidInput},
		{name: "student without batch", in: service.NewPerson{Kind: model.PersonKindStudent, Name: "X", BatchPeriod: &am}, wantErr: apperrors.ErrInvalidInput},
		{name: "student without period", in: service.NewPerson{Kind: model.PersonKindStudent, Name: "X", BatchID: &batch}, wantErr: apperrors.ErrInvalidInput},
		{
			name:    "negative fees",
			in:      service.NewPerson{Kind: model.PersonKindStudent, Name: "X", BatchID: &batch, BatchPeriod: &am, TotalFees: decimal.NewFromInt(-1)},
			wantErr: apperrors.ErrInvalidAmount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.Registry.Onboard(context.Background(), env.BranchID(), tt.in, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, _, err := env.Registry.Onboard(context.Background(), uuid.New(), service.NewPerson{Kind: model.PersonKindStaff, Name: "X"}, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestResolve(t *testing.T) {
	env := testutil.NewEnv(t)
	p := env.Staff(t, "Karim", model.PersonKindStaff)

	byCode, err := env.Registry.Resolve(context.Background(), env.BranchID(), "dhk001-stf-001")
	require.NoError(t, err)
	assert.Equal(t, p.PersonID, byCode.PersonID)

	byID, err := env.Registry.Resolve(context.Background(), env.BranchID(), p.PersonID.String())
	require.NoError(t, err)
	assert.Equal(t, p.PersonCode, byID.PersonCode)

	// branch lain tidak bisa melihat person ini
	_, err = env.Registry.Resolve(context.Background(), uuid.New(), p.PersonCode)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = env.Registry.Resolve(context.Background(), env.BranchID(), "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSetActive(t *testing.T) {
	env := testutil.NewEnv(t)
	p := env.Staff(t, "Karim", model.PersonKindStaff)

	got, change, err := env.Registry.SetActive(context.Background(), env.BranchID(), p.PersonCode, false, nil)
	require.NoError(t, err)
	assert.False(t, got.PersonIsActive)
	assert.NotNil(t, change.OldData)

	_, err = env.Registry.ResolveActive(context.Background(), env.BranchID(), p.PersonCode)
	assert.ErrorIs(t, err, apperrors.ErrInactiveSubject)

	roster, err := env.Registry.ListRoster(context.Background(), env.BranchID(), model.PersonKindStaff, true)
	require.NoError(t, err)
	assert.Empty(t, roster)

	all, err := env.Registry.ListRoster(context.Background(), env.BranchID(), model.PersonKindStaff, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// idempotent: tidak ada audit kedua
	_, _, err = env.Registry.SetActive(context.Background(), env.BranchID(), p.PersonCode, false, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"person/create", "person/set_active"}, env.AuditActions())
}

func TestCreateBranch(t *testing.T) {
	env := testutil.NewEnv(t)

	_, err := env.Registry.CreateBranch(context.Background(), service.NewBranch{Code: "dhk001", Name: "Copy"})
	assert.ErrorIs(t, err, apperrors.ErrUniqueViolation)

	_, err = env.Registry.CreateBranch(context.Background(), service.NewBranch{Code: "CTG002", Name: "Chattogram", Timezone: "Mars/Olympus"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	b, err := env.Registry.CreateBranch(context.Background(), service.NewBranch{Code: "CTG002", Name: "Chattogram", Timezone: "UTC"})
	require.NoError(t, err)
	assert.Equal(t, "CTG002", b.BranchCode)

	list, err := env.Registry.ListBranches(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
