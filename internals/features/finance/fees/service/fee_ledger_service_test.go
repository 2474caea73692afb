package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	feeModel "schoolku_backend/internals/features/finance/fees/model"
	"schoolku_backend/internals/features/finance/fees/service"
	peopleModel "schoolku_backend/internals/features/people/model"
	"schoolku_backend/internals/helpers/apperrors"
	"schoolku_backend/internals/testutil"
)

var (
	admission = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	now       = time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func setup(t *testing.T) (*testutil.Env, *service.FeeLedger, *peopleModel.PersonModel) {
	env := testutil.NewEnv(t)
	fees := service.NewFeeLedger(env.DB.Fees(), env.Registry, env.Seq, env.Audit, nil).
		WithClock(func() time.Time { return now })
	st := env.Student(t, "Rahim", "AM", 5000, 500, admission, nil)
	return env, fees, st
}

func record(t *testing.T, env *testutil.Env, fees *service.FeeLedger, ref, amount, discount string) *service.PaymentResult {
	t.Helper()
	res, err := fees.RecordPayment(context.Background(), service.RecordInput{
		BranchID:   env.BranchID(),
		StudentRef: ref,
		Amount:     dec(amount),
		Discount:   dec(discount),
	})
	require.NoError(t, err)
	return res
}

func student(t *testing.T, env *testutil.Env, id uuid.UUID) *peopleModel.PersonModel {
	t.Helper()
	p, err := env.Registry.Resolve(context.Background(), env.BranchID(), id.String())
	require.NoError(t, err)
	return p
}

func TestRecordAndReverse(t *testing.T) {
	env, fees, st := setup(t)

	res := record(t, env, fees, st.PersonCode, "1000", "100")
	assert.Equal(t, "900.00", res.Payment.PaymentNetAmount.StringFixed(2))
	assert.Equal(t, "RCP-DHK001-202603-0001", res.Payment.PaymentReceiptNumber)
	assert.Equal(t, 3, res.Payment.PaymentMonth)
	assert.Equal(t, 2026, res.Payment.PaymentYear)
	assert.Equal(t, feeModel.PaymentMethodCash, res.Payment.PaymentMethod)
	assert.True(t, res.Ledger.PaidAmount.Equal(dec("900")))
	assert.True(t, res.Ledger.DueAmount.Equal(dec("4100")))
	require.NotNil(t, res.Ledger.LastPaymentDate)
	assert.True(t, res.Ledger.Balanced())

	ledger, change, err := fees.ReversePayment(context.Background(), env.BranchID(), res.Payment.PaymentID, nil)
	require.NoError(t, err)
	assert.NotNil(t, change.OldData)
	assert.True(t, ledger.PaidAmount.IsZero())
	assert.True(t, ledger.DueAmount.Equal(dec("5000")))

	p := student(t, env, st.PersonID)
	assert.True(t, p.Ledger().Balanced())

	_, err = fees.GetPayment(context.Background(), env.BranchID(), res.Payment.PaymentID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Equal(t, []string{"person/create", "payment/create", "payment/reverse"}, env.AuditActions())
}

func TestRecordPayment_rejects(t *testing.T) {
	env, fees, st := setup(t)
	staff := env.Staff(t, "Karim", peopleModel.PersonKindStaff)

	tests := []struct {
		name    string
		in      service.RecordInput
		wantErr error
	}{
		{
			name:    "zero amount",
			in:      service.RecordInput{StudentRef: st.PersonCode, Amount: decimal.Zero},
			wantErr: apperrors.ErrInvalidAmount,
		},
		{
			name:    "negative discount",
			in:      service.RecordInput{StudentRef: st.PersonCode, Amount: dec("100"), Discount: dec("-1")},
			wantErr: apperrors.ErrInvalidAmount,
		},
		{
			name:    "overpayment",
			in:      service.RecordInput{StudentRef: st.PersonCode, Amount: dec("5000.01")},
			wantErr: apperrors.ErrInvalidAmount,
		},
		{
			name:    "unknown method",
			in:      service.RecordInput{StudentRef: st.PersonCode, Amount: dec("100"), Method: "barter"},
			wantErr: apperrors.ErrInvalidInput,
		},
		{
			name:    "bad month",
			in:      service.RecordInput{StudentRef: st.PersonCode, Amount: dec("100"), Month: 13},
			wantErr: apperrors.ErrInvalidInput,
		},
		{
			name:    "not a student",
			in:      service.RecordInput{StudentRef: staff.PersonCode, Amount: dec("100")},
			wantErr: apperrors.ErrNotFound,
		},
		{
			name:    "unknown student",
			in:      service.RecordInput{StudentRef: "DHK001-2026-999", Amount: dec("100")},
			wantErr: apperrors.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.BranchID = env.BranchID()
			_, err := fees.RecordPayment(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// ledger tidak tersentuh oleh semua penolakan di atas
	p := student(t, env, st.PersonID)
	assert.True(t, p.PersonPaidAmount.IsZero())
	assert.True(t, p.PersonDueAmount.Equal(dec("5000")))
}

func TestRecordPayment_inactiveStudent(t *testing.T) {
	env, fees, st := setup(t)
	_, _, err := env.Registry.SetActive(context.Background(), env.BranchID(), st.PersonCode, false, nil)
	require.NoError(t, err)

	_, err = fees.RecordPayment(context.Background(), service.RecordInput{
		BranchID: env.BranchID(), StudentRef: st.PersonCode, Amount: dec("100"),
	})
	assert.ErrorIs(t, err, apperrors.ErrInactiveSubject)
}

func TestRecordPayment_fullDischargeThenNothingLeft(t *testing.T) {
	env, fees, st := setup(t)

	res := record(t, env, fees, st.PersonCode, "5000", "0")
	assert.True(t, res.Ledger.DueAmount.IsZero())

	_, err := fees.RecordPayment(context.Background(), service.RecordInput{
		BranchID: env.BranchID(), StudentRef: st.PersonCode, Amount: dec("1"),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
}

func TestAmendPayment(t *testing.T) {
	env, fees, st := setup(t)
	res := record(t, env, fees, st.PersonCode, "1000", "100")

	amount := dec("1500")
	amended, change, err := fees.AmendPayment(context.Background(), service.AmendInput{
		BranchID:  env.BranchID(),
		PaymentID: res.Payment.PaymentID,
		Amount:    &amount,
	})
	require.NoError(t, err)
	assert.Equal(t, "1400.00", amended.Payment.PaymentNetAmount.StringFixed(2))
	assert.True(t, amended.Ledger.PaidAmount.Equal(dec("1400")))
	assert.True(t, amended.Ledger.DueAmount.Equal(dec("3600")))
	assert.NotNil(t, change.OldData)

	// receipt number tetap
	assert.Equal(t, res.Payment.PaymentReceiptNumber, amended.Payment.PaymentReceiptNumber)

	// turunkan lewat discount: delta negatif
	discount := dec("1000")
	amended, _, err = fees.AmendPayment(context.Background(), service.AmendInput{
		BranchID:  env.BranchID(),
		PaymentID: res.Payment.PaymentID,
		Discount:  &discount,
	})
	require.NoError(t, err)
	assert.True(t, amended.Ledger.PaidAmount.Equal(dec("500")))
	assert.True(t, amended.Ledger.DueAmount.Equal(dec("4500")))

	// net baru melebihi due → ditolak, ledger & payment tidak berubah
	tooMuch := dec("9000")
	_, _, err = fees.AmendPayment(context.Background(), service.AmendInput{
		BranchID:  env.BranchID(),
		PaymentID: res.Payment.PaymentID,
		Amount:    &tooMuch,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)

	got, err := fees.GetPayment(context.Background(), env.BranchID(), res.Payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, "500.00", got.PaymentNetAmount.StringFixed(2))
	assert.True(t, student(t, env, st.PersonID).PersonPaidAmount.Equal(dec("500")))

	_, _, err = fees.AmendPayment(context.Background(), service.AmendInput{
		BranchID:  env.BranchID(),
		PaymentID: res.Payment.PaymentID,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, _, err = fees.AmendPayment(context.Background(), service.AmendInput{
		BranchID:  env.BranchID(),
		PaymentID: uuid.New(),
		Amount:    &amount,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReversePayment_driftedLedger(t *testing.T) {
	env, fees, st := setup(t)
	res := record(t, env, fees, st.PersonCode, "1000", "0")

	// ledger dirusak: paid lebih kecil dari payment yang mau dibalik
	p := *student(t, env, st.PersonID)
	p.PersonPaidAmount = dec("200")
	p.PersonDueAmount = dec("4800")
	env.DB.PutPerson(p)

	_, _, err := fees.ReversePayment(context.Background(), env.BranchID(), res.Payment.PaymentID, nil)
	assert.ErrorIs(t, err, apperrors.ErrLedgerInvariant)
	assert.Equal(t, 500, apperrors.Status(err))

	// rollback: payment masih ada
	_, err = fees.GetPayment(context.Background(), env.BranchID(), res.Payment.PaymentID)
	assert.NoError(t, err)
}

func TestListPaymentsAndStudentLedger(t *testing.T) {
	env, fees, st := setup(t)
	record(t, env, fees, st.PersonCode, "500", "0")
	record(t, env, fees, st.PersonCode, "500", "0")
	other := env.Student(t, "Karim", "PM", 3000, 300, admission, nil)
	record(t, env, fees, other.PersonCode, "300", "0")

	rows, total, err := fees.ListPayments(context.Background(), env.BranchID(), service.PaymentFilter{StudentID: &st.PersonID, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, rows, 1)

	all, total, err := fees.ListPayments(context.Background(), env.BranchID(), service.PaymentFilter{Year: 2026, Month: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	_, _, err = fees.ListPayments(context.Background(), env.BranchID(), service.PaymentFilter{Month: 13})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	sl, err := fees.StudentLedger(context.Background(), env.BranchID(), st.PersonCode)
	require.NoError(t, err)
	assert.Len(t, sl.Payments, 2)
	// Jan..Mar = 3 bulan × 500 − 1000
	assert.Equal(t, "500.00", sl.ExpectedDue.StringFixed(2))
}

func TestExpectedDue(t *testing.T) {
	adm := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, service.MonthsSinceAdmission(time.Time{}, now))
	assert.Equal(t, 0, service.MonthsSinceAdmission(now, adm))
	assert.Equal(t, 1, service.MonthsSinceAdmission(adm, adm))
	assert.Equal(t, 5, service.MonthsSinceAdmission(adm, now))

	assert.Equal(t, "2000.00", service.ExpectedDue(adm, now, dec("500"), dec("500")).StringFixed(2))
	assert.True(t, service.ExpectedDue(adm, now, dec("500"), dec("9000")).IsZero())
}

func TestVerifyAndRebuild(t *testing.T) {
	env, fees, st := setup(t)
	record(t, env, fees, st.PersonCode, "1000", "0")
	env.Student(t, "Karim", "PM", 3000, 300, admission, nil)

	rep, err := fees.VerifyLedgers(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Checked)
	assert.Empty(t, rep.Drifts)

	// payment lama hasil migrasi, ledger belum ikut
	env.DB.PutPayment(feeModel.PaymentModel{
		PaymentBranchID:      env.BranchID(),
		PaymentStudentID:     st.PersonID,
		PaymentAmount:        dec("250"),
		PaymentNetAmount:     dec("250"),
		PaymentReceiptNumber: "RCP-DHK001-202512-0001",
		PaymentMonth:         12,
		PaymentYear:          2025,
		PaymentMethod:        feeModel.PaymentMethodCash,
	})

	branchID := env.BranchID()
	rep, err = fees.VerifyLedgers(context.Background(), &branchID)
	require.NoError(t, err)
	require.Len(t, rep.Drifts, 1)
	assert.Equal(t, st.PersonID, rep.Drifts[0].StudentID)
	assert.Equal(t, "-250.00", rep.Drifts[0].PaidDrift.StringFixed(2))
	assert.True(t, rep.Drifts[0].ConservationDrift.IsZero())

	res, err := fees.RebuildLedger(context.Background(), env.BranchID(), st.PersonCode, nil)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.After.PaidAmount.Equal(dec("1250")))
	assert.True(t, res.After.DueAmount.Equal(dec("3750")))

	rep, err = fees.VerifyLedgers(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rep.Drifts)

	// rebuild kedua: tidak ada perubahan, tidak ada audit baru
	before := len(env.AuditActions())
	res, err = fees.RebuildLedger(context.Background(), env.BranchID(), st.PersonCode, nil)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Len(t, env.AuditActions(), before)
}

func TestRebuildLedger_paymentsExceedTotal(t *testing.T) {
	env, fees, st := setup(t)
	env.DB.PutPayment(feeModel.PaymentModel{
		PaymentBranchID:      env.BranchID(),
		PaymentStudentID:     st.PersonID,
		PaymentAmount:        dec("6000"),
		PaymentNetAmount:     dec("6000"),
		PaymentReceiptNumber: "RCP-DHK001-202512-0009",
		PaymentMonth:         12,
		PaymentYear:          2025,
	})

	_, err := fees.RebuildLedger(context.Background(), env.BranchID(), st.PersonCode, nil)
	assert.True(t, errors.Is(err, apperrors.ErrLedgerInvariant))

	p := student(t, env, st.PersonID)
	assert.True(t, p.PersonPaidAmount.IsZero())
}

func TestCheckRow(t *testing.T) {
	tests := []struct {
		name string
		row  service.LedgerRow
		bad  bool
	}{
		{name: "balanced", row: service.LedgerRow{Total: dec("5000"), Paid: dec("900"), Due: dec("4100"), SumNet: dec("900")}},
		{name: "paid drift", row: service.LedgerRow{Total: dec("5000"), Paid: dec("900"), Due: dec("4100"), SumNet: dec("1000")}, bad: true},
		{name: "conservation drift", row: service.LedgerRow{Total: dec("5000"), Paid: dec("900"), Due: dec("4000"), SumNet: dec("900")}, bad: true},
		{name: "negative due", row: service.LedgerRow{Total: dec("100"), Paid: dec("200"), Due: dec("-100"), SumNet: dec("200")}, bad: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bad := service.CheckRow(tt.row)
			assert.Equal(t, tt.bad, bad)
		})
	}
}

func TestAmendPayment_onlyTheDeltaMoves(t *testing.T) {
	env, fees, st := setup(t)
	p1 := record(t, env, fees, st.PersonCode, "500", "50")
	p2 := record(t, env, fees, st.PersonCode, "300", "0")
	require.True(t, p2.Ledger.PaidAmount.Equal(dec("750")))

	// payment lama di luar ledger: kalau amend menghitung ulang dari Σnet, 100 ini ikut masuk
	env.DB.PutPayment(feeModel.PaymentModel{
		PaymentBranchID:      env.BranchID(),
		PaymentStudentID:     st.PersonID,
		PaymentAmount:        dec("100"),
		PaymentNetAmount:     dec("100"),
		PaymentReceiptNumber: "RCP-DHK001-202512-0001",
		PaymentMonth:         12,
		PaymentYear:          2025,
		PaymentMethod:        feeModel.PaymentMethodCash,
	})

	amount := dec("600")
	amended, change, err := fees.AmendPayment(context.Background(), service.AmendInput{
		BranchID:  env.BranchID(),
		PaymentID: p1.Payment.PaymentID,
		Amount:    &amount,
	})
	require.NoError(t, err)
	assert.Equal(t, "550.00", amended.Payment.PaymentNetAmount.StringFixed(2))
	assert.True(t, amended.Ledger.PaidAmount.Equal(dec("850")), amended.Ledger.PaidAmount.String())
	assert.True(t, amended.Ledger.DueAmount.Equal(dec("4150")), amended.Ledger.DueAmount.String())
	assert.NotNil(t, change.OldData)

	other, err := fees.GetPayment(context.Background(), env.BranchID(), p2.Payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, "300.00", other.PaymentNetAmount.StringFixed(2))
	assert.Equal(t, p2.Payment.PaymentReceiptNumber, other.PaymentReceiptNumber)
}

func TestRecordPayment_concurrentKeepsLedgerConserved(t *testing.T) {
	env, fees, st := setup(t)

	// 60 × 100 melebihi total 5000: tepat 50 yang boleh lolos
	const workers = 60
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fees.RecordPayment(context.Background(), service.RecordInput{
				BranchID:   env.BranchID(),
				StudentRef: st.PersonCode,
				Amount:     dec("100"),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperrors.ErrInvalidAmount):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, ok)
	assert.Equal(t, workers-50, rejected)

	got := student(t, env, st.PersonID)
	assert.True(t, got.PersonPaidAmount.Equal(dec("5000")), got.PersonPaidAmount.String())
	assert.True(t, got.PersonDueAmount.IsZero(), got.PersonDueAmount.String())
	assert.True(t, got.Ledger().Balanced())

	rows, total, err := fees.ListPayments(context.Background(), env.BranchID(), service.PaymentFilter{StudentID: &st.PersonID, Limit: 100})
	require.NoError(t, err)
	assert.EqualValues(t, 50, total)
	sum := decimal.Zero
	receipts := map[string]struct{}{}
	for _, r := range rows {
		sum = sum.Add(r.PaymentNetAmount)
		receipts[r.PaymentReceiptNumber] = struct{}{}
	}
	assert.True(t, sum.Equal(got.PersonPaidAmount), sum.String())
	assert.Len(t, receipts, 50)
}
