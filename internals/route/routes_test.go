package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"schoolku_backend/internals/constants"
	"schoolku_backend/internals/databases/inmem"
	attendanceSvc "schoolku_backend/internals/features/attendance/service"
	peopleSvc "schoolku_backend/internals/features/people/service"
	helper "schoolku_backend/internals/helpers"
	authMiddleware "schoolku_backend/internals/middlewares/auth"
	routes "schoolku_backend/internals/route"
)

const secret = "test-secret"

type harness struct {
	app      *fiber.App
	svc      *routes.Services
	branchID uuid.UUID
}

func setup(t *testing.T) *harness {
	db := inmem.New()
	svc := routes.NewServices(routes.Stores{
		People:     db.People(),
		Attendance: db.Attendance(),
		Fees:       db.Fees(),
		Sequences:  db.Sequences(),
		Audit:      db.Audit(),
	}, attendanceSvc.DefaultCutoffs(), zap.NewNop())

	b, err := svc.Registry.CreateBranch(context.Background(), peopleSvc.NewBranch{Code: "DHK001", Name: "Dhaka Main", Timezone: "UTC"})
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: helper.FromFiberError})
	routes.SetupRoutes(app, svc, routes.RouteOptions{
		JWTSecret: secret,
		Health:    func(context.Context) error { return nil },
	})
	return &harness{app: app, svc: svc, branchID: b.BranchID}
}

func token(t *testing.T, role string, branchID, personID *uuid.UUID) string {
	claims := authMiddleware.Claims{
		UserID: uuid.NewString(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	if branchID != nil {
		claims.BranchID = branchID.String()
	}
	if personID != nil {
		claims.PersonID = personID.String()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"error_code"`
	Data      json.RawMessage `json:"data"`
	Audit     *struct {
		OldData json.RawMessage `json:"old_data"`
		NewData json.RawMessage `json:"new_data"`
	} `json:"audit"`
}

func (h *harness) do(t *testing.T, method, path, tok string, body any) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if tok != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+tok)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	return resp.StatusCode, env
}

func (h *harness) admin(t *testing.T) string {
	return token(t, constants.RoleBranchAdmin, &h.branchID, nil)
}

func (h *harness) onboardStudent(t *testing.T, name string) (uuid.UUID, string) {
	t.Helper()
	status, env := h.do(t, http.MethodPost, "/api/a/"+h.branchID.String()+"/persons", h.admin(t), map[string]any{
		"person_kind":           "student",
		"person_name":           name,
		"person_batch_id":       uuid.NewString(),
		"person_batch_period":   "AM",
		"person_admission_date": "2026-01-02",
		"person_monthly_fee":    "500",
		"person_total_fees":     "5000",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	require.NotNil(t, env.Audit)
	assert.Equal(t, "null", string(env.Audit.OldData))
	assert.Contains(t, string(env.Audit.NewData), `"`+name+`"`)

	var p struct {
		PersonID   uuid.UUID `json:"person_id"`
		PersonCode string    `json:"person_code"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p.PersonID, p.PersonCode
}

func TestHealth(t *testing.T) {
	h := setup(t)
	status, _ := h.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAuthAndScope(t *testing.T) {
	h := setup(t)
	base := "/api/a/" + h.branchID.String() + "/persons"

	status, env := h.do(t, http.MethodGet, base, "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.ErrorCode)

	status, _ = h.do(t, http.MethodGet, base, "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = h.do(t, http.MethodGet, base, token(t, constants.RoleTeacher, &h.branchID, nil), nil)
	assert.Equal(t, http.StatusForbidden, status)

	other := uuid.New()
	status, _ = h.do(t, http.MethodGet, base, token(t, constants.RoleBranchAdmin, &other, nil), nil)
	assert.Equal(t, http.StatusForbidden, status)

	// super admin lintas branch, tapi branch harus ada
	status, _ = h.do(t, http.MethodGet, base, token(t, constants.RoleSuperAdmin, nil, nil), nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = h.do(t, http.MethodGet, "/api/a/"+other.String()+"/persons", token(t, constants.RoleSuperAdmin, nil, nil), nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = h.do(t, http.MethodGet, "/api/a/not-a-uuid/persons", token(t, constants.RoleSuperAdmin, nil, nil), nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAttendanceFlow(t *testing.T) {
	h := setup(t)
	_, code := h.onboardStudent(t, "Rahim")
	assert.Equal(t, "DHK001-2026-001", code)

	teacher := token(t, constants.RoleTeacher, &h.branchID, nil)
	base := "/api/t/" + h.branchID.String() + "/attendance"

	status, env := h.do(t, http.MethodPost, base+"/check-in", teacher, map[string]any{
		"person_ref": code, "date": "2026-01-05", "time": "09:40",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var body struct {
		Outcome string `json:"outcome"`
		Record  struct {
			Status string `json:"attendance_record_status"`
		} `json:"record"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, attendanceSvc.OutcomeCreated, body.Outcome)
	assert.Equal(t, "present", body.Record.Status)
	require.NotNil(t, env.Audit)
	assert.Equal(t, "null", string(env.Audit.OldData))
	assert.Contains(t, string(env.Audit.NewData), `"attendance_record_status":"present"`)

	// duplicate: 409 + record lama di data
	status, env = h.do(t, http.MethodPost, base+"/check-in", teacher, map[string]any{
		"person_ref": code, "date": "2026-01-05", "time": "09:45",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_ATTENDANCE", env.ErrorCode)
	assert.NotEmpty(t, env.Data)

	status, env = h.do(t, http.MethodPost, base+"/check-out", teacher, map[string]any{
		"person_ref": code, "date": "2026-01-05", "time": "09:00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_TIME", env.ErrorCode)

	status, env = h.do(t, http.MethodPost, base+"/check-out", teacher, map[string]any{
		"person_ref": code, "date": "2026-01-05", "time": "10:05",
	})
	assert.Equal(t, http.StatusOK, status)
	if assert.NotNil(t, env.Audit) {
		assert.NotContains(t, string(env.Audit.OldData), `"attendance_record_check_out_at"`)
		assert.Contains(t, string(env.Audit.NewData), `"attendance_record_check_out_at"`)
	}

	status, env = h.do(t, http.MethodGet, base+"/absentees?date=2026-01-05&kind=student&period=AM", teacher, nil)
	require.Equal(t, http.StatusOK, status)
	var abs struct {
		RosterSize int `json:"roster_size"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &abs))
	assert.Equal(t, 1, abs.RosterSize)

	// validasi body
	status, env = h.do(t, http.MethodPost, base+"/check-in", teacher, map[string]any{"method": "telepathy"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_ERROR", env.ErrorCode)
}

func TestFeeFlow(t *testing.T) {
	h := setup(t)
	studentID, code := h.onboardStudent(t, "Rahim")
	admin := h.admin(t)
	base := "/api/a/" + h.branchID.String() + "/fees"

	status, env := h.do(t, http.MethodPost, base+"/payments", admin, map[string]any{
		"student_ref": code, "payment_amount": 1000, "payment_discount": 100,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)

	var pay struct {
		PaymentID uuid.UUID `json:"payment_id"`
		NetAmount string    `json:"payment_net_amount"`
		Receipt   string    `json:"payment_receipt_number"`
		Ledger    struct {
			PaidAmount string `json:"paid_amount"`
			DueAmount  string `json:"due_amount"`
		} `json:"ledger"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &pay))
	assert.Equal(t, "900.00", pay.NetAmount)
	assert.Equal(t, "900.00", pay.Ledger.PaidAmount)
	assert.Equal(t, "4100.00", pay.Ledger.DueAmount)
	assert.Contains(t, pay.Receipt, "RCP-DHK001-")
	require.NotNil(t, env.Audit)
	assert.Contains(t, string(env.Audit.OldData), `"paid_amount":"0`)
	assert.Contains(t, string(env.Audit.NewData), pay.Receipt)

	status, env = h.do(t, http.MethodPost, base+"/payments", admin, map[string]any{
		"student_ref": code, "payment_amount": 9000,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_AMOUNT", env.ErrorCode)

	status, _ = h.do(t, http.MethodGet, base+"/payments?student_id="+studentID.String(), admin, nil)
	assert.Equal(t, http.StatusOK, status)

	// owner: audit semua branch
	status, env = h.do(t, http.MethodGet, "/api/o/fees/verify", token(t, constants.RoleSuperAdmin, nil, nil), nil)
	require.Equal(t, http.StatusOK, status)
	var rep struct {
		Checked int   `json:"checked"`
		Drifts  []any `json:"drifts"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rep))
	assert.Equal(t, 1, rep.Checked)
	assert.Empty(t, rep.Drifts)

	// student melihat ledger sendiri
	status, _ = h.do(t, http.MethodGet, "/api/s/fees/me", token(t, constants.RoleStudent, &h.branchID, &studentID), nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = h.do(t, http.MethodDelete, base+"/payments/"+pay.PaymentID.String(), admin, nil)
	assert.Equal(t, http.StatusOK, status)

	// riwayat audit payment: create + reverse
	status, env = h.do(t, http.MethodGet, "/api/a/"+h.branchID.String()+"/audit/payment/"+pay.PaymentID.String(), admin, nil)
	require.Equal(t, http.StatusOK, status)
	var logs []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &logs))
	assert.Len(t, logs, 2)
}
