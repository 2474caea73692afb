// file: internals/features/attendance/controller/attendance_controller.go
package controller

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolku_backend/internals/features/attendance/dto"
	"schoolku_backend/internals/features/attendance/model"
	"schoolku_backend/internals/features/attendance/service"
	peopleModel "schoolku_backend/internals/features/people/model"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
	"schoolku_backend/internals/helpers/dbtime"
	authMiddleware "schoolku_backend/internals/middlewares/auth"
)

type AttendanceController struct {
	Ledger    *service.Ledger
	Validator *validator.Validate
	Now       func() time.Time
}

func NewAttendanceController(l *service.Ledger, v *validator.Validate) *AttendanceController {
	if v == nil {
		v = validator.New()
	}
	return &AttendanceController{Ledger: l, Validator: v, Now: time.Now}
}

// renderMark: duplicate/already-complete tetap mengirim record yang ada.
func renderMark(c *fiber.Ctx, res *service.MarkResult, err error, okMsg string) error {
	if err != nil {
		var existing any
		if res != nil {
			existing = dto.FromRecordModel(res.Record)
		}
		return helper.JsonAppError(c, err, existing)
	}
	body := fiber.Map{
		"record":  dto.FromRecordModel(res.Record),
		"outcome": res.Outcome,
	}
	if res.Outcome == service.OutcomeCreated {
		return helper.JsonCreated(c, okMsg, body, res.Audit)
	}
	return helper.JsonUpdated(c, okMsg, body, res.Audit)
}

/* ===================== Check-in / out ===================== */

// POST /:branch_id/attendance/check-in
func (h *AttendanceController) CheckIn(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	var req dto.CheckInRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	loc := dbtime.BranchLocation(c)
	day, err := dto.ParseDate(req.Date)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	at, err := dto.ParseClock(req.Time, day, h.Now(), loc)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	res, err := h.Ledger.MarkOrCheckIn(c.UserContext(), service.MarkInput{
		BranchID:  branchID,
		PersonRef: req.PersonRef,
		Date:      day,
		Period:    req.Period,
		BatchID:   req.BatchID,
		Method:    model.AttendanceMethod(strings.ToLower(req.Method)),
		At:        at,
		QR:        req.QR,
		Note:      req.Note,
		MarkedBy:  helperAuth.ActorID(c),
		Loc:       loc,
	})
	return renderMark(c, res, err, "Check-in tercatat")
}

// POST /:branch_id/attendance/scan  (kiosk QR)
func (h *AttendanceController) Scan(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	var req dto.ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	qr, err := service.ParseQR(req.QR)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}

	loc := dbtime.BranchLocation(c)
	at, err := dto.ParseClock(req.Time, nil, h.Now(), loc)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	res, err := h.Ledger.MarkOrCheckIn(c.UserContext(), service.MarkInput{
		BranchID:  branchID,
		PersonRef: qr.PersonID,
		Method:    model.AttendanceMethodQR,
		At:        at,
		QR:        req.QR,
		MarkedBy:  helperAuth.ActorID(c),
		Loc:       loc,
	})
	return renderMark(c, res, err, "Scan tercatat")
}

// POST /:branch_id/attendance/check-out
func (h *AttendanceController) CheckOut(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	var req dto.CheckOutRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	loc := dbtime.BranchLocation(c)
	day, err := dto.ParseDate(req.Date)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	at, err := dto.ParseClock(req.Time, day, h.Now(), loc)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	res, err := h.Ledger.CheckOut(c.UserContext(), service.CheckOutInput{
		BranchID:  branchID,
		PersonRef: req.PersonRef,
		Date:      day,
		Period:    req.Period,
		At:        at,
		MarkedBy:  helperAuth.ActorID(c),
		Loc:       loc,
	})
	return renderMark(c, res, err, "Check-out tercatat")
}

/* ===================== Admin override ===================== */

// PUT /:branch_id/attendance/explicit
func (h *AttendanceController) MarkExplicit(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	var req dto.ExplicitMarkRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	day, err := dbtime.ParseDay(req.Date)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "date harus YYYY-MM-DD")
	}

	rec, change, err := h.Ledger.MarkExplicit(c.UserContext(), service.ExplicitInput{
		BranchID:  branchID,
		PersonRef: req.PersonRef,
		Date:      day,
		Status:    model.AttendanceStatus(req.Status),
		Period:    req.Period,
		Method:    model.AttendanceMethod(req.Method),
		Note:      req.Note,
		MarkedBy:  helperAuth.ActorID(c),
	})
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonUpdated(c, "Absensi diperbarui", dto.FromRecordModel(rec), change)
}

// DELETE /:branch_id/attendance/:id
func (h *AttendanceController) Delete(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "id tidak valid")
	}
	change, err := h.Ledger.Delete(c.UserContext(), branchID, id, helperAuth.ActorID(c))
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonDeleted(c, "Absensi dihapus", fiber.Map{"attendance_record_id": id}, change)
}

/* ===================== Reads ===================== */

func (h *AttendanceController) parseDay(c *fiber.Ctx) (dto.DayQuery, time.Time, peopleModel.PersonKind, error) {
	var q dto.DayQuery
	if err := c.QueryParser(&q); err != nil {
		return q, time.Time{}, "", fiber.NewError(fiber.StatusBadRequest, "Query tidak valid")
	}
	if err := h.Validator.Struct(q); err != nil {
		return q, time.Time{}, "", err
	}
	day := dbtime.DayOf(h.Now(), dbtime.BranchLocation(c))
	if s := strings.TrimSpace(q.Date); s != "" {
		d, err := dbtime.ParseDay(s)
		if err != nil {
			return q, time.Time{}, "", fiber.NewError(fiber.StatusBadRequest, "date harus YYYY-MM-DD")
		}
		day = d
	}
	kind := peopleModel.PersonKindStudent
	if s := strings.TrimSpace(q.Kind); s != "" {
		kind = peopleModel.PersonKind(s)
	}
	return q, day, kind, nil
}

func (h *AttendanceController) dayError(c *fiber.Ctx, err error) error {
	if _, ok := err.(validator.ValidationErrors); ok {
		return helper.JsonValidationError(c, err)
	}
	return helper.JsonAppError(c, err, nil)
}

// GET /:branch_id/attendance/absentees?date=&kind=&period=
func (h *AttendanceController) Absentees(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	q, day, kind, err := h.parseDay(c)
	if err != nil {
		return h.dayError(c, err)
	}
	abs, err := h.Ledger.ComputeAbsentees(c.UserContext(), branchID, day, kind, q.Period)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonOK(c, "ok", abs)
}

// GET /:branch_id/attendance/summary?date=&kind=&period=
func (h *AttendanceController) Summary(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	q, day, kind, err := h.parseDay(c)
	if err != nil {
		return h.dayError(c, err)
	}
	s, err := h.Ledger.DailySummary(c.UserContext(), branchID, day, kind, q.Period)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonOK(c, "ok", s)
}

func (h *AttendanceController) parseRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	var q dto.RangeQuery
	if err := c.QueryParser(&q); err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "Query tidak valid")
	}
	from, to, err := q.ResolveRange(h.Now(), dbtime.BranchLocation(c))
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "from/to harus YYYY-MM-DD")
	}
	return from, to, nil
}

// GET /:branch_id/attendance/persons/:ref/stats?from=&to=
func (h *AttendanceController) PersonStats(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	from, to, err := h.parseRange(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	st, err := h.Ledger.PersonStats(c.UserContext(), branchID, c.Params("ref"), from, to)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonOK(c, "ok", st)
}

// GET /:branch_id/attendance/persons/:ref/history?from=&to=
func (h *AttendanceController) PersonHistory(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	from, to, err := h.parseRange(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	rows, err := h.Ledger.History(c.UserContext(), branchID, c.Params("ref"), from, to)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonList(c, "ok", dto.FromRecordModels(rows), nil)
}

// GET /:branch_id/attendance/cutoffs
func (h *AttendanceController) Cutoffs(c *fiber.Ctx) error {
	return helper.JsonOK(c, "ok", h.Ledger.Cutoffs().View())
}

/* ===================== Student panel ===================== */

// GET /api/s/attendance/me?from=&to=
func (h *AttendanceController) MyAttendance(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	personID, err := helperAuth.GetPersonIDFromToken(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	from, to, err := h.parseRange(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	st, err := h.Ledger.PersonStats(c.UserContext(), branchID, personID.String(), from, to)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	rows, err := h.Ledger.History(c.UserContext(), branchID, personID.String(), from, to)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonOK(c, "ok", fiber.Map{
		"stats":   st,
		"records": dto.FromRecordModels(rows),
	})
}
