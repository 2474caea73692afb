// file: internals/features/finance/fees/controller/fee_controller.go
package controller

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolku_backend/internals/features/finance/fees/dto"
	"schoolku_backend/internals/features/finance/fees/service"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
	authMiddleware "schoolku_backend/internals/middlewares/auth"
)

type FeeController struct {
	Fees      *service.FeeLedger
	Validator *validator.Validate
}

func NewFeeController(f *service.FeeLedger, v *validator.Validate) *FeeController {
	if v == nil {
		v = validator.New()
	}
	return &FeeController{Fees: f, Validator: v}
}

func paymentIDParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "payment id tidak valid")
	}
	return id, nil
}

/* ===================== Kasir ===================== */

// POST /:branch_id/fees/payments
func (h *FeeController) Record(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	var req dto.RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	res, err := h.Fees.RecordPayment(c.UserContext(), req.ToInput(branchID, helperAuth.ActorID(c)))
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonCreated(c, "Pembayaran tercatat", dto.FromPaymentResult(res), res.Audit)
}

// PATCH /:branch_id/fees/payments/:id
func (h *FeeController) Amend(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	id, err := paymentIDParam(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	var req dto.AmendPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	res, change, err := h.Fees.AmendPayment(c.UserContext(), req.ToInput(branchID, id, helperAuth.ActorID(c)))
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonUpdated(c, "Pembayaran diperbarui", dto.FromPaymentResult(res), change)
}

// DELETE /:branch_id/fees/payments/:id
func (h *FeeController) Reverse(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	id, err := paymentIDParam(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	ledger, change, err := h.Fees.ReversePayment(c.UserContext(), branchID, id, helperAuth.ActorID(c))
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonDeleted(c, "Pembayaran dibatalkan", fiber.Map{
		"payment_id": id,
		"ledger":     dto.FromLedger(ledger),
	}, change)
}

/* ===================== Reads ===================== */

// GET /:branch_id/fees/payments?student_id=&year=&month=&page=&per_page=
func (h *FeeController) List(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	var q dto.ListPaymentsQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Query tidak valid")
	}
	if err := h.Validator.Struct(q); err != nil {
		return helper.JsonValidationError(c, err)
	}
	p := helper.ResolvePaging(c, 20, 200)

	rows, total, err := h.Fees.ListPayments(c.UserContext(), branchID, service.PaymentFilter{
		StudentID: q.StudentID,
		Year:      q.Year,
		Month:     q.Month,
		Limit:     p.Limit,
		Offset:    p.Offset,
	})
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	pg := helper.BuildPagination(total, p, len(rows))
	return helper.JsonList(c, "ok", dto.FromPaymentModels(rows), &pg)
}

// GET /:branch_id/fees/payments/:id
func (h *FeeController) Get(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	id, err := paymentIDParam(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	p, err := h.Fees.GetPayment(c.UserContext(), branchID, id)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonOK(c, "ok", dto.FromPaymentModel(p))
}

// GET /:branch_id/fees/students/:ref
func (h *FeeController) StudentLedger(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	l, err := h.Fees.StudentLedger(c.UserContext(), branchID, c.Params("ref"))
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonOK(c, "ok", l)
}

/* ===================== Ledger audit ===================== */

// GET /:branch_id/fees/verify
func (h *FeeController) VerifyBranch(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	rep, err := h.Fees.VerifyLedgers(c.UserContext(), &branchID)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonOK(c, "ok", rep)
}

// GET /api/o/fees/verify (semua branch)
func (h *FeeController) VerifyAll(c *fiber.Ctx) error {
	rep, err := h.Fees.VerifyLedgers(c.UserContext(), nil)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonOK(c, "ok", rep)
}

// POST /:branch_id/fees/students/:ref/rebuild
func (h *FeeController) Rebuild(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	res, err := h.Fees.RebuildLedger(c.UserContext(), branchID, c.Params("ref"), helperAuth.ActorID(c))
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonUpdated(c, "Ledger dihitung ulang", res, nil)
}

/* ===================== Student panel ===================== */

// GET /api/s/fees/me
func (h *FeeController) MyLedger(c *fiber.Ctx) error {
	branchID, err := helperAuth.GetBranchIDFromToken(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	personID, err := helperAuth.GetPersonIDFromToken(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	l, err := h.Fees.StudentLedger(c.UserContext(), branchID, personID.String())
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonOK(c, "ok", l)
}
