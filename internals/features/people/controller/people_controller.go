// file: internals/features/people/controller/people_controller.go
package controller

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"schoolku_backend/internals/features/people/dto"
	"schoolku_backend/internals/features/people/model"
	"schoolku_backend/internals/features/people/service"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
	authMiddleware "schoolku_backend/internals/middlewares/auth"
)

type PeopleController struct {
	Registry  *service.Registry
	Validator *validator.Validate
}

func NewPeopleController(reg *service.Registry, v *validator.Validate) *PeopleController {
	if v == nil {
		v = validator.New()
	}
	return &PeopleController{Registry: reg, Validator: v}
}

/* ===================== Branch (super admin) ===================== */

// POST /api/o/branches
func (h *PeopleController) CreateBranch(c *fiber.Ctx) error {
	var req dto.CreateBranchRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	b, err := h.Registry.CreateBranch(c.UserContext(), req.ToInput())
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonCreated(c, "Branch dibuat", b, nil)
}

// GET /api/o/branches
func (h *PeopleController) ListBranches(c *fiber.Ctx) error {
	rows, err := h.Registry.ListBranches(c.UserContext())
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonList(c, "ok", rows, nil)
}

/* ===================== Person (branch admin) ===================== */

// POST /api/a/:branch_id/persons
func (h *PeopleController) Onboard(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}

	var req dto.CreatePersonRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	in, err := req.ToInput()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "person_admission_date harus YYYY-MM-DD")
	}

	p, change, err := h.Registry.Onboard(c.UserContext(), branchID, in, helperAuth.ActorID(c))
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonCreated(c, "Person dibuat", dto.FromPersonModel(p), change)
}

// GET /api/a/:branch_id/persons?kind=student&active_only=true&page=1&per_page=50
func (h *PeopleController) List(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	var q dto.ListPersonsQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Query tidak valid")
	}
	if err := h.Validator.Struct(q); err != nil {
		return helper.JsonValidationError(c, err)
	}
	kind := model.PersonKindStudent
	if s := strings.TrimSpace(q.Kind); s != "" {
		kind = model.PersonKind(s)
	}
	activeOnly := q.ActiveOnly != nil && *q.ActiveOnly

	rows, err := h.Registry.ListRoster(c.UserContext(), branchID, kind, activeOnly)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}

	// paging di memori: roster per branch kecil (ratusan)
	p := helper.ResolvePaging(c, 50, 500)
	total := len(rows)
	start, end := p.Offset, p.Offset+p.Limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	page := rows[start:end]
	pg := helper.BuildPagination(int64(total), p, len(page))
	return helper.JsonList(c, "ok", dto.FromPersonModels(page), &pg)
}

// GET /api/a/:branch_id/persons/:ref  (ref = UUID atau kode)
func (h *PeopleController) Get(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	p, err := h.Registry.Resolve(c.UserContext(), branchID, c.Params("ref"))
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonOK(c, "ok", dto.FromPersonModel(p))
}

// PATCH /api/a/:branch_id/persons/:ref/active
func (h *PeopleController) SetActive(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	var req dto.SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	p, change, err := h.Registry.SetActive(c.UserContext(), branchID, c.Params("ref"), *req.PersonIsActive, helperAuth.ActorID(c))
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonUpdated(c, "Status aktif diperbarui", dto.FromPersonModel(p), change)
}
