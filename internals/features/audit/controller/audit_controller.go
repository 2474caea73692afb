package controller

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolku_backend/internals/features/audit/service"
	helper "schoolku_backend/internals/helpers"
	authMiddleware "schoolku_backend/internals/middlewares/auth"
)

var knownEntities = map[string]bool{
	"person":            true,
	"person_ledger":     true,
	"payment":           true,
	"attendance_record": true,
}

type AuditController struct {
	Reader service.Reader
}

func NewAuditController(r service.Reader) *AuditController {
	return &AuditController{Reader: r}
}

// GET /:branch_id/audit/:entity/:entity_id?limit=
func (h *AuditController) History(c *fiber.Ctx) error {
	branchID, err := authMiddleware.ScopedBranchID(c)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	entity := strings.ToLower(strings.TrimSpace(c.Params("entity")))
	if !knownEntities[entity] {
		return helper.JsonError(c, fiber.StatusBadRequest, "entity tidak dikenal")
	}
	entityID, err := uuid.Parse(strings.TrimSpace(c.Params("entity_id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "entity_id tidak valid")
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	rows, err := h.Reader.ListByEntity(c.UserContext(), branchID, entity, entityID, limit)
	if err != nil {
		return helper.JsonAppError(c, err, nil)
	}
	return helper.JsonList(c, "ok", rows, nil)
}
