package route

import (
	"github.com/gofiber/fiber/v2"

	auditController "schoolku_backend/internals/features/audit/controller"
	"schoolku_backend/internals/features/audit/service"
)

// Admin (mount di /api/a/:branch_id)
func AuditAdminRoutes(r fiber.Router, reader service.Reader) {
	ctl := auditController.NewAuditController(reader)
	r.Get("/audit/:entity/:entity_id", ctl.History)
}
