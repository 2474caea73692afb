package route

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	feeController "schoolku_backend/internals/features/finance/fees/controller"
	"schoolku_backend/internals/features/finance/fees/service"
)

// Admin (mount di /api/a/:branch_id): kasir + audit ledger branch
func FeeAdminRoutes(r fiber.Router, f *service.FeeLedger, v *validator.Validate) {
	ctl := feeController.NewFeeController(f, v)

	fees := r.Group("/fees")
	fees.Get("/payments", ctl.List)
	fees.Post("/payments", ctl.Record)
	fees.Get("/payments/:id", ctl.Get)
	fees.Patch("/payments/:id", ctl.Amend)
	fees.Delete("/payments/:id", ctl.Reverse)

	fees.Get("/students/:ref", ctl.StudentLedger)
	fees.Post("/students/:ref/rebuild", ctl.Rebuild)
	fees.Get("/verify", ctl.VerifyBranch)
}

// Owner (mount di /api/o)
func FeeOwnerRoutes(r fiber.Router, f *service.FeeLedger, v *validator.Validate) {
	ctl := feeController.NewFeeController(f, v)
	r.Get("/fees/verify", ctl.VerifyAll)
}

// Student (mount di /api/s)
func FeeStudentRoutes(r fiber.Router, f *service.FeeLedger, v *validator.Validate) {
	ctl := feeController.NewFeeController(f, v)
	r.Get("/fees/me", ctl.MyLedger)
}
