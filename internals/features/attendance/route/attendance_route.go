package route

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	attendanceController "schoolku_backend/internals/features/attendance/controller"
	"schoolku_backend/internals/features/attendance/service"
	"schoolku_backend/internals/middlewares"
)

/*
Teacher routes (mount di /api/t/:branch_id): scan, check-in/out, roster & rekap.
Admin memakai semua route teacher + override & delete.
*/
func AttendanceTeacherRoutes(r fiber.Router, l *service.Ledger, v *validator.Validate) {
	ctl := attendanceController.NewAttendanceController(l, v)
	mountCommon(r.Group("/attendance"), ctl)
}

func AttendanceAdminRoutes(r fiber.Router, l *service.Ledger, v *validator.Validate) {
	ctl := attendanceController.NewAttendanceController(l, v)

	att := r.Group("/attendance")
	mountCommon(att, ctl)
	att.Put("/explicit", ctl.MarkExplicit)
	att.Delete("/:id", ctl.Delete)
}

// Student routes (mount di /api/s)
func AttendanceStudentRoutes(r fiber.Router, l *service.Ledger, v *validator.Validate) {
	ctl := attendanceController.NewAttendanceController(l, v)
	r.Get("/attendance/me", ctl.MyAttendance)
}

func mountCommon(att fiber.Router, ctl *attendanceController.AttendanceController) {
	att.Post("/scan", middlewares.ScanRateLimiter(), ctl.Scan)
	att.Post("/check-in", ctl.CheckIn)
	att.Post("/check-out", ctl.CheckOut)

	att.Get("/absentees", ctl.Absentees)
	att.Get("/summary", ctl.Summary)
	att.Get("/cutoffs", ctl.Cutoffs)
	att.Get("/persons/:ref/stats", ctl.PersonStats)
	att.Get("/persons/:ref/history", ctl.PersonHistory)
}
