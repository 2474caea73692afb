// file: internals/route/index.go
package routes

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	attendanceRepo "schoolku_backend/internals/features/attendance/repository"
	attendanceRoute "schoolku_backend/internals/features/attendance/route"
	attendanceSvc "schoolku_backend/internals/features/attendance/service"
	auditRepo "schoolku_backend/internals/features/audit/repository"
	auditRoute "schoolku_backend/internals/features/audit/route"
	auditSvc "schoolku_backend/internals/features/audit/service"
	feeRepo "schoolku_backend/internals/features/finance/fees/repository"
	feeRoute "schoolku_backend/internals/features/finance/fees/route"
	feeSvc "schoolku_backend/internals/features/finance/fees/service"
	peopleRepo "schoolku_backend/internals/features/people/repository"
	peopleRoute "schoolku_backend/internals/features/people/route"
	peopleSvc "schoolku_backend/internals/features/people/service"
	seqRepo "schoolku_backend/internals/features/sequences/repository"
	seqSvc "schoolku_backend/internals/features/sequences/service"
	authMiddleware "schoolku_backend/internals/middlewares/auth"
)

var startTime = time.Now()

// Stores: satu implementasi per feature (GORM di produksi, inmem di test).
type Stores struct {
	People     peopleSvc.Store
	Attendance attendanceSvc.Store
	Fees       feeSvc.Store
	Sequences  seqSvc.Store
	Audit      auditSvc.ReadWriter
}

func GormStores(db *gorm.DB) Stores {
	return Stores{
		People:     peopleRepo.NewPeopleRepository(db),
		Attendance: attendanceRepo.NewAttendanceRepository(db),
		Fees:       feeRepo.NewFeeRepository(db),
		Sequences:  seqRepo.NewSequenceRepository(db),
		Audit:      auditRepo.NewAuditRepository(db),
	}
}

type Services struct {
	Registry   *peopleSvc.Registry
	Attendance *attendanceSvc.Ledger
	Fees       *feeSvc.FeeLedger
	Sequences  *seqSvc.Generator
	Audit      *auditSvc.Recorder
	AuditLog   auditSvc.Reader
	Validator  *validator.Validate
}

func NewServices(st Stores, cutoffs attendanceSvc.CutoffTable, lg *zap.Logger) *Services {
	audit := auditSvc.NewRecorder(st.Audit, lg)
	seq := seqSvc.NewGenerator(st.Sequences)
	reg := peopleSvc.NewRegistry(st.People, seq, audit, lg)
	return &Services{
		Registry:   reg,
		Attendance: attendanceSvc.NewLedger(st.Attendance, reg, cutoffs, audit, lg),
		Fees:       feeSvc.NewFeeLedger(st.Fees, reg, seq, audit, lg),
		Sequences:  seq,
		Audit:      audit,
		AuditLog:   st.Audit,
		Validator:  validator.New(),
	}
}

// branchTimezone: dipakai UseBranchScope; branch tidak ada → 404
func (s *Services) branchTimezone(ctx context.Context, branchID uuid.UUID) (string, error) {
	b, err := s.Registry.GetBranch(ctx, branchID)
	if err != nil {
		return "", err
	}
	return b.BranchTimezone, nil
}

type RouteOptions struct {
	JWTSecret string
	Health    HealthFunc
}

func SetupRoutes(app *fiber.App, svc *Services, opts RouteOptions) {
	startTime = time.Now()
	BaseRoutes(app, opts.Health)

	auth := authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
		Secret:              opts.JWTSecret,
		AllowCookieFallback: true,
	})
	scope := authMiddleware.UseBranchScope(svc.branchTimezone)

	// ===================== ADMIN (per branch) =====================
	admin := app.Group("/api/a/:branch_id",
		auth,
		authMiddleware.OnlyRoles(constants.RoleErrorAdmin("admin branch"), constants.AdminAndAbove...),
		scope,
	)

	// ===================== TEACHER (per branch) =====================
	teacher := app.Group("/api/t/:branch_id",
		auth,
		authMiddleware.OnlyRoles(constants.RoleErrorTeacher("absensi"), constants.TeacherAndAbove...),
		scope,
	)

	// ===================== STUDENT (scope dari token) =====================
	student := app.Group("/api/s",
		auth,
		authMiddleware.OnlyRoles("❌ Hanya student yang boleh mengakses fitur ini.", constants.RoleStudent),
	)

	// ===================== OWNER (GLOBAL) =====================
	owner := app.Group("/api/o",
		auth,
		authMiddleware.OnlyRoles(constants.RoleErrorOwner("owner"), constants.OwnerOnly...),
	)

	// ===================== MOUNT ROUTES =====================
	peopleRoute.PeopleAdminRoutes(admin, svc.Registry, svc.Validator)
	peopleRoute.BranchOwnerRoutes(owner, svc.Registry, svc.Validator)

	attendanceRoute.AttendanceAdminRoutes(admin, svc.Attendance, svc.Validator)
	attendanceRoute.AttendanceTeacherRoutes(teacher, svc.Attendance, svc.Validator)
	attendanceRoute.AttendanceStudentRoutes(student, svc.Attendance, svc.Validator)

	feeRoute.FeeAdminRoutes(admin, svc.Fees, svc.Validator)
	feeRoute.FeeOwnerRoutes(owner, svc.Fees, svc.Validator)
	feeRoute.FeeStudentRoutes(student, svc.Fees, svc.Validator)

	auditRoute.AuditAdminRoutes(admin, svc.AuditLog)
}
