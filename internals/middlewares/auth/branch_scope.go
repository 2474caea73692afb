package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolku_backend/internals/constants"
	helper "schoolku_backend/internals/helpers"
	"schoolku_backend/internals/helpers/apperrors"
	helperAuth "schoolku_backend/internals/helpers/auth"
	"schoolku_backend/internals/helpers/dbtime"
)

// BranchTimezoneFunc: lookup timezone branch (biasanya dari tabel branches).
type BranchTimezoneFunc func(ctx context.Context, branchID uuid.UUID) (string, error)

const LocScopedBranchID = "scoped_branch_id" // uuid.UUID

// UseBranchScope:
// - :branch_id wajib UUID
// - selain super_admin, harus sama dengan branch_id di token
// - timezone branch di-load ke locals untuk dbtime.BranchLocation
func UseBranchScope(tz BranchTimezoneFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Params("branch_id"))
		branchID, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "branch_id tidak valid")
		}

		if !constants.IsSuperAdmin(helperAuth.GetRole(c)) {
			tokBranch, err := helperAuth.GetBranchIDFromToken(c)
			if err != nil || tokBranch != branchID {
				return helper.JsonError(c, fiber.StatusForbidden, "Branch di luar scope akun ini")
			}
		}

		if tz != nil {
			name, err := tz(c.UserContext(), branchID)
			if err != nil {
				return helper.JsonAppError(c, err, nil)
			}
			c.Locals(dbtime.LocBranchTimezone, name)
		}
		c.Locals(LocScopedBranchID, branchID)
		return c.Next()
	}
}

// ScopedBranchID dipakai controller setelah UseBranchScope.
func ScopedBranchID(c *fiber.Ctx) (uuid.UUID, error) {
	if id, ok := c.Locals(LocScopedBranchID).(uuid.UUID); ok && id != uuid.Nil {
		return id, nil
	}
	if id, err := uuid.Parse(strings.TrimSpace(c.Params("branch_id"))); err == nil {
		return id, nil
	}
	return uuid.Nil, apperrors.Invalid("branch_id tidak valid")
}
