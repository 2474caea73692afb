// package: internals/helpers/auth
package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

/* ============================================
   Locals Keys (diisi middleware AuthJWT)
   ============================================ */

const (
	LocUserID   = "user_id"   // string UUID
	LocRole     = "role"      // super_admin | branch_admin | teacher | student
	LocBranchID = "branch_id" // string UUID, branch asal token
	LocPersonID = "person_id" // string UUID, person milik user (teacher/student)
)

func parseUUIDLocal(c *fiber.Ctx, key string) (uuid.UUID, bool) {
	switch v := c.Locals(key).(type) {
	case uuid.UUID:
		return v, v != uuid.Nil
	case string:
		id, err := uuid.Parse(strings.TrimSpace(v))
		return id, err == nil && id != uuid.Nil
	}
	return uuid.Nil, false
}

func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	if id, ok := parseUUIDLocal(c, LocUserID); ok {
		return id, nil
	}
	return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "user_id tidak ditemukan di token")
}

// ActorID: versi pointer untuk audit (nil kalau tidak ada)
func ActorID(c *fiber.Ctx) *uuid.UUID {
	if id, ok := parseUUIDLocal(c, LocUserID); ok {
		return &id
	}
	return nil
}

func GetRole(c *fiber.Ctx) string {
	s, _ := c.Locals(LocRole).(string)
	return strings.ToLower(strings.TrimSpace(s))
}

func GetBranchIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	if id, ok := parseUUIDLocal(c, LocBranchID); ok {
		return id, nil
	}
	return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "branch_id tidak ditemukan di token")
}

func GetPersonIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	if id, ok := parseUUIDLocal(c, LocPersonID); ok {
		return id, nil
	}
	return uuid.Nil, fiber.NewError(fiber.StatusForbidden, "person_id tidak ditemukan di token")
}
