package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestStatusAndCode(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{err: ErrNotFound, status: fiber.StatusNotFound, code: "NOT_FOUND"},
		{err: ErrDuplicateAttendance, status: fiber.StatusConflict, code: "DUPLICATE_ATTENDANCE"},
		{err: ErrAlreadyComplete, status: fiber.StatusConflict, code: "ALREADY_COMPLETE"},
		{err: ErrNoCheckIn, status: fiber.StatusUnprocessableEntity, code: "NO_CHECK_IN"},
		{err: ErrInvalidQR, status: fiber.StatusUnprocessableEntity, code: "INVALID_QR"},
		{err: ErrInvalidAmount, status: fiber.StatusUnprocessableEntity, code: "INVALID_AMOUNT"},
		{err: ErrInvalidTime, status: fiber.StatusUnprocessableEntity, code: "INVALID_TIME"},
		{err: ErrInactiveSubject, status: fiber.StatusForbidden, code: "INACTIVE_SUBJECT"},
		{err: ErrLedgerInvariant, status: fiber.StatusInternalServerError, code: "LEDGER_INVARIANT"},
		{err: ErrUniqueViolation, status: fiber.StatusConflict, code: "CONFLICT"},
		{err: Invalid("month must be 1..12"), status: fiber.StatusUnprocessableEntity, code: "VALIDATION_ERROR"},
		{err: errors.New("boom"), status: fiber.StatusInternalServerError, code: "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			wrapped := fmt.Errorf("ctx: %w", tt.err)
			assert.Equal(t, tt.status, Status(wrapped))
			assert.Equal(t, tt.code, Code(wrapped))
		})
	}

	assert.Equal(t, fiber.StatusOK, Status(nil))
	assert.Equal(t, fiber.StatusUnauthorized, Status(fiber.NewError(fiber.StatusUnauthorized, "no token")))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", ErrUniqueViolation)))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, IsUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "uq_persons_branch_code"`)))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
}
