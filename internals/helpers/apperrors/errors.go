// file: internals/helpers/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

/* =========================
   Taksonomi error domain
   ========================= */

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateAttendance = errors.New("attendance already recorded")
	ErrNoCheckIn           = errors.New("no check-in recorded for this date")
	ErrAlreadyComplete     = errors.New("attendance already checked out")
	ErrInvalidQR           = errors.New("invalid qr payload")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInactiveSubject     = errors.New("subject is inactive")
	ErrLedgerInvariant     = errors.New("ledger invariant violation")
	ErrInvalidTime         = errors.New("invalid time")
	ErrInvalidInput        = errors.New("invalid input")

	// internal: dipakai repository untuk melaporkan pelanggaran unique index
	ErrUniqueViolation = errors.New("unique violation")
)

// Status memetakan error domain ke HTTP status.
func Status(err error) int {
	var fe *fiber.Error
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrDuplicateAttendance),
		errors.Is(err, ErrAlreadyComplete),
		errors.Is(err, ErrUniqueViolation):
		return fiber.StatusConflict
	case errors.Is(err, ErrNoCheckIn),
		errors.Is(err, ErrInvalidQR),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidTime),
		errors.Is(err, ErrInvalidInput):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, ErrInactiveSubject):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// Code dipakai sebagai error_code di response JSON.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrDuplicateAttendance):
		return "DUPLICATE_ATTENDANCE"
	case errors.Is(err, ErrNoCheckIn):
		return "NO_CHECK_IN"
	case errors.Is(err, ErrAlreadyComplete):
		return "ALREADY_COMPLETE"
	case errors.Is(err, ErrInvalidQR):
		return "INVALID_QR"
	case errors.Is(err, ErrInvalidAmount):
		return "INVALID_AMOUNT"
	case errors.Is(err, ErrInactiveSubject):
		return "INACTIVE_SUBJECT"
	case errors.Is(err, ErrInvalidTime):
		return "INVALID_TIME"
	case errors.Is(err, ErrInvalidInput):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrUniqueViolation):
		return "CONFLICT"
	case errors.Is(err, ErrLedgerInvariant):
		return "LEDGER_INVARIANT"
	default:
		return "INTERNAL_ERROR"
	}
}

// Invalid membungkus pesan validasi domain sebagai ErrInvalidInput.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IsUniqueViolation: SQLSTATE 23505 dari pgx maupun lib/pq.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUniqueViolation) {
		return true
	}
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23505"
	}
	// fallback: driver lain / error yang sudah di-stringify
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "violates unique constraint") ||
		strings.Contains(s, "sqlstate 23505")
}
