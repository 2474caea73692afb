package helper

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"schoolku_backend/internals/helpers/apperrors"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		message  string
		loggedAs int
	}{
		{name: "fiber 4xx", err: fiber.NewError(fiber.StatusUnauthorized, "token missing"), status: 401, code: "UNAUTHORIZED", message: "token missing"},
		{name: "domain not found", err: fmt.Errorf("person x: %w", apperrors.ErrNotFound), status: 404, code: "NOT_FOUND", message: "person x: not found"},
		{name: "unknown error", err: errors.New("db exploded"), status: 500, code: "INTERNAL_ERROR", message: fiber.ErrInternalServerError.Message, loggedAs: 1},
		{name: "fiber 5xx", err: fiber.NewError(fiber.StatusServiceUnavailable, "down"), status: 503, loggedAs: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.New(core))})
			app.Get("/x", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/x", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			if tt.code != "" {
				assert.Equal(t, tt.code, body.ErrorCode)
				assert.Equal(t, tt.message, body.Message)
			}
			assert.Equal(t, tt.loggedAs, logs.FilterMessage("unhandled error").Len())
		})
	}
}

func TestErrorHandler_unknownRoute(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: FromFiberError})
	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
