package handlers

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/apperr"
)

func TestErrorHandlerEnvelope(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"validation", apperr.ErrEmptyOrder, fiber.StatusBadRequest, apperr.ErrEmptyOrder.Message},
		{"conflict", apperr.ErrNoOpTransition, fiber.StatusBadRequest, apperr.ErrNoOpTransition.Message},
		{"insufficient stock", apperr.WithMessage(apperr.ErrInsufficientStock, "Insufficient stock for product: Tea"), fiber.StatusBadRequest, "Insufficient stock for product: Tea"},
		{"invalid secret", apperr.ErrCodeMismatch, fiber.StatusBadRequest, apperr.ErrCodeMismatch.Message},
		{"forbidden", apperr.ErrForbidden, fiber.StatusForbidden, apperr.ErrForbidden.Message},
		{"upstream", apperr.Wrap(apperr.ErrGateway, errors.New("dial tcp")), fiber.StatusInternalServerError, apperr.ErrGateway.Message},
		{"fiber error", fiber.NewError(fiber.StatusUnauthorized, "Invalid token"), fiber.StatusUnauthorized, "Invalid token"},
		{"unknown", errors.New("boom: secret detail"), fiber.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantMessage, body["message"])
		})
	}
}

func TestRespondOmitsEmptyFields(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return respond(c, fiber.StatusOK, "", nil) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]any{"success": true}, body)
}
