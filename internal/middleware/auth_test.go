package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

const testSecret = "middleware-test-secret"

type fakeAccounts struct {
	inactive map[uuid.UUID]bool
	err      error
}

func (f fakeAccounts) IsActive(_ context.Context, id uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return !f.inactive[id], nil
}

func tokenFor(t *testing.T, id uuid.UUID, role models.Role) string {
	t.Helper()
	token, err := utils.GenerateToken(testSecret, &models.Account{BaseModel: models.BaseModel{ID: id}, Role: role}, time.Hour)
	require.NoError(t, err)
	return token
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return c.Status(fe.Code).SendString(fe.Message)
	case apperr.KindOf(err) == apperr.KindAuthorization:
		return c.Status(fiber.StatusForbidden).SendString("forbidden")
	default:
		return c.Status(fiber.StatusInternalServerError).SendString("internal")
	}
}

func newApp(guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	chain := append(guards, func(c *fiber.Ctx) error {
		actor, ok := CurrentActor(c)
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(string(actor.Role))
	})
	app.Get("/", chain...)
	return app
}

func call(t *testing.T, app *fiber.App, header string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestAuthMiddleware(t *testing.T) {
	active := uuid.New()
	disabled := uuid.New()
	accounts := fakeAccounts{inactive: map[uuid.UUID]bool{disabled: true}}
	app := newApp(AuthMiddleware(testSecret, accounts))

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, "Missing authorization header"},
		{"wrong scheme", "Basic " + tokenFor(t, active, models.RoleCustomer), http.StatusUnauthorized, "Invalid authorization header"},
		{"bad token", "Bearer nope", http.StatusUnauthorized, "Invalid token"},
		{"foreign secret", "Bearer " + mustToken(t, "other-secret", active), http.StatusUnauthorized, "Invalid token"},
		{"deactivated", "Bearer " + tokenFor(t, disabled, models.RoleAdmin), http.StatusUnauthorized, "Account is deactivated"},
		{"valid", "bearer " + tokenFor(t, active, models.RoleStaff), http.StatusOK, "user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := call(t, app, tt.header)
			assert.Equal(t, tt.status, status)
			assert.Contains(t, body, tt.body)
		})
	}
}

func TestAuthMiddlewareLookupFailure(t *testing.T) {
	app := newApp(AuthMiddleware(testSecret, fakeAccounts{err: errors.New("db down")}))

	status, body := call(t, app, "Bearer "+tokenFor(t, uuid.New(), models.RoleCustomer))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, body, "db down")
}

func TestAuthMiddlewareWithoutStatusCheck(t *testing.T) {
	app := newApp(AuthMiddleware(testSecret, nil))

	status, body := call(t, app, "Bearer "+tokenFor(t, uuid.New(), models.RoleCustomer))

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "customer", body)
}

func TestOptionalAuth(t *testing.T) {
	disabled := uuid.New()
	app := newApp(OptionalAuth(testSecret, fakeAccounts{inactive: map[uuid.UUID]bool{disabled: true}}))

	status, body := call(t, app, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "anonymous", body)

	status, body = call(t, app, "Bearer "+tokenFor(t, uuid.New(), models.RoleAdmin))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "admin", body)

	status, _ = call(t, app, "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, app, "Bearer "+tokenFor(t, disabled, models.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRequireCapability(t *testing.T) {
	app := newApp(AuthMiddleware(testSecret, nil), RequireCapability(models.CapReviewProducts))

	status, _ := call(t, app, "Bearer "+tokenFor(t, uuid.New(), models.RoleStaff))
	assert.Equal(t, http.StatusForbidden, status)

	status, body := call(t, app, "Bearer "+tokenFor(t, uuid.New(), models.RoleAdmin))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "admin", body)

	bare := newApp(RequireCapability(models.CapReviewProducts))
	status, _ = call(t, bare, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func mustToken(t *testing.T, secret string, id uuid.UUID) string {
	t.Helper()
	token, err := utils.GenerateToken(secret, &models.Account{BaseModel: models.BaseModel{ID: id}, Role: models.RoleCustomer}, time.Hour)
	require.NoError(t, err)
	return token
}
