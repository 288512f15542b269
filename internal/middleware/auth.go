package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

const actorContextKey = "currentActor"

var errNoCredentials = errors.New("no credentials")

// AccountStatus reports whether an account may still act. Tokens stay
// valid until they expire, so a deactivated account is caught here.
type AccountStatus interface {
	IsActive(ctx context.Context, accountID uuid.UUID) (bool, error)
}

// AuthMiddleware validates JWT tokens and loads the authenticated actor into context.
// When accounts is non-nil, tokens of deactivated accounts are rejected.
func AuthMiddleware(secret string, accounts AccountStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := authenticate(c, secret, accounts)
		if errors.Is(err, errNoCredentials) {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing authorization header")
		}
		if err != nil {
			return err
		}

		c.Locals(actorContextKey, actor)
		return c.Next()
	}
}

// OptionalAuth loads the actor when a token is present and lets anonymous
// requests through. A token that is present but invalid is still rejected.
func OptionalAuth(secret string, accounts AccountStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := authenticate(c, secret, accounts)
		if errors.Is(err, errNoCredentials) {
			return c.Next()
		}
		if err != nil {
			return err
		}

		c.Locals(actorContextKey, actor)
		return c.Next()
	}
}

func authenticate(c *fiber.Ctx, secret string, accounts AccountStatus) (models.Actor, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return models.Actor{}, errNoCredentials
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return models.Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Invalid authorization header")
	}

	actor, err := utils.ParseToken(secret, parts[1])
	if err != nil {
		return models.Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	if accounts != nil {
		active, err := accounts.IsActive(c.UserContext(), actor.ID)
		if err != nil {
			slog.Error("account status lookup failed", "account_id", actor.ID, "error", err)
			return models.Actor{}, err
		}
		if !active {
			return models.Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Account is deactivated")
		}
	}

	return actor, nil
}

// RequireCapability rejects actors whose role lacks capability.
// It must run after AuthMiddleware.
func RequireCapability(capability models.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := CurrentActor(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}
		if !actor.Can(capability) {
			return apperr.ErrForbidden
		}
		return c.Next()
	}
}

// CurrentActor extracts the authenticated actor from context.
func CurrentActor(c *fiber.Ctx) (models.Actor, bool) {
	actor, ok := c.Locals(actorContextKey).(models.Actor)
	return actor, ok
}
