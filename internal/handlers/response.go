package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/storefront/internal/apperr"
)

// ErrorHandler renders every failure as {success:false, message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status, message := classify(err)
	if status >= fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func classify(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	appErr, ok := apperr.As(err)
	if !ok {
		return fiber.StatusInternalServerError, "Internal server error"
	}

	switch appErr.Kind {
	case apperr.KindUpstream, apperr.KindInternal:
		return fiber.StatusInternalServerError, appErr.Message
	case apperr.KindAuthorization:
		return fiber.StatusForbidden, appErr.Message
	default:
		return fiber.StatusBadRequest, appErr.Message
	}
}

func respond(c *fiber.Ctx, status int, message string, data any) error {
	body := fiber.Map{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.WithMessage(apperr.ErrValidation, "Invalid request body")
	}
	return nil
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, apperr.WithMessage(apperr.ErrValidation, "Invalid "+param)
	}
	return id, nil
}
