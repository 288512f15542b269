package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
)

// PaymentHandler serves checkout and gateway verification.
type PaymentHandler struct {
	payments *services.PaymentService
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Initialize opens a gateway checkout for the caller.
func (h *PaymentHandler) Initialize(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req services.InitializeInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.payments.Initialize(c.UserContext(), actor.ID, req)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Payment initialized successfully", result)
}

// Verify reconciles the gateway state of a transaction. It is also the
// gateway callback target, so it is not behind auth.
func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	payment, err := h.payments.Verify(c.UserContext(), c.Params("txRef"))
	if err != nil {
		return err
	}

	if payment == nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Payment not completed",
		})
	}
	return respond(c, fiber.StatusOK, "Payment verified successfully", payment)
}
