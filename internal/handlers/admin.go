package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
)

// StaffHandler serves back-office login and account administration.
type StaffHandler struct {
	auth *services.AuthService
}

// NewStaffHandler constructs a StaffHandler.
func NewStaffHandler(auth *services.AuthService) *StaffHandler {
	return &StaffHandler{auth: auth}
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// Login authenticates staff. Admins receive an emailed code instead of a
// session.
func (h *StaffHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	result, err := h.auth.StaffLogin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	if result.TwoFactorRequired {
		return respond(c, fiber.StatusOK, "A verification code has been sent to your email", fiber.Map{"two_factor_required": true})
	}
	return respond(c, fiber.StatusOK, "Login successful", result.Session)
}

// VerifyLogin completes an admin login.
func (h *StaffHandler) VerifyLogin(c *fiber.Ctx) error {
	var req verifyRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	session, err := h.auth.VerifyAdminLogin(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Login successful", session)
}

// CreateStaff registers a staff account.
func (h *StaffHandler) CreateStaff(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req services.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	account, err := h.auth.CreateStaff(c.UserContext(), actor, req)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusCreated, "Staff account created successfully", account)
}

// SetActive activates or deactivates an account.
func (h *StaffHandler) SetActive(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req setActiveRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	account, err := h.auth.SetActive(c.UserContext(), actor, id, *req.IsActive)
	if err != nil {
		return err
	}

	message := "Account deactivated successfully"
	if account.IsActive {
		message = "Account activated successfully"
	}
	return respond(c, fiber.StatusOK, message, account)
}
