package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// AuthHandler bundles the customer authentication endpoints.
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type verifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type codeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required"`
}

// Register creates a customer account and sends the verification code.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	account, err := h.auth.RegisterCustomer(c.UserContext(), req)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusCreated, "Registration successful. A verification code has been sent.", account)
}

// Verify confirms the registration code.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	session, err := h.auth.VerifyRegistration(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Account verified successfully", session)
}

// Login checks credentials and either returns a session or asks for the
// second factor.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	if result.TwoFactorRequired {
		return respond(c, fiber.StatusOK, "A login code has been sent", fiber.Map{"two_factor_required": true})
	}
	return respond(c, fiber.StatusOK, "Login successful", result.Session)
}

// VerifyLogin completes a two-factor login.
func (h *AuthHandler) VerifyLogin(c *fiber.Ctx) error {
	var req verifyRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	session, err := h.auth.VerifyLogin(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Login successful", session)
}

// EnableTwoFactor sends the 2FA activation code.
func (h *AuthHandler) EnableTwoFactor(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	if err := h.auth.RequestEnableTwoFactor(c.UserContext(), actor.ID); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "A 2FA activation code has been sent", nil)
}

// VerifyTwoFactor confirms the activation code and turns 2FA on.
func (h *AuthHandler) VerifyTwoFactor(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req codeRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	if err := h.auth.ConfirmEnableTwoFactor(c.UserContext(), actor.ID, req.Code); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "2FA enabled successfully", nil)
}

// DisableTwoFactor turns 2FA off.
func (h *AuthHandler) DisableTwoFactor(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	if err := h.auth.DisableTwoFactor(c.UserContext(), actor.ID); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "2FA disabled successfully", nil)
}

// ForgotPassword sends a password reset code.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	if err := h.auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "If the email is registered, a password reset code has been sent", nil)
}

// ResetPassword sets a new password after checking the reset code.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	if err := h.auth.ResetPassword(c.UserContext(), req.Email, req.Code, req.NewPassword); err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "Password reset successfully", nil)
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	account, err := h.auth.Profile(c.UserContext(), actor.ID)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, "", account)
}

func decode(c *fiber.Ctx, out any) error {
	if err := parseBody(c, out); err != nil {
		return err
	}
	return utils.ValidateStruct(out)
}
