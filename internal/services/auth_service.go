package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

const minPasswordLength = 6

// SessionIssuer signs session tokens for authenticated accounts.
type SessionIssuer interface {
	Issue(account *models.Account) (string, error)
}

// AuthConfig holds passcode lifetimes.
type AuthConfig struct {
	OTPTTL           time.Duration
	PasswordResetTTL time.Duration
}

// AuthService implements the account verification, login, two-factor and
// password reset flows on top of OTPManager.
type AuthService struct {
	db       *gorm.DB
	otp      *OTPManager
	notifier Notifier
	sessions SessionIssuer
	cfg      AuthConfig
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *gorm.DB, otp *OTPManager, notifier Notifier, sessions SessionIssuer, cfg AuthConfig) *AuthService {
	return &AuthService{db: db, otp: otp, notifier: notifier, sessions: sessions, cfg: cfg}
}

// Session is a granted login.
type Session struct {
	Token   string          `json:"token"`
	Account *models.Account `json:"account"`
}

// LoginResult is either a session or a pending second factor.
type LoginResult struct {
	Session           *Session `json:"session,omitempty"`
	TwoFactorRequired bool     `json:"two_factor_required"`
}

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// RegisterCustomer creates an unverified customer and sends the
// registration code. The account is rolled back when the code cannot be
// delivered.
func (s *AuthService) RegisterCustomer(ctx context.Context, in RegisterInput) (*models.Account, error) {
	account, err := s.newAccount(in, models.RoleCustomer)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createAccount(tx, account); err != nil {
			return err
		}
		return s.otp.Issue(ctx, PurposeRegistration, account.ID.String(), account.ContactAddress(), s.cfg.OTPTTL)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("customer registered", "account_id", account.ID)
	return account, nil
}

// VerifyRegistration consumes the registration code, marks the account
// verified and opens a session.
func (s *AuthService) VerifyRegistration(ctx context.Context, email, code string) (*Session, error) {
	account, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account.IsVerified {
		return nil, apperr.ErrAlreadyVerified
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Account{}).Where("id = ?", account.ID).Update("is_verified", true).Error; err != nil {
			return err
		}
		return s.otp.Verify(ctx, PurposeRegistration, account.ID.String(), code)
	})
	if err != nil {
		return nil, err
	}
	account.IsVerified = true

	session, err := s.openSession(account)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, account, fmt.Sprintf("Dear %s, your account is verified successfully.", account.Name))
	return session, nil
}

// Login checks customer credentials. With two-factor enabled it sends a
// login code and returns TwoFactorRequired instead of a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := s.checkCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if account.Role != models.RoleCustomer {
		return nil, apperr.ErrInvalidCredentials
	}
	if !account.IsVerified {
		return nil, apperr.ErrAccountUnverified
	}
	if !account.IsActive {
		return nil, apperr.ErrAccountInactive
	}

	if account.TwoFactorEnabled {
		if err := s.otp.Issue(ctx, PurposeLogin2FA, account.Email, account.ContactAddress(), s.cfg.OTPTTL); err != nil {
			return nil, err
		}
		return &LoginResult{TwoFactorRequired: true}, nil
	}

	session, err := s.openSession(account)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Session: session}, nil
}

// VerifyLogin completes a two-factor customer login.
func (s *AuthService) VerifyLogin(ctx context.Context, email, code string) (*Session, error) {
	email = normalizeEmail(email)
	if err := s.otp.Verify(ctx, PurposeLogin2FA, email, code); err != nil {
		return nil, err
	}

	account, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrAccountNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	if !account.IsActive {
		return nil, apperr.ErrAccountInactive
	}

	session, err := s.openSession(account)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, account, fmt.Sprintf("Dear %s, you have logged in successfully.", account.Name))
	return session, nil
}

// StaffLogin checks back-office credentials. Staff users get a session
// directly; admins must confirm a code sent to their email.
func (s *AuthService) StaffLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := s.checkCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !account.Role.IsStaff() {
		return nil, apperr.ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, apperr.ErrAccountInactive
	}

	if account.Role == models.RoleAdmin {
		if err := s.otp.Issue(ctx, PurposeAdminLogin, account.Email, account.Email, s.cfg.OTPTTL); err != nil {
			return nil, err
		}
		return &LoginResult{TwoFactorRequired: true}, nil
	}

	session, err := s.openSession(account)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Session: session}, nil
}

// VerifyAdminLogin completes an admin login.
func (s *AuthService) VerifyAdminLogin(ctx context.Context, email, code string) (*Session, error) {
	email = normalizeEmail(email)
	if err := s.otp.Verify(ctx, PurposeAdminLogin, email, code); err != nil {
		return nil, err
	}

	account, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrAccountNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	if account.Role != models.RoleAdmin {
		return nil, apperr.ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, apperr.ErrAccountInactive
	}

	return s.openSession(account)
}

// RequestEnableTwoFactor sends the activation code. The flag flips only
// after ConfirmEnableTwoFactor.
func (s *AuthService) RequestEnableTwoFactor(ctx context.Context, accountID uuid.UUID) error {
	account, err := s.findByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.TwoFactorEnabled {
		return apperr.WithMessage(apperr.ErrAlreadyInState, "2FA is already enabled")
	}

	return s.otp.Issue(ctx, PurposeEnable2FA, account.ID.String(), account.ContactAddress(), s.cfg.OTPTTL)
}

// ConfirmEnableTwoFactor consumes the activation code and enables 2FA.
func (s *AuthService) ConfirmEnableTwoFactor(ctx context.Context, accountID uuid.UUID, code string) error {
	account, err := s.findByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.TwoFactorEnabled {
		return apperr.WithMessage(apperr.ErrAlreadyInState, "2FA is already enabled")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Account{}).Where("id = ?", account.ID).Update("two_factor_enabled", true).Error; err != nil {
			return err
		}
		return s.otp.Verify(ctx, PurposeEnable2FA, account.ID.String(), code)
	})
	if err != nil {
		return err
	}

	s.notify(ctx, account, fmt.Sprintf("Dear %s, two-factor authentication has been enabled for your account.", account.Name))
	return nil
}

// DisableTwoFactor turns 2FA off without a second factor.
func (s *AuthService) DisableTwoFactor(ctx context.Context, accountID uuid.UUID) error {
	account, err := s.findByID(ctx, accountID)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND two_factor_enabled = ?", account.ID, true).
		Update("two_factor_enabled", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.WithMessage(apperr.ErrAlreadyInState, "2FA is already disabled")
	}

	s.notify(ctx, account, fmt.Sprintf("Dear %s, two-factor authentication has been disabled for your account.", account.Name))
	return nil
}

// RequestPasswordReset sends a reset code to the account's contact channel.
// Unknown and deactivated emails get no code but the same nil result, so
// the endpoint does not reveal which emails are registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.findByEmail(ctx, email)
	if errors.Is(err, apperr.ErrAccountNotFound) {
		slog.Info("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}
	if !account.IsActive {
		slog.Info("password reset requested for deactivated account", "account_id", account.ID)
		return nil
	}

	return s.otp.Issue(ctx, PurposePasswordReset, account.Email, account.ContactAddress(), s.cfg.PasswordResetTTL)
}

// ResetPassword consumes the reset code and replaces the credential hash.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperr.ErrWeakPassword
	}

	account, err := s.findByEmail(ctx, email)
	if errors.Is(err, apperr.ErrAccountNotFound) {
		return apperr.ErrInvalidCredentials
	}
	if err != nil {
		return err
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Account{}).Where("id = ?", account.ID).Update("password_hash", hash).Error; err != nil {
			return err
		}
		return s.otp.Verify(ctx, PurposePasswordReset, account.Email, code)
	})
	if err != nil {
		return err
	}

	s.notify(ctx, account, fmt.Sprintf("Dear %s, your password has been reset successfully.", account.Name))
	return nil
}

// CreateStaff lets an admin create a verified back-office account. The
// account is rolled back when its creation notice cannot be delivered.
func (s *AuthService) CreateStaff(ctx context.Context, actor models.Actor, in RegisterInput) (*models.Account, error) {
	if !actor.Can(models.CapManageAccounts) {
		return nil, apperr.ErrForbidden
	}

	account, err := s.newAccount(in, models.RoleStaff)
	if err != nil {
		return nil, err
	}
	account.IsVerified = true

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createAccount(tx, account); err != nil {
			return err
		}
		msg := fmt.Sprintf("Dear %s, your staff account has been created successfully by admin.", account.Name)
		if err := s.notifier.Send(ctx, account.ContactAddress(), msg); err != nil {
			return apperr.Wrap(apperr.ErrNotificationFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("staff account created", "account_id", account.ID, "by", actor.ID)
	return account, nil
}

// SetActive activates or deactivates a non-admin account.
func (s *AuthService) SetActive(ctx context.Context, actor models.Actor, accountID uuid.UUID, active bool) (*models.Account, error) {
	if !actor.Can(models.CapManageAccounts) {
		return nil, apperr.ErrForbidden
	}

	account, err := s.findByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Role == models.RoleAdmin {
		return nil, apperr.WithMessage(apperr.ErrForbidden, "Cannot change activation of an admin account")
	}

	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND is_active = ?", account.ID, !active).
		Update("is_active", active)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if active {
			return nil, apperr.WithMessage(apperr.ErrAlreadyInState, "Account already active")
		}
		return nil, apperr.WithMessage(apperr.ErrAlreadyInState, "Account already deactivated")
	}
	account.IsActive = active

	state := "deactivated"
	if active {
		state = "activated"
	}
	s.notify(ctx, account, fmt.Sprintf("Dear %s, your account has been %s.", account.Name, state))
	return account, nil
}

// EnsureAdmin creates an admin account, or promotes the existing account
// with the same email to a verified, active admin. created reports which.
func (s *AuthService) EnsureAdmin(ctx context.Context, in RegisterInput) (account *models.Account, created bool, err error) {
	account, err = s.findByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, apperr.ErrAccountNotFound):
		account, err = s.newAccount(in, models.RoleAdmin)
		if err != nil {
			return nil, false, err
		}
		account.IsVerified = true
		if err := createAccount(s.db.WithContext(ctx), account); err != nil {
			return nil, false, err
		}
		return account, true, nil
	case err != nil:
		return nil, false, err
	}

	err = s.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", account.ID).Updates(map[string]any{
		"role":        models.RoleAdmin,
		"is_verified": true,
		"is_active":   true,
	}).Error
	if err != nil {
		return nil, false, err
	}
	account.Role = models.RoleAdmin
	account.IsVerified = true
	account.IsActive = true
	return account, false, nil
}

// Profile returns the account.
func (s *AuthService) Profile(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	return s.findByID(ctx, accountID)
}

// IsActive reports whether the account exists and is active.
func (s *AuthService) IsActive(ctx context.Context, accountID uuid.UUID) (bool, error) {
	var active []bool
	err := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", accountID).
		Limit(1).
		Pluck("is_active", &active).Error
	if err != nil {
		return false, err
	}
	return len(active) == 1 && active[0], nil
}

func (s *AuthService) newAccount(in RegisterInput, role models.Role) (*models.Account, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	return &models.Account{
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}, nil
}

func hashPassword(password string) (string, error) {
	hash, err := utils.HashPassword(password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return "", apperr.WithMessage(apperr.ErrWeakPassword, "Password must be at most 72 bytes")
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func createAccount(tx *gorm.DB, account *models.Account) error {
	var count int64
	if err := tx.Model(&models.Account{}).Where("email = ?", account.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.ErrAccountExists
	}

	if err := tx.Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.ErrAccountExists
		}
		return err
	}
	return nil
}

func (s *AuthService) checkCredentials(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrAccountNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(account.PasswordHash, password) {
		return nil, apperr.ErrInvalidCredentials
	}
	return account, nil
}

func (s *AuthService) openSession(account *models.Account) (*Session, error) {
	token, err := s.sessions.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &Session{Token: token, Account: account}, nil
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (s *AuthService) findByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// notify sends a confirmation message; failures are logged only.
func (s *AuthService) notify(ctx context.Context, account *models.Account, message string) {
	if err := s.notifier.Send(ctx, account.ContactAddress(), message); err != nil {
		slog.Warn("account notification failed", "account_id", account.ID, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
