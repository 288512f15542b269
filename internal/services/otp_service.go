package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/cache"
)

// Purpose namespaces one-time passcodes so flows for the same principal
// never share a key.
type Purpose string

const (
	PurposeRegistration  Purpose = "registration"
	PurposeLogin2FA      Purpose = "login-2fa"
	PurposeEnable2FA     Purpose = "2fa-enable"
	PurposePasswordReset Purpose = "password-reset"
	PurposeAdminLogin    Purpose = "admin-login"
)

const otpDigits = 6

var otpUpperBound = big.NewInt(1_000_000)

// OTPManager issues and verifies one-time passcodes.
//
// Per (purpose, principal) key the code moves NONE -> ISSUED on Issue,
// ISSUED -> NONE on a matching Verify or on TTL expiry, and stays ISSUED
// on a mismatching Verify.
type OTPManager struct {
	store    cache.SecretStore
	notifier Notifier
}

// NewOTPManager constructs an OTPManager.
func NewOTPManager(store cache.SecretStore, notifier Notifier) *OTPManager {
	return &OTPManager{store: store, notifier: notifier}
}

func otpKey(purpose Purpose, principal string) string {
	return fmt.Sprintf("otp:%s:%s", purpose, principal)
}

// Issue stores a fresh code for (purpose, principal), replacing any live
// one, and sends it to destination. When delivery fails the code is
// removed and ErrNotificationFailed is returned.
func (m *OTPManager) Issue(ctx context.Context, purpose Purpose, principal, destination string, ttl time.Duration) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	key := otpKey(purpose, principal)
	if err := m.store.Set(ctx, key, code, ttl); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := m.notifier.Send(ctx, destination, otpMessage(purpose, code, ttl)); err != nil {
		if _, delErr := m.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			slog.Error("failed to discard undelivered otp", "purpose", purpose, "error", delErr)
		}
		slog.Warn("otp delivery failed", "purpose", purpose, "error", err)
		return apperr.Wrap(apperr.ErrNotificationFailed, err)
	}

	return nil
}

// Verify checks code against the live code for (purpose, principal) and
// consumes it on match.
func (m *OTPManager) Verify(ctx context.Context, purpose Purpose, principal, code string) error {
	key := otpKey(purpose, principal)

	stored, err := m.store.Get(ctx, key)
	if errors.Is(err, cache.ErrMiss) {
		return apperr.ErrCodeExpiredOrMissing
	}
	if err != nil {
		return fmt.Errorf("load otp: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return apperr.ErrCodeMismatch
	}

	consumed, err := m.store.Delete(ctx, key)
	if err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	if !consumed {
		// expired or taken by a concurrent verify between Get and Delete
		return apperr.ErrCodeExpiredOrMissing
	}

	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpUpperBound)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

func otpMessage(purpose Purpose, code string, ttl time.Duration) string {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	var subject string
	switch purpose {
	case PurposeRegistration:
		subject = "registration"
	case PurposeLogin2FA:
		subject = "login"
	case PurposeEnable2FA:
		subject = "2FA activation"
	case PurposePasswordReset:
		subject = "password reset"
	case PurposeAdminLogin:
		subject = "admin login verification"
	default:
		subject = "verification"
	}

	return fmt.Sprintf("Your %s code is %s. It expires in %d minutes.", subject, code, minutes)
}
