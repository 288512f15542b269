package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/apperr"
	"github.com/example/storefront/internal/testutil"
)

func TestOTPIssueAndVerify(t *testing.T) {
	store, _ := testutil.NewRedisStore(t)
	notifier := &testutil.Notifier{}
	otp := NewOTPManager(store, notifier)
	ctx := context.Background()

	require.NoError(t, otp.Issue(ctx, PurposeRegistration, "acc-1", "+251900000000", 5*time.Minute))

	last := notifier.Last()
	assert.Equal(t, "+251900000000", last.Destination)
	assert.Contains(t, last.Body, "registration code")
	assert.Contains(t, last.Body, "5 minutes")

	code := notifier.LastCode(t, "+251900000000")
	assert.Len(t, code, 6)

	require.NoError(t, otp.Verify(ctx, PurposeRegistration, "acc-1", code))
	assert.ErrorIs(t, otp.Verify(ctx, PurposeRegistration, "acc-1", code), apperr.ErrCodeExpiredOrMissing)
}

func TestOTPMismatchDoesNotConsume(t *testing.T) {
	store, _ := testutil.NewRedisStore(t)
	notifier := &testutil.Notifier{}
	otp := NewOTPManager(store, notifier)
	ctx := context.Background()

	require.NoError(t, otp.Issue(ctx, PurposeLogin2FA, "a@b.com", "a@b.com", time.Minute))
	code := notifier.LastCode(t, "a@b.com")

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, otp.Verify(ctx, PurposeLogin2FA, "a@b.com", wrong), apperr.ErrCodeMismatch)
	assert.NoError(t, otp.Verify(ctx, PurposeLogin2FA, "a@b.com", code))
}

func TestOTPExpiry(t *testing.T) {
	store, mr := testutil.NewRedisStore(t)
	notifier := &testutil.Notifier{}
	otp := NewOTPManager(store, notifier)
	ctx := context.Background()

	require.NoError(t, otp.Issue(ctx, PurposePasswordReset, "a@b.com", "a@b.com", 10*time.Minute))
	code := notifier.LastCode(t, "a@b.com")

	mr.FastForward(10*time.Minute + time.Second)

	assert.ErrorIs(t, otp.Verify(ctx, PurposePasswordReset, "a@b.com", code), apperr.ErrCodeExpiredOrMissing)
}

func TestOTPReissueReplacesCode(t *testing.T) {
	store, mr := testutil.NewRedisStore(t)
	notifier := &testutil.Notifier{}
	otp := NewOTPManager(store, notifier)
	ctx := context.Background()

	require.NoError(t, otp.Issue(ctx, PurposeEnable2FA, "acc-1", "a@b.com", time.Minute))
	require.NoError(t, otp.Issue(ctx, PurposeEnable2FA, "acc-1", "a@b.com", time.Minute))

	stored, err := mr.Get(otpKey(PurposeEnable2FA, "acc-1"))
	require.NoError(t, err)
	assert.Equal(t, notifier.LastCode(t, "a@b.com"), stored)
}

func TestOTPPurposesAreIsolated(t *testing.T) {
	store, _ := testutil.NewRedisStore(t)
	notifier := &testutil.Notifier{}
	otp := NewOTPManager(store, notifier)
	ctx := context.Background()

	require.NoError(t, otp.Issue(ctx, PurposeLogin2FA, "a@b.com", "a@b.com", time.Minute))
	code := notifier.LastCode(t, "a@b.com")

	assert.ErrorIs(t, otp.Verify(ctx, PurposePasswordReset, "a@b.com", code), apperr.ErrCodeExpiredOrMissing)
	assert.NoError(t, otp.Verify(ctx, PurposeLogin2FA, "a@b.com", code))
}

func TestOTPDeliveryFailureDiscardsCode(t *testing.T) {
	store, mr := testutil.NewRedisStore(t)
	notifier := &testutil.Notifier{}
	notifier.Fail(true)
	otp := NewOTPManager(store, notifier)

	err := otp.Issue(context.Background(), PurposeRegistration, "acc-1", "a@b.com", time.Minute)

	assert.ErrorIs(t, err, apperr.ErrNotificationFailed)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.False(t, mr.Exists(otpKey(PurposeRegistration, "acc-1")))
}

func TestOTPConcurrentVerifySingleWinner(t *testing.T) {
	store, _ := testutil.NewRedisStore(t)
	notifier := &testutil.Notifier{}
	otp := NewOTPManager(store, notifier)
	ctx := context.Background()

	require.NoError(t, otp.Issue(ctx, PurposeAdminLogin, "admin@b.com", "admin@b.com", time.Minute))
	code := notifier.LastCode(t, "admin@b.com")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if otp.Verify(ctx, PurposeAdminLogin, "admin@b.com", code) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestGenerateCodeIsSixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
	}
}
