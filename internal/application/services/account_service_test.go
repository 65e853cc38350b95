package services_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	impl "github.com/familychat/auth-backend/internal/application/services"
	"github.com/familychat/auth-backend/internal/core/domain/account"
	"github.com/familychat/auth-backend/internal/mocks"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time           { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*impl.AccountService, *mocks.MemoryAccountRepository, *mocks.NotifierMock, *fakeClock) {
	t.Helper()
	repo := mocks.NewMemoryAccountRepository()
	notifier := &mocks.NotifierMock{}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	svc := impl.NewAccountService(repo, notifier, &impl.AccountServiceConfig{Now: clock.Now}, logger)
	return svc, repo, notifier, clock
}

func TestGenerateOTPCode_Range(t *testing.T) {
	for i := 0; i < 2000; i++ {
		code, err := impl.GenerateOTPCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
	}
}

func TestRequestThenVerify_SucceedsExactlyOnce(t *testing.T) {
	svc, _, notifier, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, "user@example.com"))
	code, err := notifier.LastCode("user@example.com")
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, notifier.Sent[0].TTL)

	require.NoError(t, svc.VerifyOTP(ctx, "user@example.com", code))
	err = svc.VerifyOTP(ctx, "user@example.com", code)
	require.ErrorIs(t, err, account.ErrInvalidOrExpiredOTP)
}

func TestVerify_ExpiredCodeFails(t *testing.T) {
	svc, _, notifier, clock := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, "user@example.com"))
	code, _ := notifier.LastCode("user@example.com")

	clock.Advance(5 * time.Minute)
	require.ErrorIs(t, svc.VerifyOTP(ctx, "user@example.com", code), account.ErrInvalidOrExpiredOTP)
}

func TestVerify_JustBeforeExpirySucceeds(t *testing.T) {
	svc, _, notifier, clock := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, "user@example.com"))
	code, _ := notifier.LastCode("user@example.com")

	clock.Advance(5*time.Minute - time.Second)
	require.NoError(t, svc.VerifyOTP(ctx, "user@example.com", code))
}

func TestRequestTwice_InvalidatesFirstCode(t *testing.T) {
	ctx := context.Background()
	codes := []string{"111111", "222222"}
	i := 0
	repo := mocks.NewMemoryAccountRepository()
	notifier := &mocks.NotifierMock{}
	svc := impl.NewAccountService(repo, notifier, &impl.AccountServiceConfig{
		GenerateCode: func() (string, error) { c := codes[i]; i++; return c, nil },
	}, nil)

	require.NoError(t, svc.RequestOTP(ctx, "user@example.com"))
	require.NoError(t, svc.RequestOTP(ctx, "user@example.com"))

	require.ErrorIs(t, svc.VerifyOTP(ctx, "user@example.com", "111111"), account.ErrInvalidOrExpiredOTP)
	require.NoError(t, svc.VerifyOTP(ctx, "user@example.com", "222222"))
}

func TestVerify_NeverRequestedAndWrongCodeCollapse(t *testing.T) {
	svc, _, notifier, _ := newTestService(t)
	ctx := context.Background()

	require.ErrorIs(t, svc.VerifyOTP(ctx, "ghost@example.com", "123456"), account.ErrInvalidOrExpiredOTP)

	require.NoError(t, svc.RequestOTP(ctx, "user@example.com"))
	code, _ := notifier.LastCode("user@example.com")
	wrong := "100000"
	if code == wrong {
		wrong = "100001"
	}
	require.ErrorIs(t, svc.VerifyOTP(ctx, "user@example.com", wrong), account.ErrInvalidOrExpiredOTP)
	require.ErrorIs(t, svc.VerifyOTP(ctx, "user@example.com", "12ab56"), account.ErrInvalidOrExpiredOTP)
	// the real code is still usable after failed attempts
	require.NoError(t, svc.VerifyOTP(ctx, "user@example.com", code))
}

func TestVerify_EmailVerifiedAtIsMonotonic(t *testing.T) {
	svc, repo, notifier, clock := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, "user@example.com"))
	code, _ := notifier.LastCode("user@example.com")
	require.NoError(t, svc.VerifyOTP(ctx, "user@example.com", code))

	first, err := repo.GetByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	require.NotNil(t, first.EmailVerifiedAt)
	firstVerified := *first.EmailVerifiedAt

	clock.Advance(time.Hour)
	require.NoError(t, svc.RequestOTP(ctx, "user@example.com"))
	code, _ = notifier.LastCode("user@example.com")
	require.NoError(t, svc.VerifyOTP(ctx, "user@example.com", code))

	second, err := repo.GetByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	require.True(t, firstVerified.Equal(*second.EmailVerifiedAt))
	require.Nil(t, second.OTPCode)
	require.NotNil(t, second.OTPExpiry)
}

func TestRequestOTP_PreservesPhoneAndVerification(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, "user@example.com"))
	code, _ := notifier.LastCode("user@example.com")
	require.NoError(t, svc.VerifyOTP(ctx, "user@example.com", code))
	_, err := svc.LinkPhone(ctx, "user@example.com", "9876543210")
	require.NoError(t, err)

	require.NoError(t, svc.RequestOTP(ctx, "user@example.com"))
	a, err := repo.GetByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	require.NotNil(t, a.Phone)
	assert.Equal(t, "+919876543210", *a.Phone)
	assert.True(t, a.IsVerified())
	assert.NotNil(t, a.OTPCode)
}

func TestRequestOTP_InvalidEmailNeverTouchesStore(t *testing.T) {
	called := false
	repo := &mocks.AccountRepositoryMock{UpsertOTPFn: func(ctx context.Context, id uuid.UUID, email, code string, expiresAt time.Time) error {
		called = true
		return nil
	}}
	svc := impl.NewAccountService(repo, &mocks.NotifierMock{}, nil, nil)

	for _, bad := range []string{"", "not-an-email", "a@b"} {
		err := svc.RequestOTP(context.Background(), bad)
		require.ErrorIs(t, err, account.ErrInvalidEmail)
		require.ErrorIs(t, err, account.ErrValidation)
	}
	require.False(t, called)
}

func TestRequestOTP_StorageFailure(t *testing.T) {
	repo := &mocks.AccountRepositoryMock{UpsertOTPFn: func(ctx context.Context, id uuid.UUID, email, code string, expiresAt time.Time) error {
		return errors.New("connection refused")
	}}
	notifier := &mocks.NotifierMock{}
	svc := impl.NewAccountService(repo, notifier, nil, nil)

	err := svc.RequestOTP(context.Background(), "user@example.com")
	require.ErrorIs(t, err, account.ErrStorage)
	require.NotErrorIs(t, err, account.ErrNotification)
	require.Empty(t, notifier.Sent, "no mail is sent when the write fails")
}

func TestRequestOTP_NotificationFailureKeepsCodeValid(t *testing.T) {
	repo := mocks.NewMemoryAccountRepository()
	notifier := &mocks.NotifierMock{SendOTPFn: func(ctx context.Context, email, code string, ttl time.Duration) error {
		return errors.New("smtp: 535 authentication failed")
	}}
	svc := impl.NewAccountService(repo, notifier, nil, nil)
	ctx := context.Background()

	err := svc.RequestOTP(ctx, "user@example.com")
	require.ErrorIs(t, err, account.ErrNotification)
	require.ErrorIs(t, err, account.ErrDependency)
	require.NotErrorIs(t, err, account.ErrStorage)

	code, err := notifier.LastCode("user@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.VerifyOTP(ctx, "user@example.com", code))
}

func TestRequestOTP_NormalizesEmail(t *testing.T) {
	svc, repo, notifier, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, " User@Example.com "))
	_, err := repo.GetByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	code, _ := notifier.LastCode("user@example.com")
	require.NoError(t, svc.VerifyOTP(ctx, "USER@example.com", code))
}

func TestVerifyOTP_ValidationErrors(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	require.ErrorIs(t, svc.VerifyOTP(ctx, "", "123456"), account.ErrMissingFields)
	require.ErrorIs(t, svc.VerifyOTP(ctx, "user@example.com", ""), account.ErrMissingFields)
	require.ErrorIs(t, svc.VerifyOTP(ctx, "bogus", "123456"), account.ErrInvalidEmail)
}

func TestVerifyOTP_StorageFailure(t *testing.T) {
	repo := &mocks.AccountRepositoryMock{ConsumeOTPFn: func(ctx context.Context, email, code string, now time.Time) (bool, error) {
		return false, errors.New("timeout")
	}}
	svc := impl.NewAccountService(repo, &mocks.NotifierMock{}, nil, nil)
	require.ErrorIs(t, svc.VerifyOTP(context.Background(), "user@example.com", "123456"), account.ErrStorage)
}

func TestLinkPhone_Normalization(t *testing.T) {
	cases := map[string]string{
		"9876543210":   "+919876543210",
		"919876543210": "+919876543210",
		"8876543210":   "+918876543210",
	}
	for in, want := range cases {
		svc, _, _, _ := newTestService(t)
		ctx := context.Background()
		require.NoError(t, svc.RequestOTP(ctx, "user@example.com"))

		got, err := svc.LinkPhone(ctx, "user@example.com", in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}

func TestLinkPhone_InvalidShapeNeverTouchesStore(t *testing.T) {
	called := false
	repo := &mocks.AccountRepositoryMock{SetPhoneOnceFn: func(ctx context.Context, email, phone string) error {
		called = true
		return nil
	}}
	svc := impl.NewAccountService(repo, &mocks.NotifierMock{}, nil, nil)

	_, err := svc.LinkPhone(context.Background(), "user@example.com", "5876543210")
	require.ErrorIs(t, err, account.ErrInvalidPhone)
	_, err = svc.LinkPhone(context.Background(), "user@example.com", "")
	require.ErrorIs(t, err, account.ErrMissingFields)
	_, err = svc.LinkPhone(context.Background(), "nope", "9876543210")
	require.ErrorIs(t, err, account.ErrInvalidEmail)
	require.False(t, called)
}

func TestLinkPhone_SecondCallIsImmutable(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.RequestOTP(ctx, "user@example.com"))

	_, err := svc.LinkPhone(ctx, "user@example.com", "9876543210")
	require.NoError(t, err)

	_, err = svc.LinkPhone(ctx, "user@example.com", "9123456789")
	require.ErrorIs(t, err, account.ErrPhoneImmutable)
	require.NotErrorIs(t, err, account.ErrPhoneTaken)

	a, _ := repo.GetByEmail(ctx, "user@example.com")
	require.Equal(t, "+919876543210", *a.Phone)
}

func TestLinkPhone_TakenByAnotherAccount(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.RequestOTP(ctx, "first@example.com"))
	require.NoError(t, svc.RequestOTP(ctx, "second@example.com"))

	_, err := svc.LinkPhone(ctx, "first@example.com", "9876543210")
	require.NoError(t, err)

	_, err = svc.LinkPhone(ctx, "second@example.com", "+91 98765 43210")
	require.ErrorIs(t, err, account.ErrPhoneTaken)
	require.ErrorIs(t, err, account.ErrConflict)

	first, _ := repo.GetByEmail(ctx, "first@example.com")
	require.Equal(t, "+919876543210", *first.Phone)
	second, _ := repo.GetByEmail(ctx, "second@example.com")
	require.Nil(t, second.Phone)

	// the second account can still link a different number
	_, err = svc.LinkPhone(ctx, "second@example.com", "9123456789")
	require.NoError(t, err)
}

func TestLinkPhone_UnknownAccount(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.LinkPhone(context.Background(), "ghost@example.com", "9876543210")
	require.ErrorIs(t, err, account.ErrAccountNotFound)
}

func TestLinkPhone_StorageFailure(t *testing.T) {
	repo := &mocks.AccountRepositoryMock{SetPhoneOnceFn: func(ctx context.Context, email, phone string) error {
		return errors.New("pq: terminating connection")
	}}
	svc := impl.NewAccountService(repo, &mocks.NotifierMock{}, nil, nil)
	_, err := svc.LinkPhone(context.Background(), "user@example.com", "9876543210")
	require.ErrorIs(t, err, account.ErrStorage)
	require.NotErrorIs(t, err, account.ErrConflict)
}

func TestLinkPhone_ConcurrentSameEmailExactlyOneWins(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.RequestOTP(ctx, "user@example.com"))

	phones := []string{"9876543210", "9123456789", "8123456789", "7123456789"}
	errs := make([]error, len(phones))
	var wg sync.WaitGroup
	for i, p := range phones {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			_, errs[i] = svc.LinkPhone(ctx, "user@example.com", p)
		}(i, p)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, account.ErrPhoneImmutable)
	}
	require.Equal(t, 1, wins)
}
