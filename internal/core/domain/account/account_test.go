package account_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/familychat/auth-backend/internal/core/domain/account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIndianPhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"9876543210", "+919876543210", true},
		{"919876543210", "+919876543210", true},
		{"+91 98765-43210", "+919876543210", true},
		{"8876543210", "+918876543210", true},
		{"6000000000", "+916000000000", true},
		{"5876543210", "", false},
		{"987654321", "", false},
		{"98765432100", "", false},
		{"915876543210", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := account.NormalizeIndianPhone(tc.in)
		if !tc.ok {
			require.ErrorIs(t, err, account.ErrInvalidPhone, tc.in)
			require.ErrorIs(t, err, account.ErrValidation, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNormalizeEmail(t *testing.T) {
	got, err := account.NormalizeEmail("  Alice@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got)

	for _, bad := range []string{"", "alice", "alice@example", "a b@example.com", "@example.com", "alice@@example.com"} {
		_, err := account.NormalizeEmail(bad)
		assert.ErrorIs(t, err, account.ErrInvalidEmail, bad)
	}
}

func TestNormalizeEmail_LengthCap(t *testing.T) {
	domain := "@example.com"
	longest := strings.Repeat("a", 254-len(domain)) + domain
	got, err := account.NormalizeEmail(" " + longest + " ")
	require.NoError(t, err)
	assert.Equal(t, longest, got)

	_, err = account.NormalizeEmail("a" + longest)
	assert.ErrorIs(t, err, account.ErrInvalidEmail)
	assert.ErrorIs(t, err, account.ErrValidation)
}

func TestNormalizeOTPCode(t *testing.T) {
	code, ok := account.NormalizeOTPCode(" 123456 ")
	require.True(t, ok)
	assert.Equal(t, "123456", code)

	for _, bad := range []string{"", "12345", "1234567", "12a456", "１２３４５６"} {
		_, ok := account.NormalizeOTPCode(bad)
		assert.False(t, ok, bad)
	}
}

func TestCode_UnmarshalStringOrNumber(t *testing.T) {
	var req account.VerifyOTPRequest
	require.NoError(t, json.Unmarshal([]byte(`{"email":"a@b.co","otp":482913}`), &req))
	assert.Equal(t, "482913", req.OTP.String())

	require.NoError(t, json.Unmarshal([]byte(`{"email":"a@b.co","otp":"004821"}`), &req))
	assert.Equal(t, "004821", req.OTP.String())

	require.NoError(t, json.Unmarshal([]byte(`{"email":"a@b.co","otp":null}`), &req))
	assert.Equal(t, "", req.OTP.String())

	assert.Error(t, json.Unmarshal([]byte(`{"otp":true}`), &req))
}

func TestErrorKinds(t *testing.T) {
	assert.True(t, errors.Is(account.ErrPhoneImmutable, account.ErrConflict))
	assert.True(t, errors.Is(account.ErrPhoneTaken, account.ErrConflict))
	assert.False(t, errors.Is(account.ErrPhoneTaken, account.ErrPhoneImmutable))
	assert.True(t, errors.Is(account.ErrInvalidOrExpiredOTP, account.ErrAuthentication))
	assert.True(t, errors.Is(account.ErrStorage, account.ErrDependency))
	assert.True(t, errors.Is(account.ErrNotification, account.ErrDependency))
	assert.False(t, errors.Is(account.ErrNotification, account.ErrStorage))
}

func TestAccountPredicates(t *testing.T) {
	now := time.Now()
	phone := "+919876543210"
	code := "123456"
	expiry := now.Add(time.Minute)
	a := &account.Account{Email: "a@b.co", OTPCode: &code, OTPExpiry: &expiry}

	assert.True(t, a.HasOutstandingOTP(now))
	assert.False(t, a.HasOutstandingOTP(expiry))
	assert.False(t, a.IsVerified())
	assert.False(t, a.HasPhone())

	a.EmailVerifiedAt = &now
	a.Phone = &phone
	assert.True(t, a.IsVerified())
	assert.True(t, a.HasPhone())
}
