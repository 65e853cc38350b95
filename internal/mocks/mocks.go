package mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/familychat/auth-backend/internal/core/domain/account"
	"github.com/familychat/auth-backend/internal/core/ports"
	"github.com/google/uuid"
)

// AccountRepositoryMock is a lightweight mock for AccountRepository
type AccountRepositoryMock struct {
	UpsertOTPFn    func(ctx context.Context, id uuid.UUID, email, code string, expiresAt time.Time) error
	ConsumeOTPFn   func(ctx context.Context, email, code string, now time.Time) (bool, error)
	SetPhoneOnceFn func(ctx context.Context, email, phone string) error
	GetByEmailFn   func(ctx context.Context, email string) (*account.Account, error)
}

var _ ports.AccountRepository = (*AccountRepositoryMock)(nil)

func (m *AccountRepositoryMock) UpsertOTP(ctx context.Context, id uuid.UUID, email, code string, expiresAt time.Time) error {
	if m.UpsertOTPFn != nil {
		return m.UpsertOTPFn(ctx, id, email, code, expiresAt)
	}
	return nil
}
func (m *AccountRepositoryMock) ConsumeOTP(ctx context.Context, email, code string, now time.Time) (bool, error) {
	if m.ConsumeOTPFn != nil {
		return m.ConsumeOTPFn(ctx, email, code, now)
	}
	return false, nil
}
func (m *AccountRepositoryMock) SetPhoneOnce(ctx context.Context, email, phone string) error {
	if m.SetPhoneOnceFn != nil {
		return m.SetPhoneOnceFn(ctx, email, phone)
	}
	return nil
}
func (m *AccountRepositoryMock) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	return nil, account.ErrAccountNotFound
}

// NotifierMock records every OTP it is asked to deliver.
type NotifierMock struct {
	SendOTPFn func(ctx context.Context, email, code string, ttl time.Duration) error
	Sent      []SentOTP
}

type SentOTP struct {
	Email string
	Code  string
	TTL   time.Duration
}

var _ ports.Notifier = (*NotifierMock)(nil)

func (m *NotifierMock) SendOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	m.Sent = append(m.Sent, SentOTP{Email: email, Code: code, TTL: ttl})
	if m.SendOTPFn != nil {
		return m.SendOTPFn(ctx, email, code, ttl)
	}
	return nil
}

// LastCode returns the most recent code sent to email.
func (m *NotifierMock) LastCode(email string) (string, error) {
	for i := len(m.Sent) - 1; i >= 0; i-- {
		if m.Sent[i].Email == email {
			return m.Sent[i].Code, nil
		}
	}
	return "", fmt.Errorf("no otp sent to %s", email)
}

// AccountServiceMock is a lightweight mock for AccountService
type AccountServiceMock struct {
	RequestOTPFn func(ctx context.Context, email string) error
	VerifyOTPFn  func(ctx context.Context, email, code string) error
	LinkPhoneFn  func(ctx context.Context, email, phone string) (string, error)
}

var _ ports.AccountService = (*AccountServiceMock)(nil)

func (m *AccountServiceMock) RequestOTP(ctx context.Context, email string) error {
	if m.RequestOTPFn != nil {
		return m.RequestOTPFn(ctx, email)
	}
	return nil
}
func (m *AccountServiceMock) VerifyOTP(ctx context.Context, email, code string) error {
	if m.VerifyOTPFn != nil {
		return m.VerifyOTPFn(ctx, email, code)
	}
	return nil
}
func (m *AccountServiceMock) LinkPhone(ctx context.Context, email, phone string) (string, error) {
	if m.LinkPhoneFn != nil {
		return m.LinkPhoneFn(ctx, email, phone)
	}
	return phone, nil
}

// HealthCheckerMock reports Err from every check.
type HealthCheckerMock struct {
	NameValue string
	Err       error
}

func (m *HealthCheckerMock) Name() string                { return m.NameValue }
func (m *HealthCheckerMock) Check(context.Context) error { return m.Err }
