package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/familychat/auth-backend/internal/core/domain/account"
	"github.com/familychat/auth-backend/internal/core/ports"
	"github.com/google/uuid"
)

// MemoryAccountRepository is an in-process AccountRepository with the same
// conditional-write semantics as the SQL store. The mutex stands in for the
// database's row-level atomicity.
type MemoryAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*account.Account
	phones   map[string]string
	// Err, when set, is returned by every method.
	Err error
}

var _ ports.AccountRepository = (*MemoryAccountRepository)(nil)

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[string]*account.Account),
		phones:   make(map[string]string),
	}
}

func (r *MemoryAccountRepository) UpsertOTP(_ context.Context, id uuid.UUID, email, code string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	a, ok := r.accounts[email]
	if !ok {
		a = &account.Account{ID: id, Email: email, CreatedAt: time.Now()}
		r.accounts[email] = a
	}
	c, e := code, expiresAt
	a.OTPCode, a.OTPExpiry = &c, &e
	a.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryAccountRepository) ConsumeOTP(_ context.Context, email, code string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	a, ok := r.accounts[email]
	if !ok || a.OTPCode == nil || *a.OTPCode != code || a.OTPExpiry == nil || !a.OTPExpiry.After(now) {
		return false, nil
	}
	a.OTPCode = nil
	if a.EmailVerifiedAt == nil {
		v := now
		a.EmailVerifiedAt = &v
	}
	return true, nil
}

func (r *MemoryAccountRepository) SetPhoneOnce(_ context.Context, email, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	a, ok := r.accounts[email]
	if !ok {
		return account.ErrAccountNotFound
	}
	if a.Phone != nil {
		return account.ErrPhoneImmutable
	}
	if _, taken := r.phones[phone]; taken {
		return account.ErrPhoneTaken
	}
	p := phone
	a.Phone = &p
	r.phones[phone] = email
	return nil
}

func (r *MemoryAccountRepository) GetByEmail(_ context.Context, email string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	a, ok := r.accounts[email]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}
