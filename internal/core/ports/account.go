package ports

import (
	"context"
	"time"

	"github.com/familychat/auth-backend/internal/core/domain/account"
	"github.com/google/uuid"
)

// AccountRepository is the Account Store. Every mutating method must be a
// single atomic operation on the backing store; the service holds no locks.
type AccountRepository interface {
	// UpsertOTP creates the account for email if absent (using id) and
	// unconditionally overwrites its code and expiry.
	UpsertOTP(ctx context.Context, id uuid.UUID, email, code string, expiresAt time.Time) error
	// ConsumeOTP clears the code and stamps email_verified_at if unset, but
	// only when email, code and expiry > now all match. It reports whether a
	// code was consumed.
	ConsumeOTP(ctx context.Context, email, code string, now time.Time) (bool, error)
	// SetPhoneOnce assigns phone only if the account has none. It returns
	// account.ErrPhoneImmutable, account.ErrPhoneTaken or
	// account.ErrAccountNotFound when nothing was written.
	SetPhoneOnce(ctx context.Context, email, phone string) error
	GetByEmail(ctx context.Context, email string) (*account.Account, error)
}

// AccountService defines the OTP and identity operations.
type AccountService interface {
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
	LinkPhone(ctx context.Context, email, phone string) (string, error)
}
