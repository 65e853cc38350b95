package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/familychat/auth-backend/internal/core/domain/account"
	"github.com/familychat/auth-backend/internal/core/ports"
	"github.com/familychat/auth-backend/internal/infrastructure/db"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const (
	pqUniqueViolation = "23505"
	phoneConstraint   = "accounts_phone_key"
)

// AccountRepository implements ports.AccountRepository on Postgres. Atomicity
// of the conditional writes comes from single UPDATE statements and the
// unique constraint on phone.
type AccountRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

func NewAccountRepository(database *db.Database, logger *logrus.Logger) *AccountRepository {
	return &AccountRepository{db: database, logger: logger}
}

var _ ports.AccountRepository = (*AccountRepository)(nil)

// UpsertOTP creates the account or overwrites its outstanding code
func (r *AccountRepository) UpsertOTP(ctx context.Context, id uuid.UUID, email, code string, expiresAt time.Time) error {
	query := `
		INSERT INTO accounts (id, email, otp_code, otp_expiry)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET otp_code = EXCLUDED.otp_code,
		    otp_expiry = EXCLUDED.otp_expiry,
		    updated_at = NOW()`

	if _, err := r.db.DB.ExecContext(ctx, query, id, email, code, expiresAt); err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"email": email}).WithError(err).Error("db: failed to upsert otp")
		}
		return fmt.Errorf("failed to upsert otp: %w", err)
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"email": email}).Debug("db: otp upserted")
	}
	return nil
}

// ConsumeOTP clears a matching, unexpired code in one statement
func (r *AccountRepository) ConsumeOTP(ctx context.Context, email, code string, now time.Time) (bool, error) {
	query := `
		UPDATE accounts
		SET email_verified_at = COALESCE(email_verified_at, $3),
		    otp_code = NULL,
		    updated_at = NOW()
		WHERE email = $1 AND otp_code = $2 AND otp_expiry > $3`

	result, err := r.db.DB.ExecContext(ctx, query, email, code, now)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"email": email}).WithError(err).Error("db: failed to consume otp")
		}
		return false, fmt.Errorf("failed to consume otp: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

// SetPhoneOnce writes phone only while the column is NULL
func (r *AccountRepository) SetPhoneOnce(ctx context.Context, email, phone string) error {
	query := `
		UPDATE accounts
		SET phone = $2, updated_at = NOW()
		WHERE email = $1 AND phone IS NULL`

	result, err := r.db.DB.ExecContext(ctx, query, email, phone)
	if err != nil {
		if isPhoneUniqueViolation(err) {
			if r.logger != nil {
				r.logger.WithFields(logrus.Fields{"email": email}).Debug("db: phone already linked to another account")
			}
			return account.ErrPhoneTaken
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"email": email}).WithError(err).Error("db: failed to set phone")
		}
		return fmt.Errorf("failed to set phone: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 1 {
		return nil
	}

	// Nothing written. This lookup only classifies the refusal; it does not
	// decide whether the write happens.
	var exists bool
	if err := r.db.DB.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`, email); err != nil {
		return fmt.Errorf("failed to check account existence: %w", err)
	}
	if !exists {
		return account.ErrAccountNotFound
	}
	return account.ErrPhoneImmutable
}

// GetByEmail retrieves an account by email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	var a account.Account
	query := `
		SELECT id, email, otp_code, otp_expiry, email_verified_at, phone, created_at, updated_at
		FROM accounts
		WHERE email = $1`

	if err := r.db.DB.GetContext(ctx, &a, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrAccountNotFound
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"email": email}).WithError(err).Error("db: failed to get account by email")
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return &a, nil
}

func isPhoneUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation {
		return false
	}
	// older servers may omit the constraint name; phone is the only unique
	// column this statement can touch
	return pqErr.Constraint == "" || pqErr.Constraint == phoneConstraint
}
