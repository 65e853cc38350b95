package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/familychat/auth-backend/internal/core/domain/account"
	"github.com/familychat/auth-backend/internal/core/ports"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultOTPTTL = 5 * time.Minute

	otpMin   = 100000
	otpRange = 900000 // codes fall in [100000, 999999]
)

// AccountServiceConfig groups tunables for the account service.
type AccountServiceConfig struct {
	OTPTTL time.Duration
	// Now and GenerateCode default to the wall clock and crypto/rand.
	Now          func() time.Time
	GenerateCode func() (string, error)
}

type AccountService struct {
	repo     ports.AccountRepository
	notifier ports.Notifier
	ttl      time.Duration
	now      func() time.Time
	genCode  func() (string, error)
	logger   *logrus.Logger
}

func NewAccountService(repo ports.AccountRepository, notifier ports.Notifier, cfg *AccountServiceConfig, logger *logrus.Logger) *AccountService {
	s := &AccountService{
		repo:     repo,
		notifier: notifier,
		ttl:      defaultOTPTTL,
		now:      time.Now,
		genCode:  GenerateOTPCode,
		logger:   logger,
	}
	if cfg != nil {
		if cfg.OTPTTL > 0 {
			s.ttl = cfg.OTPTTL
		}
		if cfg.Now != nil {
			s.now = cfg.Now
		}
		if cfg.GenerateCode != nil {
			s.genCode = cfg.GenerateCode
		}
	}
	return s
}

var _ ports.AccountService = (*AccountService)(nil)

// GenerateOTPCode returns a uniformly random code in 100000-999999.
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpRange))
	if err != nil {
		return "", fmt.Errorf("failed to read random source: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+otpMin), nil
}

// RequestOTP issues a fresh code for email, replacing any outstanding one,
// and mails it. A notifier failure is reported even though the code stays
// stored and verifiable.
func (s *AccountService) RequestOTP(ctx context.Context, rawEmail string) error {
	email, err := account.NormalizeEmail(rawEmail)
	if err != nil {
		return err
	}

	code, err := s.genCode()
	if err != nil {
		s.logError(err, "request_otp", email, "failed to generate otp")
		return fmt.Errorf("%w: %w", account.ErrDependency, err)
	}

	expiresAt := s.now().Add(s.ttl)
	if err := s.repo.UpsertOTP(ctx, uuid.New(), email, code, expiresAt); err != nil {
		s.logError(err, "request_otp", email, "failed to store otp")
		return fmt.Errorf("%w: %w", account.ErrStorage, err)
	}

	if err := s.notifier.SendOTP(ctx, email, code, s.ttl); err != nil {
		s.logError(err, "request_otp", email, "failed to deliver otp")
		return fmt.Errorf("%w: %w", account.ErrNotification, err)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"operation": "request_otp", "email": email, "expires_at": expiresAt}).Info("otp issued")
	}
	return nil
}

// VerifyOTP consumes the outstanding code for email. Wrong, expired and
// never-issued codes all yield account.ErrInvalidOrExpiredOTP.
func (s *AccountService) VerifyOTP(ctx context.Context, rawEmail, rawCode string) error {
	if rawEmail == "" || rawCode == "" {
		return account.ErrMissingFields
	}
	email, err := account.NormalizeEmail(rawEmail)
	if err != nil {
		return err
	}
	code, ok := account.NormalizeOTPCode(rawCode)
	if !ok {
		return account.ErrInvalidOrExpiredOTP
	}

	consumed, err := s.repo.ConsumeOTP(ctx, email, code, s.now())
	if err != nil {
		s.logError(err, "verify_otp", email, "failed to consume otp")
		return fmt.Errorf("%w: %w", account.ErrStorage, err)
	}
	if !consumed {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"operation": "verify_otp", "email": email}).Info("otp rejected")
		}
		return account.ErrInvalidOrExpiredOTP
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"operation": "verify_otp", "email": email}).Info("otp verified")
	}
	return nil
}

// LinkPhone assigns the normalized phone to the account once and returns it.
func (s *AccountService) LinkPhone(ctx context.Context, rawEmail, rawPhone string) (string, error) {
	if rawEmail == "" || rawPhone == "" {
		return "", account.ErrMissingFields
	}
	email, err := account.NormalizeEmail(rawEmail)
	if err != nil {
		return "", err
	}
	phone, err := account.NormalizeIndianPhone(rawPhone)
	if err != nil {
		return "", err
	}

	err = s.repo.SetPhoneOnce(ctx, email, phone)
	switch {
	case err == nil:
	case errors.Is(err, account.ErrPhoneImmutable),
		errors.Is(err, account.ErrPhoneTaken),
		errors.Is(err, account.ErrAccountNotFound):
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"operation": "link_phone", "email": email}).WithError(err).Info("phone link refused")
		}
		return "", err
	default:
		s.logError(err, "link_phone", email, "failed to link phone")
		return "", fmt.Errorf("%w: %w", account.ErrStorage, err)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"operation": "link_phone", "email": email}).Info("phone linked")
	}
	return phone, nil
}

func (s *AccountService) logError(err error, op, email, msg string) {
	if s.logger == nil {
		return
	}
	s.logger.WithFields(logrus.Fields{"operation": op, "email": email}).WithError(err).Error(msg)
}
