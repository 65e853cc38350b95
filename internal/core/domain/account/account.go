package account

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CodeLength is the number of digits in an issued OTP.
const CodeLength = 6

// Account is the per-email aggregate held by the Account Store.
type Account struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Email           string     `json:"email" db:"email"`
	OTPCode         *string    `json:"-" db:"otp_code"`
	OTPExpiry       *time.Time `json:"-" db:"otp_expiry"`
	EmailVerifiedAt *time.Time `json:"email_verified_at" db:"email_verified_at"`
	Phone           *string    `json:"phone" db:"phone"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// IsVerified reports whether the email has been verified at least once.
func (a *Account) IsVerified() bool {
	return a.EmailVerifiedAt != nil
}

// HasPhone reports whether the set-once phone has been assigned.
func (a *Account) HasPhone() bool {
	return a.Phone != nil && *a.Phone != ""
}

// HasOutstandingOTP reports whether a code is stored and still fresh at now.
func (a *Account) HasOutstandingOTP(now time.Time) bool {
	return a.OTPCode != nil && a.OTPExpiry != nil && now.Before(*a.OTPExpiry)
}

// Code is an OTP as posted by clients, which send it either as a JSON string
// or as a bare number.
type Code string

func (c *Code) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = Code(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = Code(n.String())
	return nil
}

func (c Code) String() string {
	return strings.TrimSpace(string(c))
}

// SendOTPRequest represents the request to issue an OTP
type SendOTPRequest struct {
	Email string `json:"email" validate:"required"`
}

// VerifyOTPRequest represents the request to verify an OTP
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required"`
	OTP   Code   `json:"otp" validate:"required"`
}

// LinkPhoneRequest represents the request to link a phone number
type LinkPhoneRequest struct {
	Email string `json:"email" validate:"required"`
	Phone string `json:"phone" validate:"required"`
}
