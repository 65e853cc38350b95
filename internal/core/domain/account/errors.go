package account

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the account service wraps exactly one
// of these, so callers can switch on the kind with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication failed")
	ErrConflict       = errors.New("conflict")
	ErrDependency     = errors.New("dependency failure")
)

var (
	ErrInvalidEmail  = fmt.Errorf("%w: valid email required", ErrValidation)
	ErrInvalidPhone  = fmt.Errorf("%w: invalid indian mobile number", ErrValidation)
	ErrMissingFields = fmt.Errorf("%w: required fields missing", ErrValidation)

	// ErrInvalidOrExpiredOTP covers a wrong code, an expired code and a code
	// that was never requested.
	ErrInvalidOrExpiredOTP = fmt.Errorf("%w: invalid or expired otp", ErrAuthentication)

	ErrPhoneImmutable = fmt.Errorf("%w: phone already set for this account", ErrConflict)
	ErrPhoneTaken     = fmt.Errorf("%w: phone already linked to another account", ErrConflict)

	ErrAccountNotFound = errors.New("account not found")

	ErrStorage      = fmt.Errorf("%w: account store", ErrDependency)
	ErrNotification = fmt.Errorf("%w: notifier", ErrDependency)
)

// Conflict codes returned to clients alongside 409 responses.
const (
	CodePhoneImmutable = "PHONE_IMMUTABLE"
	CodePhoneTaken     = "PHONE_TAKEN"
)
