package account

import (
	"regexp"
	"strings"
)

var (
	emailPattern       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigits          = regexp.MustCompile(`\D`)
	indianMobile       = regexp.MustCompile(`^[6-9]\d{9}$`)
	indianMobileWithCC = regexp.MustCompile(`^91[6-9]\d{9}$`)
)

// maxEmailLength is the longest address SMTP can deliver to (RFC 5321 path limit).
const maxEmailLength = 254

// NormalizeEmail trims and lowercases raw and checks it has a local@domain.tld shape.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || len(email) > maxEmailLength || !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// NormalizeIndianPhone returns raw in E.164 form (+91XXXXXXXXXX). Formatting
// characters are ignored; the remaining digits must be a 10-digit mobile
// number starting 6-9, optionally prefixed with the 91 country code.
func NormalizeIndianPhone(raw string) (string, error) {
	digits := nonDigits.ReplaceAllString(raw, "")
	switch {
	case indianMobile.MatchString(digits):
		return "+91" + digits, nil
	case indianMobileWithCC.MatchString(digits):
		return "+" + digits, nil
	default:
		return "", ErrInvalidPhone
	}
}

// NormalizeOTPCode trims raw and reports whether it is a well-formed code.
func NormalizeOTPCode(raw string) (string, bool) {
	code := strings.TrimSpace(raw)
	if len(code) != CodeLength {
		return "", false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return "", false
		}
	}
	return code, true
}
