package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/familychat/auth-backend/internal/core/domain/account"
)

// Client-facing messages. Clients match on some of these strings, so they
// stay stable.
const (
	msgValidEmailRequired = "Valid email required"
	msgOTPSent            = "OTP sent successfully"
	msgSendFailed         = "Failed to send OTP"

	msgEmailAndOTPRequired = "Email and OTP required"
	msgInvalidOrExpiredOTP = "Invalid or expired OTP"
	msgOTPVerified         = "OTP verified successfully"
	msgVerifyFailed        = "Failed to verify OTP"

	msgEmailAndPhoneRequired = "Email and phone are required"
	msgInvalidIndianPhone    = "Invalid Indian mobile. Use a 10-digit number starting 6–9 (e.g., 9876543210)."
	msgPhoneImmutable        = "Phone already set for this account and cannot be changed."
	msgPhoneTaken            = "This phone number is already linked to another account."
	msgLinkRefused           = "Phone could not be linked for this email."
	msgPhoneLinked           = "Phone linked"
	msgLinkFailed            = "Failed to link phone"
)

func invalidBody() error {
	return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
}

// sendOTP issues a fresh code to the posted email
func (s *Server) sendOTP(c echo.Context) error {
	var req account.SendOTPRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		otpRequestsTotal.WithLabelValues(outcomeInvalid).Inc()
		return fail(c, http.StatusBadRequest, msgValidEmailRequired, "")
	}

	err := s.accountSvc.RequestOTP(c.Request().Context(), req.Email)
	switch {
	case err == nil:
		otpRequestsTotal.WithLabelValues(outcomeSuccess).Inc()
		return ok(c, msgOTPSent, nil)
	case errors.Is(err, account.ErrValidation):
		otpRequestsTotal.WithLabelValues(outcomeInvalid).Inc()
		return fail(c, http.StatusBadRequest, msgValidEmailRequired, "")
	default:
		otpRequestsTotal.WithLabelValues(outcomeError).Inc()
		return fail(c, http.StatusInternalServerError, msgSendFailed, "")
	}
}

// verifyOTP consumes the posted code if it is current
func (s *Server) verifyOTP(c echo.Context) error {
	var req account.VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		otpVerificationsTotal.WithLabelValues(outcomeInvalid).Inc()
		return fail(c, http.StatusBadRequest, msgEmailAndOTPRequired, "")
	}

	err := s.accountSvc.VerifyOTP(c.Request().Context(), req.Email, req.OTP.String())
	switch {
	case err == nil:
		otpVerificationsTotal.WithLabelValues(outcomeSuccess).Inc()
		return ok(c, msgOTPVerified, nil)
	case errors.Is(err, account.ErrAuthentication):
		otpVerificationsTotal.WithLabelValues(outcomeRejected).Inc()
		return fail(c, http.StatusBadRequest, msgInvalidOrExpiredOTP, "")
	case errors.Is(err, account.ErrValidation):
		otpVerificationsTotal.WithLabelValues(outcomeInvalid).Inc()
		return fail(c, http.StatusBadRequest, msgEmailAndOTPRequired, "")
	default:
		otpVerificationsTotal.WithLabelValues(outcomeError).Inc()
		return fail(c, http.StatusInternalServerError, msgVerifyFailed, "")
	}
}

// linkPhone attaches an Indian mobile number to the account, once
func (s *Server) linkPhone(c echo.Context) error {
	var req account.LinkPhoneRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		phoneLinksTotal.WithLabelValues(outcomeInvalid).Inc()
		return fail(c, http.StatusBadRequest, msgEmailAndPhoneRequired, "")
	}

	phone, err := s.accountSvc.LinkPhone(c.Request().Context(), req.Email, req.Phone)
	switch {
	case err == nil:
		phoneLinksTotal.WithLabelValues(outcomeSuccess).Inc()
		return ok(c, msgPhoneLinked, echo.Map{"phone": phone})
	case errors.Is(err, account.ErrInvalidPhone):
		phoneLinksTotal.WithLabelValues(outcomeInvalid).Inc()
		return fail(c, http.StatusBadRequest, msgInvalidIndianPhone, "")
	case errors.Is(err, account.ErrValidation):
		phoneLinksTotal.WithLabelValues(outcomeInvalid).Inc()
		return fail(c, http.StatusBadRequest, msgEmailAndPhoneRequired, "")
	case errors.Is(err, account.ErrPhoneImmutable):
		phoneLinksTotal.WithLabelValues(outcomeImmutable).Inc()
		return fail(c, http.StatusConflict, msgPhoneImmutable, account.CodePhoneImmutable)
	case errors.Is(err, account.ErrPhoneTaken):
		phoneLinksTotal.WithLabelValues(outcomeTaken).Inc()
		return fail(c, http.StatusConflict, msgPhoneTaken, account.CodePhoneTaken)
	case errors.Is(err, account.ErrAccountNotFound):
		// Unknown emails get a generic 400 rather than a distinct status.
		phoneLinksTotal.WithLabelValues(outcomeInvalid).Inc()
		return fail(c, http.StatusBadRequest, msgLinkRefused, "")
	default:
		phoneLinksTotal.WithLabelValues(outcomeError).Inc()
		return fail(c, http.StatusInternalServerError, msgLinkFailed, "")
	}
}
