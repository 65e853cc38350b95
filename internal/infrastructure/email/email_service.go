package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/familychat/auth-backend/internal/core/ports"
)

//go:embed templates/*
var templateFS embed.FS

// Sender delivers one rendered message. Implementations must honour ctx.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// EmailConfig holds email service configuration
type EmailConfig struct {
	AppName     string
	SendTimeout time.Duration
}

// EmailService implements ports.Notifier on top of a Sender
type EmailService struct {
	config *EmailConfig
	sender Sender
	logger *logrus.Logger
	html   *htmltemplate.Template
	text   *texttemplate.Template
}

// OTPEmailData holds data for the otp templates
type OTPEmailData struct {
	AppName    string
	Code       string
	TTLMinutes int
}

var _ ports.Notifier = (*EmailService)(nil)

// NewEmailService creates a new email service instance
func NewEmailService(config *EmailConfig, sender Sender, logger *logrus.Logger) (*EmailService, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/otp.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse html template: %w", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "templates/otp.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text template: %w", err)
	}

	return &EmailService{
		config: config,
		sender: sender,
		logger: logger,
		html:   html,
		text:   text,
	}, nil
}

// SendOTP renders the otp message and hands it to the sender
func (e *EmailService) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	data := OTPEmailData{
		AppName:    e.config.AppName,
		Code:       code,
		TTLMinutes: ttlMinutes(ttl),
	}

	text, html, err := e.render(data)
	if err != nil {
		return err
	}

	if e.config.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.SendTimeout)
		defer cancel()
	}

	subject := fmt.Sprintf("Your %s OTP", e.config.AppName)
	if err := e.sender.Send(ctx, to, subject, text, html); err != nil {
		e.logger.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).WithError(err).Error("Failed to send email")
		return fmt.Errorf("failed to send otp email: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("Email sent successfully")
	return nil
}

func (e *EmailService) render(data OTPEmailData) (string, string, error) {
	var textBuf, htmlBuf bytes.Buffer
	if err := e.text.Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute text template: %w", err)
	}
	if err := e.html.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute html template: %w", err)
	}
	return strings.TrimSpace(textBuf.String()), htmlBuf.String(), nil
}

// ttlMinutes rounds up to whole minutes, never below one
func ttlMinutes(ttl time.Duration) int {
	m := int((ttl + time.Minute - 1) / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}
