package email

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/familychat/auth-backend/configs"
)

// NewSender builds the Sender selected by cfg.Provider
func NewSender(cfg *configs.EmailConfig, logger *logrus.Logger) (Sender, error) {
	switch cfg.Provider {
	case configs.MailProviderSendGrid:
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName), nil
	case configs.MailProviderSMTP:
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password, cfg.FromEmail, cfg.FromName), nil
	case configs.MailProviderLog:
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}
