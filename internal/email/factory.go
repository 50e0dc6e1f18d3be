package email

import (
	"context"
	"time"

	"callgenie_backend/platform/config"
	"callgenie_backend/platform/logger"
)

// NewSender returns the SMTP sender when email is configured, otherwise a
// sender that only logs. The log fallback keeps local development working
// without an SMTP server; the OTP shows up in the log output.
func NewSender(cfg config.EmailConfig, log *logger.Logger) Sender {
	if cfg.IsEmailEnabled() {
		return NewSMTPSender(
			cfg.GetSMTPHost(),
			cfg.GetSMTPPort(),
			cfg.GetSMTPUsername(),
			cfg.GetSMTPPassword(),
			cfg.GetEmailFromAddress(),
			cfg.GetEmailFromName(),
		)
	}

	log.Warn("email sending disabled, messages will only be logged")
	return &logSender{log: log}
}

type logSender struct {
	log *logger.Logger
}

func (s *logSender) SendOTPEmail(ctx context.Context, toEmail, name, otp string, ttl time.Duration) error {
	s.log.Info("otp email (not sent)", "to", toEmail, "otp", otp)
	return nil
}

func (s *logSender) SendBatchConfirmationEmail(ctx context.Context, toEmail, batchName string, leadCount int, dispatchAt *time.Time) error {
	s.log.Info("batch confirmation email (not sent)", "to", toEmail, "batch", batchName, "leads", leadCount)
	return nil
}
