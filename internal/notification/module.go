// Package notification sends emails in response to domain events. Domain
// modules publish events and stay unaware of mail providers or templates.
package notification

import (
	"context"
	"time"

	"callgenie_backend/internal/email"
	"callgenie_backend/internal/events"
	"callgenie_backend/platform/config"
	"callgenie_backend/platform/logger"
)

// Module handles all notification-related event subscriptions.
type Module struct {
	sender email.Sender
	cfg    config.AuthServiceConfig
	log    *logger.Logger
}

// New creates a new notification module.
func New(sender email.Sender, cfg config.AuthServiceConfig, log *logger.Logger) *Module {
	return &Module{sender: sender, cfg: cfg, log: log}
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.UserRegistered{}.EventName(), m)
	bus.Subscribe(events.OTPRequested{}.EventName(), m)
	bus.Subscribe(events.BatchCallCreated{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.UserRegistered:
		return m.handleUserRegistered(ctx, e)
	case events.OTPRequested:
		return m.handleOTPRequested(ctx, e)
	case events.BatchCallCreated:
		return m.handleBatchCallCreated(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleUserRegistered(ctx context.Context, e events.UserRegistered) error {
	if err := m.sendOTP(ctx, e.Email, e.Name, e.OTP); err != nil {
		m.log.Error("failed to send verification email",
			"userId", e.UserID,
			"email", e.Email,
			"error", err,
		)
		return err
	}
	m.log.Info("verification email sent", "userId", e.UserID, "email", e.Email)
	return nil
}

func (m *Module) handleOTPRequested(ctx context.Context, e events.OTPRequested) error {
	if err := m.sendOTP(ctx, e.Email, "", e.OTP); err != nil {
		m.log.Error("failed to send verification email",
			"userId", e.UserID,
			"email", e.Email,
			"error", err,
		)
		return err
	}
	m.log.Info("verification email sent", "userId", e.UserID, "email", e.Email)
	return nil
}

func (m *Module) handleBatchCallCreated(ctx context.Context, e events.BatchCallCreated) error {
	if e.UserEmail == "" {
		return nil
	}
	if err := m.sender.SendBatchConfirmationEmail(ctx, e.UserEmail, e.BatchName, e.LeadCount, e.DispatchAt); err != nil {
		m.log.Error("failed to send batch confirmation email",
			"userId", e.UserID,
			"batchId", e.BatchID,
			"error", err,
		)
		return err
	}
	m.log.Info("batch confirmation email sent", "userId", e.UserID, "batchId", e.BatchID)
	return nil
}

func (m *Module) sendOTP(ctx context.Context, toEmail, name, otp string) error {
	ttl := m.cfg.GetOTPTTL()
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return m.sender.SendOTPEmail(ctx, toEmail, name, otp, ttl)
}
