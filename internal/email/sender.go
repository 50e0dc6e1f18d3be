// Package email delivers transactional mail over SMTP.
package email

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers the application's transactional emails.
type Sender interface {
	SendOTPEmail(ctx context.Context, toEmail, name, otp string, ttl time.Duration) error
	SendBatchConfirmationEmail(ctx context.Context, toEmail, batchName string, leadCount int, dispatchAt *time.Time) error
}

// SMTPSender implements Sender using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

// SendOTPEmail delivers the email verification code.
func (s *SMTPSender) SendOTPEmail(ctx context.Context, toEmail, name, otp string, ttl time.Duration) error {
	content, err := renderTemplate("otp.html", otpEmailData{
		Name:       name,
		OTP:        otp,
		TTLMinutes: int(ttl.Minutes()),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, "Your verification code", content)
}

// SendBatchConfirmationEmail confirms a batch call was accepted or scheduled.
func (s *SMTPSender) SendBatchConfirmationEmail(ctx context.Context, toEmail, batchName string, leadCount int, dispatchAt *time.Time) error {
	data := batchConfirmationEmailData{
		BatchName: batchName,
		LeadCount: leadCount,
	}
	subject := "Your call batch is underway"
	if dispatchAt != nil {
		data.DispatchAt = dispatchAt.Format("Mon, 2 Jan 2006 15:04 MST")
		subject = "Your call batch is scheduled"
	}

	content, err := renderTemplate("batch_confirmation.html", data)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}
