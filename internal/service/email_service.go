package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// ConfirmationDetails carries the fields rendered into a registration
// confirmation email.
type ConfirmationDetails struct {
	LeaderName     string
	TeamName       string
	TeamSize       int
	RegistrationID string
	TicketNumber   string
}

// EmailService sends transactional emails.
type EmailService interface {
	SendOTPCode(ctx context.Context, toEmail, code string, expiresIn time.Duration, idempotencyKey string) error
	SendRegistrationConfirmation(ctx context.Context, recipients []string, details ConfirmationDetails) error
}

// NoopEmailService is used in development and tests.
type NoopEmailService struct{}

func (s *NoopEmailService) SendOTPCode(ctx context.Context, toEmail, code string, expiresIn time.Duration, idempotencyKey string) error {
	log.Printf("[EmailService] noop send OTP to=%s", toEmail)
	return nil
}

func (s *NoopEmailService) SendRegistrationConfirmation(ctx context.Context, recipients []string, details ConfirmationDetails) error {
	log.Printf("[EmailService] noop send confirmation to=%v ticket=%s", recipients, details.TicketNumber)
	return nil
}

// ResendEmailService sends emails via the Resend REST API.
type ResendEmailService struct {
	from   string
	client *resend.Client
}

func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendEmailService) SendOTPCode(ctx context.Context, toEmail, code string, expiresIn time.Duration, idempotencyKey string) error {
	if toEmail == "" || code == "" {
		return fmt.Errorf("toEmail and code are required")
	}

	minutes := int(expiresIn.Minutes())
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: "Your admin login code",
		Text:    fmt.Sprintf("Your one-time code is %s. It expires in %d minutes.", code, minutes),
		Html:    fmt.Sprintf("<p>Your one-time code is <strong>%s</strong>.</p><p>It expires in %d minutes. If you did not request this, ignore this email.</p>", code, minutes),
	}

	return s.sendWithRetry(ctx, params, idempotencyKey)
}

func (s *ResendEmailService) SendRegistrationConfirmation(ctx context.Context, recipients []string, details ConfirmationDetails) error {
	if len(recipients) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}

	teamLine := ""
	if details.TeamName != "" {
		teamLine = fmt.Sprintf("<p>Team: <strong>%s</strong> (%d members)</p>", details.TeamName, details.TeamSize)
	}
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      recipients,
		Subject: "Registration confirmed",
		Text: fmt.Sprintf(
			"Hi %s, your registration is confirmed.\nRegistration ID: %s\nTicket: %s\nShow the ticket number at the venue check-in.",
			details.LeaderName, details.RegistrationID, details.TicketNumber,
		),
		Html: fmt.Sprintf(
			"<p>Hi %s, your registration is confirmed.</p>%s<p>Registration ID: <strong>%s</strong><br>Ticket: <strong>%s</strong></p><p>Show the ticket number at the venue check-in.</p>",
			details.LeaderName, teamLine, details.RegistrationID, details.TicketNumber,
		),
	}

	return s.sendWithRetry(ctx, params, "reg-confirm:"+details.RegistrationID)
}

func (s *ResendEmailService) sendWithRetry(ctx context.Context, params *resend.SendEmailRequest, idempotencyKey string) error {
	options := &resend.SendEmailOptions{}
	if strings.TrimSpace(idempotencyKey) != "" {
		options.IdempotencyKey = strings.TrimSpace(idempotencyKey)
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
