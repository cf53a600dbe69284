package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendEmailService implements Sender using Resend
type ResendEmailService struct {
	emails resendEmails
	config *EmailConfig
}

// NewResendEmailService creates a new Resend email service
func NewResendEmailService(apiKey string, config *EmailConfig) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	client := resend.NewClient(apiKey)

	return &ResendEmailService{
		emails: client.Emails,
		config: config,
	}, nil
}

func (s *ResendEmailService) SendVerificationEmail(ctx context.Context, to, verificationURL string) error {
	msg := VerificationMessage(s.config, to, verificationURL)

	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}

	if _, err := s.emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	return nil
}
