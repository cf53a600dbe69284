package email

import (
	"context"
	"fmt"
)

// Sender delivers transactional email.
type Sender interface {
	// SendVerificationEmail sends the account verification link to the user
	SendVerificationEmail(ctx context.Context, to, verificationURL string) error
}

const verificationSubject = "Verify your Tweeter account"

// Message is a provider-neutral email.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// EmailConfig holds the sender identity shared by every provider.
type EmailConfig struct {
	FromAddress string
	FromName    string
}

func (c *EmailConfig) from() string {
	if c.FromName == "" {
		return c.FromAddress
	}
	return fmt.Sprintf("%s <%s>", c.FromName, c.FromAddress)
}

func (c *EmailConfig) validate() error {
	if c.FromAddress == "" {
		return fmt.Errorf("from address is required")
	}
	return nil
}

// VerificationMessage renders the verification email for to.
func VerificationMessage(cfg *EmailConfig, to, verificationURL string) Message {
	return Message{
		From:    cfg.from(),
		To:      []string{to},
		Subject: verificationSubject,
		HTML:    VerificationEmailTemplate(verificationURL),
		Text:    VerificationEmailText(verificationURL),
	}
}
