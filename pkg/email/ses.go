package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the part of the SES client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESEmailService implements Sender using Amazon SES
type SESEmailService struct {
	client SESAPI
	config *EmailConfig
}

// NewSESEmailService loads AWS credentials from the default chain.
func NewSESEmailService(ctx context.Context, region string, config *EmailConfig) (*SESEmailService, error) {
	if region == "" {
		return nil, fmt.Errorf("AWS region is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSESEmailServiceWithClient(ses.NewFromConfig(awsCfg), config)
}

func NewSESEmailServiceWithClient(client SESAPI, config *EmailConfig) (*SESEmailService, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &SESEmailService{client: client, config: config}, nil
}

func (s *SESEmailService) SendVerificationEmail(ctx context.Context, to, verificationURL string) error {
	msg := VerificationMessage(s.config, to, verificationURL)

	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: msg.To,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
				Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(msg.From),
	})
	if err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	return nil
}
