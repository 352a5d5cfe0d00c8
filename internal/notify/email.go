package notify

import (
	"context"
	"fmt"
	"log"

	"oyakatsu/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailSender delivers verification codes for email targets via Amazon SES.
// Phone targets and disabled configurations fall back to log delivery.
type EmailSender struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	enabled   bool
	fallback  LogSender
}

// NewEmailSender creates an email sender. When fromEmail is empty the sender
// is disabled and every code is logged instead.
func NewEmailSender(ctx context.Context, awsRegion, fromEmail, fromName string) (*EmailSender, error) {
	if fromEmail == "" {
		log.Println("Email delivery disabled: SES_FROM_EMAIL not configured")
		return &EmailSender{enabled: false}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email delivery enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailSender{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
	}, nil
}

// SendCode delivers a verification code. SMS delivery is not wired up yet,
// so phone targets always go to the log.
func (s *EmailSender) SendCode(ctx context.Context, target string, codeType models.CodeType, code string) error {
	if codeType != models.CodeTypeEmail || !s.enabled {
		return s.fallback.SendCode(ctx, target, codeType, code)
	}

	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	subject := "Your verification code"
	textBody := fmt.Sprintf(`Your verification code is: %s

This code expires in 10 minutes. If you didn't request it, you can safely ignore this email.
`, code)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<p>Your verification code is:</p>
	<p style="font-size: 28px; font-weight: bold; letter-spacing: 4px;">%s</p>
	<p>This code expires in 10 minutes. If you didn't request it, you can safely ignore this email.</p>
</body>
</html>
`, code)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{target},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody)},
					Text: &types.Content{Data: aws.String(textBody)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	return nil
}
