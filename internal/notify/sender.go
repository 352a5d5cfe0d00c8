package notify

import (
	"context"
	"log"

	"oyakatsu/internal/models"
)

// Sender delivers a verification code to its target over an out-of-band
// channel (SMS or email).
type Sender interface {
	SendCode(ctx context.Context, target string, codeType models.CodeType, code string) error
}

// LogSender writes codes to the process log instead of delivering them.
// It stands in for SMS delivery, and for email when SES is not configured.
type LogSender struct{}

// SendCode logs the code for the target
func (s *LogSender) SendCode(ctx context.Context, target string, codeType models.CodeType, code string) error {
	log.Printf("Verification code for %s (%s): %s", target, codeType, code)
	return nil
}
