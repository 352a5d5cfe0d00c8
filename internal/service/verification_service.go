package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"oyakatsu/internal/models"
	"oyakatsu/internal/notify"
	"oyakatsu/internal/repository"
	"oyakatsu/internal/security"
)

var (
	ErrInvalidCode         = errors.New("invalid verification code")
	ErrInvalidVerification = errors.New("verification invalid or expired")
)

const (
	// CodeTTL is how long an issued verification code stays consumable.
	CodeTTL = 10 * time.Minute
	// CodeRetryAfter is the fixed client-facing resend delay in seconds.
	CodeRetryAfter = 60
	// consumedWindow is how long after consumption a code still vouches for
	// registration.
	consumedWindow = 10 * time.Minute
)

// VerificationService issues and consumes one-time verification codes
type VerificationService struct {
	verifications *repository.VerificationRepository
	sender        notify.Sender
}

// NewVerificationService creates a new verification service
func NewVerificationService(verifications *repository.VerificationRepository, sender notify.Sender) *VerificationService {
	return &VerificationService{
		verifications: verifications,
		sender:        sender,
	}
}

// Issue invalidates any outstanding code for the target, stores a fresh
// 6-digit code and triggers delivery. Delivery failures are logged, never
// surfaced; the caller always gets the expiry and resend delay.
func (s *VerificationService) Issue(ctx context.Context, target string, codeType models.CodeType) (time.Time, int, error) {
	code, err := security.GenerateVerificationCode()
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("failed to generate code: %w", err)
	}

	expiresAt := time.Now().Add(CodeTTL)
	vc, err := s.verifications.IssueCode(target, code, codeType, expiresAt)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("failed to issue code: %w", err)
	}

	if err := s.sender.SendCode(ctx, target, codeType, vc.Code); err != nil {
		log.Printf("Failed to deliver verification code to %s: %v", target, err)
	}

	return expiresAt, CodeRetryAfter, nil
}

// Consume marks a code as used. Fails with ErrInvalidCode whether the code
// is unknown, expired or already used.
func (s *VerificationService) Consume(target, code string) error {
	ok, err := s.verifications.ConsumeCode(target, code)
	if err != nil {
		return fmt.Errorf("failed to consume code: %w", err)
	}
	if !ok {
		return ErrInvalidCode
	}
	return nil
}

// WasRecentlyConsumed checks that the code was consumed within the last 10
// minutes. Registration uses this to tie the new account to a completed
// verification.
func (s *VerificationService) WasRecentlyConsumed(target, code string) error {
	vc, err := s.verifications.GetLatestConsumed(target, code)
	if err != nil {
		return fmt.Errorf("failed to look up consumed code: %w", err)
	}
	if vc == nil || vc.UsedAt == nil {
		return ErrInvalidVerification
	}
	if time.Since(*vc.UsedAt) > consumedWindow {
		return ErrInvalidVerification
	}
	return nil
}

// CleanupExpired prunes codes that expired more than a day ago
func (s *VerificationService) CleanupExpired() error {
	if err := s.verifications.DeleteExpiredBefore(time.Now().Add(-24 * time.Hour)); err != nil {
		return fmt.Errorf("failed to cleanup codes: %w", err)
	}
	return nil
}
