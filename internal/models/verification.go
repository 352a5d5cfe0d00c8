package models

import (
	"fmt"
	"time"
)

// CodeType identifies the delivery channel a verification code targets.
type CodeType string

const (
	CodeTypePhone CodeType = "phone"
	CodeTypeEmail CodeType = "email"
)

// ParseCodeType validates a code type value received at the API boundary.
func ParseCodeType(s string) (CodeType, error) {
	switch CodeType(s) {
	case CodeTypePhone, CodeTypeEmail:
		return CodeType(s), nil
	}
	return "", fmt.Errorf("invalid code type: %q", s)
}

// VerificationCode is a one-time 6-digit code issued to a phone number or
// email address. Issuing a new code for a target invalidates any unused
// predecessor; only the newest code stays consumable.
type VerificationCode struct {
	ID        int64
	Target    string // phone number or email address
	Code      string
	Type      CodeType
	ExpiresAt time.Time
	UsedAt    *time.Time // nil while unused
	CreatedAt time.Time
}

// IsUsed reports whether the code was consumed.
func (c *VerificationCode) IsUsed() bool {
	return c.UsedAt != nil
}

// IsExpired reports whether the code's lifetime has passed.
func (c *VerificationCode) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// IsConsumable reports whether the code can still be consumed.
func (c *VerificationCode) IsConsumable() bool {
	return !c.IsUsed() && !c.IsExpired()
}
