package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	codeRegex  = regexp.MustCompile(`^[0-9]{4,6}$`)
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePhoneNumber checks if a phone number is valid
func ValidatePhoneNumber(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ValidationError{Field: "phoneNumber", Message: "phone number is required"}
	}
	if !phoneRegex.MatchString(phone) {
		return ValidationError{Field: "phoneNumber", Message: "invalid phone number format"}
	}
	return nil
}

// ValidateTarget checks that exactly one of phone number or email is present
// and returns the normalized target value.
func ValidateTarget(phone, email string) (string, error) {
	phone = strings.TrimSpace(phone)
	email = strings.TrimSpace(email)

	if phone == "" && email == "" {
		return "", ValidationError{Field: "target", Message: "phone number or email is required"}
	}
	if phone != "" {
		if err := ValidatePhoneNumber(phone); err != nil {
			return "", err
		}
		return phone, nil
	}
	if err := ValidateEmail(email); err != nil {
		return "", err
	}
	return email, nil
}

// ValidateVerificationCode checks if a verification code is well-formed
func ValidateVerificationCode(code string) error {
	if code == "" {
		return ValidationError{Field: "code", Message: "verification code is required"}
	}
	if !codeRegex.MatchString(code) {
		return ValidationError{Field: "code", Message: "invalid verification code format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateDisplayName checks if a display name is valid
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "displayName", Message: "display name is required"}
	}
	if len([]rune(name)) > 50 {
		return ValidationError{Field: "displayName", Message: "display name must be at most 50 characters"}
	}
	return nil
}

// ValidateFamilyName checks if a family name is valid
func ValidateFamilyName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "family name is required"}
	}
	if len([]rune(name)) > 50 {
		return ValidationError{Field: "name", Message: "family name must be at most 50 characters"}
	}
	return nil
}
