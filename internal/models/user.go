package models

import (
	"fmt"
	"time"
)

// Role is a user's family role. It is unset until the user picks one, and
// immutable afterwards.
type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

// ParseRole validates a role value received at the API boundary.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleParent, RoleChild:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role: %q", s)
}

// User represents an account in the system. Phone-only accounts have no
// email and no password hash.
type User struct {
	ID           int64
	PhoneNumber  string // empty when registered via email
	Email        string // empty when registered via phone
	PasswordHash string // empty for accounts without a password
	DisplayName  string
	AvatarURL    string
	Role         Role // empty until set
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the user has picked a role yet.
func (u *User) HasRole() bool {
	return u.Role != ""
}
