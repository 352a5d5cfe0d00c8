package models

import (
	"fmt"
	"time"
)

// MaxFamilyMembers caps the number of active members per family.
const MaxFamilyMembers = 10

// MemberStatus tracks the lifecycle of a family membership. Members are
// never hard-deleted; leaving flips the status.
type MemberStatus string

const (
	MemberActive MemberStatus = "active"
	MemberLeft   MemberStatus = "left"
)

// Family represents a group of users sharing an invite code. The creator
// holds a parent membership and can never leave.
type Family struct {
	ID         int64
	Name       string
	IconURL    string
	InviteCode string
	CreatedBy  int64
	CreatedAt  time.Time
}

// FamilyMember is the join row between a user and a family. A user holds at
// most one active membership system-wide.
type FamilyMember struct {
	ID       int64
	FamilyID int64
	UserID   int64
	Role     Role
	Status   MemberStatus
	JoinedAt time.Time
	LeftAt   *time.Time
}

// IsActive reports whether the membership is still current.
func (m *FamilyMember) IsActive() bool {
	return m.Status == MemberActive
}

// MemberWithUser combines a membership with the member's user details.
type MemberWithUser struct {
	Member FamilyMember
	User   User
}

// FamilyWithCount annotates a family with its live active-member count.
type FamilyWithCount struct {
	Family      Family
	MemberCount int
}

// Platform identifies a mobile device platform for push registration.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// ParsePlatform validates a platform value received at the API boundary.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformIOS, PlatformAndroid:
		return Platform(s), nil
	}
	return "", fmt.Errorf("invalid platform: %q", s)
}

// DeviceToken is a push-notification registration for one device.
type DeviceToken struct {
	ID        int64
	UserID    int64
	Token     string
	Platform  Platform
	CreatedAt time.Time
	UpdatedAt time.Time
}
