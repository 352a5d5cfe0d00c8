package handlers

import (
	"time"

	"oyakatsu/internal/models"
	"oyakatsu/internal/service"
)

// userResponse is the wire shape for a user profile
type userResponse struct {
	ID          int64   `json:"id"`
	PhoneNumber *string `json:"phoneNumber"`
	Email       *string `json:"email"`
	DisplayName string  `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl"`
	Role        *string `json:"role"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// tokenResponse is the wire shape for an issued token pair
type tokenResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int          `json:"expiresIn"`
	User         userResponse `json:"user"`
}

// familyResponse is the wire shape for a family
type familyResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	IconURL     *string `json:"iconUrl"`
	MemberCount int     `json:"memberCount"`
	CreatedBy   int64   `json:"createdBy"`
	CreatedAt   string  `json:"createdAt"`
}

// memberResponse is the wire shape for a family roster entry
type memberResponse struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"userId"`
	Role        string  `json:"role"`
	DisplayName string  `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl"`
	JoinedAt    string  `json:"joinedAt"`
}

// inviteCodeResponse is the wire shape for an invite code. ExpiresAt is
// always null; codes live until regenerated.
type inviteCodeResponse struct {
	Code      string  `json:"code"`
	URL       string  `json:"url"`
	ExpiresAt *string `json:"expiresAt"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		PhoneNumber: optional(u.PhoneNumber),
		Email:       optional(u.Email),
		DisplayName: u.DisplayName,
		AvatarURL:   optional(u.AvatarURL),
		Role:        optional(string(u.Role)),
		CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func newTokenResponse(pair *service.TokenPair, u *models.User) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		User:         newUserResponse(u),
	}
}

func newFamilyResponse(f *models.Family, memberCount int) familyResponse {
	return familyResponse{
		ID:          f.ID,
		Name:        f.Name,
		IconURL:     optional(f.IconURL),
		MemberCount: memberCount,
		CreatedBy:   f.CreatedBy,
		CreatedAt:   f.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func newMemberResponse(m *models.MemberWithUser) memberResponse {
	return memberResponse{
		ID:          m.Member.ID,
		UserID:      m.User.ID,
		Role:        string(m.Member.Role),
		DisplayName: m.User.DisplayName,
		AvatarURL:   optional(m.User.AvatarURL),
		JoinedAt:    m.Member.JoinedAt.UTC().Format(time.RFC3339),
	}
}
