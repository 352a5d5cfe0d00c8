package service

import (
	"errors"
	"fmt"
	"time"

	"oyakatsu/internal/repository"
	"oyakatsu/internal/token"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// TokenPair is the credential set handed to clients after authentication
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int // access token lifetime in seconds
}

// TokenService mints, validates and rotates the access/refresh token pair.
// Refresh tokens are additionally persisted so rotation can enforce
// single use.
type TokenService struct {
	manager *token.Manager
	tokens  *repository.TokenRepository
}

// NewTokenService creates a new token service
func NewTokenService(manager *token.Manager, tokens *repository.TokenRepository) *TokenService {
	return &TokenService{
		manager: manager,
		tokens:  tokens,
	}
}

// IssuePair mints an access/refresh pair and persists the refresh token
func (s *TokenService) IssuePair(userID int64) (*TokenPair, error) {
	accessToken, err := s.manager.NewAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, expiresAt, err := s.manager.NewRefreshToken(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	if _, err := s.tokens.CreateToken(userID, refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.manager.AccessTTL().Seconds()),
	}, nil
}

// ValidateAccess verifies an access token and resolves the user ID claim
func (s *TokenService) ValidateAccess(tokenString string) (int64, error) {
	userID, err := s.manager.ParseAccess(tokenString)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrInvalidToken
	}
	return userID, nil
}

// Rotate consumes a refresh token and issues a new pair for the same user.
// The consumed token never validates again, even when two rotations race.
func (s *TokenService) Rotate(oldToken string) (*TokenPair, int64, error) {
	stored, err := s.tokens.GetByToken(oldToken)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if stored == nil || stored.IsExpired() {
		return nil, 0, ErrInvalidToken
	}

	accessToken, err := s.manager.NewAccessToken(stored.UserID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, expiresAt, err := s.manager.NewRefreshToken(stored.UserID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	if _, err := s.tokens.Rotate(stored.ID, stored.UserID, refreshToken, expiresAt); err != nil {
		if errors.Is(err, repository.ErrTokenRotated) {
			return nil, 0, ErrInvalidToken
		}
		return nil, 0, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.manager.AccessTTL().Seconds()),
	}, stored.UserID, nil
}

// RevokeAll deletes every refresh token for a user (logout)
func (s *TokenService) RevokeAll(userID int64) error {
	if err := s.tokens.DeleteAllForUser(userID); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}

// CleanupExpired prunes refresh tokens that expired more than a day ago
func (s *TokenService) CleanupExpired() error {
	if err := s.tokens.DeleteExpiredBefore(time.Now().Add(-24 * time.Hour)); err != nil {
		return fmt.Errorf("failed to cleanup tokens: %w", err)
	}
	return nil
}
