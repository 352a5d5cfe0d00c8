package service

import (
	"errors"
	"fmt"

	"oyakatsu/internal/models"
	"oyakatsu/internal/repository"
	"oyakatsu/internal/security"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	// ErrUserGone signals a well-formed access token whose user row no
	// longer exists. The boundary treats it as an authentication failure,
	// not a malformed token.
	ErrUserGone = errors.New("user no longer exists")
)

// AuthResult is the outcome of a successful verification, registration or
// login. IsNewUser distinguishes the verify-code branch that found no
// account; in that case User and Tokens are nil and the client is expected
// to register.
type AuthResult struct {
	User      *models.User
	Tokens    *TokenPair
	IsNewUser bool
}

// AuthService drives the verification-code authentication flow
type AuthService struct {
	users         *repository.UserRepository
	verifications *VerificationService
	tokens        *TokenService
}

// NewAuthService creates a new auth service
func NewAuthService(users *repository.UserRepository, verifications *VerificationService, tokens *TokenService) *AuthService {
	return &AuthService{
		users:         users,
		verifications: verifications,
		tokens:        tokens,
	}
}

// VerifyCode consumes a verification code. An existing account gets a token
// pair; an unknown target gets IsNewUser so the client can register.
func (s *AuthService) VerifyCode(target, code string) (*AuthResult, error) {
	if err := s.verifications.Consume(target, code); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByTarget(target)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return &AuthResult{IsNewUser: true}, nil
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Tokens: pair}, nil
}

// Register creates an account for a target whose code was consumed within
// the last 10 minutes. Password is optional; when present it is stored as a
// bcrypt hash for password login.
func (s *AuthService) Register(phoneNumber, email, code, password, displayName string) (*AuthResult, error) {
	target := phoneNumber
	if target == "" {
		target = email
	}

	if err := s.verifications.WasRecentlyConsumed(target, code); err != nil {
		return nil, err
	}

	existing, err := s.users.GetUserByTarget(target)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	var passwordHash string
	if password != "" {
		passwordHash, err = security.HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	}

	user, err := s.users.CreateUser(phoneNumber, email, passwordHash, displayName)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Tokens: pair, IsNewUser: true}, nil
}

// Login authenticates a target/password pair. Unknown target, missing hash
// and wrong password all collapse into ErrInvalidCredentials.
func (s *AuthService) Login(target, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByTarget(target)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Tokens: pair}, nil
}

// Refresh rotates a refresh token and returns a fresh pair plus the owning
// user. A token whose user no longer exists is treated as invalid.
func (s *AuthService) Refresh(refreshToken string) (*AuthResult, error) {
	pair, userID, err := s.tokens.Rotate(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	return &AuthResult{User: user, Tokens: pair}, nil
}

// Logout revokes all refresh tokens for the user
func (s *AuthService) Logout(userID int64) error {
	return s.tokens.RevokeAll(userID)
}

// Authenticate validates an access token and resolves its user. Used by the
// HTTP middleware on every protected request. A valid token whose user has
// since been deleted fails with ErrUserGone, not ErrInvalidToken.
func (s *AuthService) Authenticate(tokenString string) (*models.User, error) {
	userID, err := s.tokens.ValidateAccess(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrUserGone
	}

	return user, nil
}
