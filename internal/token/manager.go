package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("invalid token")
)

// typeRefresh marks refresh tokens so they can never be replayed as access
// tokens against protected endpoints.
const typeRefresh = "refresh"

// Manager signs and verifies the HS256 token pair: a short-lived access
// token and a long-lived refresh token carrying a type marker.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// Claims are the JWT claims carried by both token kinds.
type Claims struct {
	UserID    int64  `json:"userId"`
	TokenType string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// NewManager creates a token manager. The secret must not be empty.
func NewManager(secret string, accessTTL, refreshTTL time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret is required")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token: TTLs must be positive")
	}
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// AccessTTL returns the access token lifetime.
func (m *Manager) AccessTTL() time.Duration {
	return m.accessTTL
}

// NewAccessToken mints a signed access token for a user.
func (m *Manager) NewAccessToken(userID int64) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// NewRefreshToken mints a signed refresh token and returns its expiry so the
// caller can persist a matching row. Each token gets a unique jti, so two
// tokens minted for the same user in the same second never collide.
func (m *Manager) NewRefreshToken(userID int64) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.refreshTTL)
	claims := Claims{
		UserID:    userID,
		TokenType: typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseAccess verifies an access token and returns the user ID claim.
// A refresh token presented here is rejected as invalid.
func (m *Manager) ParseAccess(tokenString string) (int64, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))

	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpired
		}
		return 0, ErrInvalid
	}

	if claims.TokenType == typeRefresh || claims.UserID == 0 {
		return 0, ErrInvalid
	}

	return claims.UserID, nil
}
