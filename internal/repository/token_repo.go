package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"oyakatsu/internal/database"
	"oyakatsu/internal/models"
)

// ErrTokenRotated signals that a refresh token row vanished mid-rotation,
// i.e. a concurrent rotation consumed it first.
var ErrTokenRotated = errors.New("refresh token already rotated")

// TokenRepository handles database operations for refresh tokens
type TokenRepository struct {
	db *database.DB
}

// NewTokenRepository creates a new refresh token repository
func NewTokenRepository(db *database.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// CreateToken persists a refresh token row for a user
func (r *TokenRepository) CreateToken(userID int64, token string, expiresAt time.Time) (*models.RefreshToken, error) {
	query := "INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES (?, ?, ?)"
	id, err := r.db.ExecReturningID(query, userID, token, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	return &models.RefreshToken{
		ID:        id,
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// GetByToken retrieves a refresh token row by its raw token value
func (r *TokenRepository) GetByToken(token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, created_at
		FROM refresh_tokens
		WHERE token = ?
	`
	rt := &models.RefreshToken{}
	err := r.db.QueryRow(query, token).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Token,
		&rt.ExpiresAt,
		&rt.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return rt, nil
}

// Rotate atomically deletes the consumed token row and inserts its
// replacement. If the old row is already gone the whole operation fails with
// ErrTokenRotated and nothing is inserted, so a token never validates twice.
func (r *TokenRepository) Rotate(oldID, userID int64, newToken string, newExpiresAt time.Time) (*models.RefreshToken, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec("DELETE FROM refresh_tokens WHERE id = ?", oldID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete old refresh token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read delete result: %w", err)
	}
	if rows == 0 {
		return nil, ErrTokenRotated
	}

	query := "INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES (?, ?, ?)"
	id, err := tx.ExecReturningID(query, userID, newToken, newExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.RefreshToken{
		ID:        id,
		UserID:    userID,
		Token:     newToken,
		ExpiresAt: newExpiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// DeleteAllForUser removes every refresh token for a user (logout)
func (r *TokenRepository) DeleteAllForUser(userID int64) error {
	query := "DELETE FROM refresh_tokens WHERE user_id = ?"
	if _, err := r.db.Exec(query, userID); err != nil {
		return fmt.Errorf("failed to delete refresh tokens: %w", err)
	}
	return nil
}

// DeleteExpiredBefore prunes refresh tokens that expired before the cutoff
func (r *TokenRepository) DeleteExpiredBefore(cutoff time.Time) error {
	query := "DELETE FROM refresh_tokens WHERE expires_at < ?"
	if _, err := r.db.Exec(query, cutoff); err != nil {
		return fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return nil
}
