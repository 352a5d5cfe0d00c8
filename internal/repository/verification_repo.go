package repository

import (
	"database/sql"
	"fmt"
	"time"

	"oyakatsu/internal/database"
	"oyakatsu/internal/models"
)

// VerificationRepository handles database operations for verification codes
type VerificationRepository struct {
	db *database.DB
}

// NewVerificationRepository creates a new verification code repository
func NewVerificationRepository(db *database.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// IssueCode invalidates any unused codes for the target and inserts a fresh
// one, in a single transaction. Only the newest code stays consumable.
func (r *VerificationRepository) IssueCode(target, code string, codeType models.CodeType, expiresAt time.Time) (*models.VerificationCode, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	query := "UPDATE verification_codes SET used_at = ? WHERE target = ? AND used_at IS NULL"
	if _, err := tx.Exec(query, now, target); err != nil {
		return nil, fmt.Errorf("failed to invalidate old codes: %w", err)
	}

	query = "INSERT INTO verification_codes (target, code, type, expires_at) VALUES (?, ?, ?, ?)"
	id, err := tx.ExecReturningID(query, target, code, string(codeType), expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create verification code: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.VerificationCode{
		ID:        id,
		Target:    target,
		Code:      code,
		Type:      codeType,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// ConsumeCode marks a code as used if it is still unused and unexpired.
// Returns false when no consumable row matched; the caller cannot tell
// not-found, expired and already-used apart.
func (r *VerificationRepository) ConsumeCode(target, code string) (bool, error) {
	now := time.Now()
	query := `
		UPDATE verification_codes
		SET used_at = ?
		WHERE target = ? AND code = ? AND used_at IS NULL AND expires_at > ?
	`
	result, err := r.db.Exec(query, now, target, code, now)
	if err != nil {
		return false, fmt.Errorf("failed to consume verification code: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read consume result: %w", err)
	}
	return rows > 0, nil
}

// GetLatestConsumed retrieves the most recently consumed code for a
// (target, code) pair. Used rows serve as the registration audit trail.
func (r *VerificationRepository) GetLatestConsumed(target, code string) (*models.VerificationCode, error) {
	query := `
		SELECT id, target, code, type, expires_at, used_at, created_at
		FROM verification_codes
		WHERE target = ? AND code = ? AND used_at IS NOT NULL
		ORDER BY used_at DESC
		LIMIT 1
	`
	vc := &models.VerificationCode{}
	var codeType string
	var usedAt sql.NullTime
	err := r.db.QueryRow(query, target, code).Scan(
		&vc.ID,
		&vc.Target,
		&vc.Code,
		&codeType,
		&vc.ExpiresAt,
		&usedAt,
		&vc.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification code: %w", err)
	}

	vc.Type = models.CodeType(codeType)
	if usedAt.Valid {
		vc.UsedAt = &usedAt.Time
	}
	return vc, nil
}

// DeleteExpiredBefore prunes codes whose expiry is older than the cutoff.
// Expiry itself is enforced at read time; this only keeps the table small.
func (r *VerificationRepository) DeleteExpiredBefore(cutoff time.Time) error {
	query := "DELETE FROM verification_codes WHERE expires_at < ?"
	if _, err := r.db.Exec(query, cutoff); err != nil {
		return fmt.Errorf("failed to delete expired codes: %w", err)
	}
	return nil
}
