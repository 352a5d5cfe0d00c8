package repository

import (
	"fmt"

	"oyakatsu/internal/database"
	"oyakatsu/internal/models"
)

// DeviceRepository handles database operations for push device tokens
type DeviceRepository struct {
	db *database.DB
}

// NewDeviceRepository creates a new device token repository
func NewDeviceRepository(db *database.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// UpsertToken registers a device token for a user, updating the platform if
// the (user, token) pair already exists.
func (r *DeviceRepository) UpsertToken(userID int64, token string, platform models.Platform) error {
	query := `
		UPDATE device_tokens
		SET platform = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND token = ?
	`
	result, err := r.db.Exec(query, string(platform), userID, token)
	if err != nil {
		return fmt.Errorf("failed to update device token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows > 0 {
		return nil
	}

	query = "INSERT INTO device_tokens (user_id, token, platform) VALUES (?, ?, ?)"
	if _, err := r.db.Exec(query, userID, token, string(platform)); err != nil {
		// Concurrent registration of the same pair; the row exists, which is
		// all the caller needs.
		if r.db.IsUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("failed to create device token: %w", err)
	}
	return nil
}
