package repository

import (
	"database/sql"
	"fmt"
	"time"

	"oyakatsu/internal/database"
	"oyakatsu/internal/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, COALESCE(phone_number, ''), COALESCE(email, ''), COALESCE(password_hash, ''),
	display_name, COALESCE(avatar_url, ''), COALESCE(role, ''), created_at, updated_at
`

// CreateUser inserts a new user. Phone number, email and password hash are
// stored as NULL when empty so the unique indexes only bind real values.
func (r *UserRepository) CreateUser(phoneNumber, email, passwordHash, displayName string) (*models.User, error) {
	query := `
		INSERT INTO users (phone_number, email, password_hash, display_name)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query,
		nullable(phoneNumber), nullable(email), nullable(passwordHash), displayName)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	now := time.Now()
	return &models.User{
		ID:           id,
		PhoneNumber:  phoneNumber,
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(id int64) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return r.scanUser(r.db.QueryRow(query, id))
}

// GetUserByTarget retrieves a user whose phone number or email matches the
// verification target.
func (r *UserRepository) GetUserByTarget(target string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE phone_number = ? OR email = ?"
	return r.scanUser(r.db.QueryRow(query, target, target))
}

// UpdateDisplayName updates a user's display name
func (r *UserRepository) UpdateDisplayName(id int64, displayName string) error {
	query := "UPDATE users SET display_name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, displayName, id); err != nil {
		return fmt.Errorf("failed to update display name: %w", err)
	}
	return nil
}

// SetRole assigns a role to a user that has none yet. Returns false when the
// role was already set (the guard is part of the UPDATE, so two concurrent
// calls cannot both win).
func (r *UserRepository) SetRole(id int64, role models.Role) (bool, error) {
	query := `
		UPDATE users
		SET role = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND role IS NULL
	`
	result, err := r.db.Exec(query, string(role), id)
	if err != nil {
		return false, fmt.Errorf("failed to set role: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read role update result: %w", err)
	}
	return rows > 0, nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var role string
	err := row.Scan(
		&user.ID,
		&user.PhoneNumber,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.AvatarURL,
		&role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role = models.Role(role)
	return user, nil
}

// nullable maps an empty string to NULL for optional unique columns
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
