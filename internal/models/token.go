package models

import "time"

// RefreshToken is a persisted long-lived credential. The row's existence is
// what makes the token valid; rotation deletes it and inserts a successor,
// logout deletes all rows for the user.
type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the token's lifetime has passed.
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
