package models

import "time"

// RefreshToken stores a single-use opaque refresh token. The row is the
// session: deleted on logout, replaced on every refresh (rotation).
// Expired rows are rejected at lookup time; there is no background sweep.
type RefreshToken struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint      `gorm:"index;not null"`
	Token     string    `gorm:"size:64;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"index;not null"`
}
