package models

import "time"

// RefreshToken stores a hashed representation of a refresh token for session
// rotation and revocation. The raw token never touches the database; lookups
// go through the SHA-256 hash. Rows are soft-revoked via RevokedAt and kept
// for the rotation audit trail, never deleted by the service itself.
type RefreshToken struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint       `gorm:"index;not null"`
	User      User       `gorm:"foreignKey:UserID;references:ID"`
	TokenHash string     `gorm:"size:128;not null;uniqueIndex"`
	ExpiresAt time.Time  `gorm:"index;not null"`
	RevokedAt *time.Time `gorm:"index"`
}

// Usable reports whether the token can still authorize a refresh: not revoked
// and not past expiry. Expiry is derived, never written back.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
