package session

import (
	"time"

	"gorm.io/gorm"
)

// RefreshTokenRecord persists one issued refresh token. Records sharing a
// FamilyID form a single rotation chain originating from one login; under
// correct client behavior at most one record per family is unrevoked and
// unexpired at any time.
type RefreshTokenRecord struct {
	gorm.Model
	// Token is the full signed refresh JWT, used as the lookup key.
	Token     string    `gorm:"uniqueIndex;not null"`
	UserID    uint      `gorm:"index;not null"`
	FamilyID  string    `gorm:"index;not null"`
	IsRevoked bool      `gorm:"not null;default:false"`
	ExpiresAt time.Time `gorm:"index;not null"`
}
