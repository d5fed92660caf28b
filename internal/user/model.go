package user

import (
	"time"

	"gorm.io/gorm"
)

// ContextUserKey is the key under which the authenticated User is stored in Gin context.
const ContextUserKey = "user"

// User represents a registered account.
// swagger:model UserResponse
type User struct {
	gorm.Model
	FullName string `json:"fullName" gorm:"not null"`
	// Email address (unique, stored trimmed and lowercased)
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	BirthDate time.Time `json:"birthDate" gorm:"not null"`
	// Password hash (hidden from JSON)
	PasswordHash string `json:"-" gorm:"not null"`
}

// Profile is the public projection of a User: no hash, no timestamps.
type Profile struct {
	ID        uint   `json:"id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	BirthDate string `json:"birthDate"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		BirthDate: u.BirthDate.Format("2006-01-02"),
	}
}
