package user

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	FullNameMinLength     = 3
	FullNameMaxLength     = 100
	PasswordMinimumLength = 8
)

var (
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmailFormat = errors.New("invalid email")
	ErrFullNameTooShort   = fmt.Errorf("full name must be at least %d characters long", FullNameMinLength)
	ErrFullNameTooLong    = fmt.Errorf("full name must be less than %d characters", FullNameMaxLength)
	ErrBirthDateRequired  = errors.New("birth date is required")
	ErrBirthDateInFuture  = errors.New("birth date must be in the past")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters long", PasswordMinimumLength)
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lowercases, so " A@B.COM " and "a@b.com" collide
// on the unique index.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail returns the normalized address or a validation error.
func ValidateEmail(email string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", ErrEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmailFormat
	}
	return email, nil
}

// ValidateFullName returns the trimmed name or a validation error.
func ValidateFullName(fullName string) (string, error) {
	fullName = strings.TrimSpace(fullName)
	if len(fullName) < FullNameMinLength {
		return "", ErrFullNameTooShort
	}
	if len(fullName) > FullNameMaxLength {
		return "", ErrFullNameTooLong
	}
	return fullName, nil
}

// ValidateBirthDate rejects the zero value and any date not strictly in the past.
func ValidateBirthDate(birthDate time.Time) error {
	if birthDate.IsZero() {
		return ErrBirthDateRequired
	}
	if !birthDate.Before(time.Now()) {
		return ErrBirthDateInFuture
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < PasswordMinimumLength {
		return ErrPasswordTooShort
	}
	return nil
}

// IsValidationError reports whether err belongs to the field-validation
// taxonomy, so handlers can map it to a 400 without enumerating sentinels.
func IsValidationError(err error) bool {
	for _, e := range []error{
		ErrEmailRequired,
		ErrInvalidEmailFormat,
		ErrFullNameTooShort,
		ErrFullNameTooLong,
		ErrBirthDateRequired,
		ErrBirthDateInFuture,
		ErrPasswordTooShort,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
