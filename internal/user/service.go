package user

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrHashingPasswordFailed = errors.New("hashing password failed")
	ErrWrongPassword         = errors.New("wrong password")
)

// UserUpdate carries the fields of a partial profile update; nil means
// "leave unchanged".
type UserUpdate struct {
	FullName  *string
	Email     *string
	BirthDate *time.Time
}

type UserService interface {
	CreateUser(ctx context.Context, fullName, email string, birthDate time.Time, password string) (*User, error)
	ReadUserByEmail(ctx context.Context, email string) (*User, error)
	ReadUserByID(ctx context.Context, id uint) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id uint, update UserUpdate) error
	UpdatePassword(ctx context.Context, id uint, oldPassword, newPassword string) error
	CheckPassword(user *User, password string) bool
}

type userService struct {
	repo   UserRepository
	logger *zap.Logger
}

func NewUserService(repo UserRepository, logger *zap.Logger) UserService {
	return &userService{
		repo:   repo,
		logger: logger,
	}
}

/** CREATE */
func (s *userService) CreateUser(ctx context.Context, fullName, email string, birthDate time.Time, password string) (*User, error) {
	email, err := ValidateEmail(email)
	if err != nil {
		return nil, err
	}
	fullName, err = ValidateFullName(fullName)
	if err != nil {
		return nil, err
	}
	if err := ValidateBirthDate(birthDate); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	if _, err := s.repo.ReadByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		FullName:     fullName,
		Email:        email,
		BirthDate:    birthDate,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		s.logger.Error("failed to create user in repository", zap.Error(err))
		return nil, err
	}
	return user, nil
}

/** READ */
func (s *userService) ReadUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.ReadByEmail(ctx, NormalizeEmail(email))
}

func (s *userService) ReadUserByID(ctx context.Context, id uint) (*User, error) {
	return s.repo.ReadByID(ctx, id)
}

func (s *userService) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ReadAll(ctx)
}

/** UPDATE */
func (s *userService) UpdateUser(ctx context.Context, id uint, update UserUpdate) error {
	user, err := s.repo.ReadByID(ctx, id)
	if err != nil {
		return err
	}

	if update.FullName != nil {
		fullName, err := ValidateFullName(*update.FullName)
		if err != nil {
			return err
		}
		user.FullName = fullName
	}
	if update.Email != nil {
		email, err := ValidateEmail(*update.Email)
		if err != nil {
			return err
		}
		if email != user.Email {
			owner, err := s.repo.ReadByEmail(ctx, email)
			if err == nil && owner.ID != id {
				return ErrEmailAlreadyExists
			}
			if err != nil && !errors.Is(err, ErrUserNotFound) {
				return err
			}
		}
		user.Email = email
	}
	if update.BirthDate != nil {
		if err := ValidateBirthDate(*update.BirthDate); err != nil {
			return err
		}
		user.BirthDate = *update.BirthDate
	}

	if err := s.repo.Update(ctx, user); err != nil {
		s.logger.Error("failed to update user in repository", zap.Uint("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *userService) UpdatePassword(ctx context.Context, id uint, oldPassword, newPassword string) error {
	user, err := s.repo.ReadByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.CheckPassword(user, oldPassword) {
		return ErrWrongPassword
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	if err := s.repo.Update(ctx, user); err != nil {
		s.logger.Error("failed to update password in repository", zap.Uint("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *userService) CheckPassword(user *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// hashPassword runs right before every persistence of a plaintext password,
// on creation and on password change.
func (s *userService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return "", ErrHashingPasswordFailed
	}
	return string(hash), nil
}
