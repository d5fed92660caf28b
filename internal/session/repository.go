package session

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrRecordNotFoundByGivenToken = errors.New("record not found by given token")
	ErrUnresponsiveDatabase       = errors.New("error occurred during writing to records table")
)

type RecordRepository interface {
	Create(ctx context.Context, record *RefreshTokenRecord) error
	ReadByToken(ctx context.Context, token string) (*RefreshTokenRecord, error)
	// ListByUserID returns the user's records ordered by expires_at
	// descending: most-future first.
	ListByUserID(ctx context.Context, userID uint) ([]RefreshTokenRecord, error)
	Save(ctx context.Context, record *RefreshTokenRecord) error
	// RevokeFamily marks every record of a rotation chain revoked.
	RevokeFamily(ctx context.Context, familyID string) error
	Delete(ctx context.Context, id uint) error
}

type recordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) Create(ctx context.Context, record *RefreshTokenRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return ErrUnresponsiveDatabase
	}
	return nil
}

func (r *recordRepository) ReadByToken(ctx context.Context, token string) (*RefreshTokenRecord, error) {
	var record RefreshTokenRecord
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&record).
		Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFoundByGivenToken
	}
	if err != nil {
		return nil, ErrUnresponsiveDatabase
	}
	return &record, nil
}

func (r *recordRepository) ListByUserID(ctx context.Context, userID uint) ([]RefreshTokenRecord, error) {
	var records []RefreshTokenRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("expires_at DESC").
		Find(&records).
		Error
	if err != nil {
		return nil, ErrUnresponsiveDatabase
	}
	return records, nil
}

func (r *recordRepository) Save(ctx context.Context, record *RefreshTokenRecord) error {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return ErrUnresponsiveDatabase
	}
	return nil
}

func (r *recordRepository) RevokeFamily(ctx context.Context, familyID string) error {
	err := r.db.WithContext(ctx).
		Model(&RefreshTokenRecord{}).
		Where("family_id = ?", familyID).
		Update("is_revoked", true).
		Error
	if err != nil {
		return ErrUnresponsiveDatabase
	}
	return nil
}

func (r *recordRepository) Delete(ctx context.Context, id uint) error {
	// Hard delete: the cleanup sweep garbage-collects dead rows for good.
	err := r.db.WithContext(ctx).
		Unscoped().
		Delete(&RefreshTokenRecord{}, id).
		Error
	if err != nil {
		return ErrUnresponsiveDatabase
	}
	return nil
}
