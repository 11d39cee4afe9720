package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// DeviceTokenRepository defines persistence operations for refresh-token records.
type DeviceTokenRepository interface {
	Create(ctx context.Context, token *models.DeviceToken) error
	GetActiveByTokenID(ctx context.Context, tokenID string) (models.DeviceToken, error)
	Revoke(ctx context.Context, tokenID string) error
	RevokeAllForUser(ctx context.Context, userID uint) error
	Touch(ctx context.Context, tokenID string, at time.Time) error
}

type deviceTokenRepository struct {
	db *gorm.DB
}

// NewDeviceTokenRepository instantiates a GORM-backed repository.
func NewDeviceTokenRepository(db *gorm.DB) DeviceTokenRepository {
	return &deviceTokenRepository{db: db}
}

func (r *deviceTokenRepository) Create(ctx context.Context, token *models.DeviceToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *deviceTokenRepository) GetActiveByTokenID(ctx context.Context, tokenID string) (models.DeviceToken, error) {
	var token models.DeviceToken
	err := r.db.WithContext(ctx).Where("token_id = ? AND active = ?", tokenID, true).First(&token).Error
	if err != nil {
		return models.DeviceToken{}, err
	}
	return token, nil
}

// Revoke soft-revokes the token. The row stays for auditability.
func (r *deviceTokenRepository) Revoke(ctx context.Context, tokenID string) error {
	result := r.db.WithContext(ctx).Model(&models.DeviceToken{}).
		Where("token_id = ? AND active = ?", tokenID, true).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *deviceTokenRepository) RevokeAllForUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Model(&models.DeviceToken{}).
		Where("user_id = ?", userID).
		Update("active", false).Error
}

func (r *deviceTokenRepository) Touch(ctx context.Context, tokenID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.DeviceToken{}).
		Where("token_id = ?", tokenID).
		Update("last_used_at", at).Error
}
