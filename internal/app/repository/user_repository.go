package repository

import (
	"context"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateEmail(ctx context.Context, id uint, email string) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error

	SetResetToken(ctx context.Context, id uint, tokenHash string, expires time.Time) error
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (bool, error)
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"email": user.Email,
	})

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateEmail returns gorm.ErrRecordNotFound when no row has id.
func (r *userRepository) UpdateEmail(ctx context.Context, id uint, email string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"email": email})
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"password": passwordHash})
}

// SetResetToken stores a token hash and its expiry, replacing any token the
// user already had.
func (r *userRepository) SetResetToken(ctx context.Context, id uint, tokenHash string, expires time.Time) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"reset_password_token":   tokenHash,
		"reset_password_expires": expires,
	})
}

// ConsumeResetToken sets the password and clears the token in one conditional
// UPDATE. Only one caller can match a given token, so the token is single-use
// even under concurrent requests. false means no live token matched.
func (r *userRepository) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("reset_password_token = ? AND reset_password_expires > ?", tokenHash, now).
		Updates(map[string]interface{}{
			"password":               passwordHash,
			"reset_password_token":   nil,
			"reset_password_expires": nil,
			"updated_at":             now,
		})
	if result.Error != nil {
		logger.Error("Failed to consume reset token", result.Error, nil)
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ClearExpiredResetTokens nulls token pairs whose expiry is at or before now.
func (r *userRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("reset_password_token IS NOT NULL AND reset_password_expires <= ?", now).
		Updates(map[string]interface{}{
			"reset_password_token":   nil,
			"reset_password_expires": nil,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *userRepository) updateColumns(ctx context.Context, id uint, columns map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		logger.Error("Failed to update user in database", result.Error, map[string]interface{}{
			"user_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
