package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/rasyidev/habitpoint/internal/model"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	UpdateTimezone(ctx context.Context, id uuid.UUID, timezone string) (*model.User, error)
	FindIDsByTimezone(ctx context.Context, timezone string) ([]uuid.UUID, error)
	DistinctTimezones(ctx context.Context) ([]string, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) UpdateTimezone(ctx context.Context, id uuid.UUID, timezone string) (*model.User, error) {
	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("timezone", timezone).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *userRepository) FindIDsByTimezone(ctx context.Context, timezone string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("timezone = ?", timezone).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *userRepository) DistinctTimezones(ctx context.Context) ([]string, error) {
	var zones []string
	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Distinct("timezone").
		Pluck("timezone", &zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}
