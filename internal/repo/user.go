package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/adityaprs/klinik-auth/internal/models"
)

var ErrNotFound = errors.New("record not found")

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) FindByNIK(ctx context.Context, nik string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("nik = ?", nik).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByNIKAndName matches the NIK exactly and the name without regard to
// case, which is how OCR-extracted names come in.
func (r *GormRepo) FindByNIKAndName(ctx context.Context, nik, name string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Where("nik = ? AND LOWER(name) = LOWER(?)", nik, name).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) FindByEmailOrNIK(ctx context.Context, email, nik string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Where("email = ? OR nik = ?", email, nik).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateRefreshTokenHash overwrites the stored refresh-token hash. A nil
// hash clears it.
func (r *GormRepo) UpdateRefreshTokenHash(ctx context.Context, id string, tokenHash *string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("refresh_token_hash", tokenHash).Error
}

func (r *GormRepo) UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	result := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("role", role)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *GormRepo) Create(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}
