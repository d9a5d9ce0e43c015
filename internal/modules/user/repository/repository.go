package user

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haleyhq/pulseboard/internal/entity"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, companyID uuid.UUID, email string) (*entity.User, error)
	// FindIDsByNameOrTitle resolves a free-text people filter to author IDs
	// within one company, matching name or title case-insensitively. A query
	// matching nobody returns an empty slice, not an error.
	FindIDsByNameOrTitle(ctx context.Context, companyID uuid.UUID, query string) ([]uuid.UUID, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, companyID uuid.UUID, email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND email = ?", companyID, strings.ToLower(email)).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindIDsByNameOrTitle(ctx context.Context, companyID uuid.UUID, query string) ([]uuid.UUID, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("company_id = ?", companyID).
		Where("LOWER(name) LIKE ? OR LOWER(title) LIKE ?", pattern, pattern).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
