package company

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haleyhq/pulseboard/internal/entity"
)

type CompanyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Company, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Company, error)
	ListRetentionCandidates(ctx context.Context) ([]*entity.Company, error)
}

type companyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Company, error) {
	var company entity.Company
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) FindBySlug(ctx context.Context, slug string) (*entity.Company, error) {
	var company entity.Company
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) ListRetentionCandidates(ctx context.Context) ([]*entity.Company, error) {
	var companies []*entity.Company
	if err := r.db.WithContext(ctx).Where("retention_days > 0").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}
