package attachment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haleyhq/pulseboard/internal/entity"
)

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *entity.Attachment) error
	FindByID(ctx context.Context, companyID uuid.UUID, id uint) (*entity.Attachment, error)
	ListOrphansBefore(ctx context.Context, cutoff time.Time) ([]entity.Attachment, error)
	Delete(ctx context.Context, id uint) error
}

type attachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *entity.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *attachmentRepository) FindByID(ctx context.Context, companyID uuid.UUID, id uint) (*entity.Attachment, error) {
	var attachment entity.Attachment
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&attachment).Error
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

// ListOrphansBefore returns uploads that were never bound to a post.
func (r *attachmentRepository) ListOrphansBefore(ctx context.Context, cutoff time.Time) ([]entity.Attachment, error) {
	var orphans []entity.Attachment
	err := r.db.WithContext(ctx).
		Where("post_id IS NULL AND created_at < ?", cutoff).
		Find(&orphans).Error
	if err != nil {
		return nil, err
	}
	return orphans, nil
}

func (r *attachmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.Attachment{}, id).Error
}
