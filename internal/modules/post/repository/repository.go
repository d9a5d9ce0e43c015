package post

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haleyhq/pulseboard/internal/entity"
)

var ErrDuplicateVote = errors.New("poll vote already recorded")

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*entity.Post, error)
	Save(ctx context.Context, post *entity.Post) error
	UpdateColumns(ctx context.Context, id uuid.UUID, values map[string]any) error
	ClaimAttachments(ctx context.Context, companyID, postID uuid.UUID, ids []uint) error
	ListQueued(ctx context.Context, companyID uuid.UUID, page, limit int) ([]entity.Post, int64, error)
	CreateVote(ctx context.Context, vote *entity.PollVote) error
	ViewerReaction(ctx context.Context, postID, userID uuid.UUID) (string, error)
	PurgeDeletedBefore(ctx context.Context, companyID uuid.UUID, cutoff time.Time) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*entity.Post, error) {
	var post entity.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("attachments.created_at ASC")
		}).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Save(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *postRepository) UpdateColumns(ctx context.Context, id uuid.UUID, values map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&entity.Post{}).
		Where("id = ?", id).
		Updates(values).Error
}

// ClaimAttachments binds pre-uploaded, unclaimed attachments of the same
// tenant to a post. IDs belonging to another tenant or already claimed are
// silently skipped.
func (r *postRepository) ClaimAttachments(ctx context.Context, companyID, postID uuid.UUID, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&entity.Attachment{}).
		Where("id IN ? AND company_id = ? AND post_id IS NULL", ids, companyID).
		Update("post_id", postID).Error
}

func (r *postRepository) ListQueued(ctx context.Context, companyID uuid.UUID, page, limit int) ([]entity.Post, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&entity.Post{}).
		Where("company_id = ? AND status = ? AND deleted_at IS NULL", companyID, entity.PostStatusQueued)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []entity.Post
	err := query.
		Preload("Author").
		Preload("Group").
		Preload("Attachments").
		Order("created_at ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) CreateVote(ctx context.Context, vote *entity.PollVote) error {
	err := r.db.WithContext(ctx).Create(vote).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateVote
	}
	return err
}

func (r *postRepository) ViewerReaction(ctx context.Context, postID, userID uuid.UUID) (string, error) {
	var reaction entity.Reaction
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		First(&reaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return reaction.Type, nil
}

// PurgeDeletedBefore hard-deletes posts soft-deleted before the cutoff, along
// with their dependent rows. Ledger rows stay; the points history is immutable.
func (r *postRepository) PurgeDeletedBefore(ctx context.Context, companyID uuid.UUID, cutoff time.Time) (int64, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.Post{}).
		Where("company_id = ? AND deleted_at IS NOT NULL AND deleted_at < ?", companyID, cutoff).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	return int64(len(ids)), r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id IN ?", ids).Delete(&entity.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id IN ?", ids).Delete(&entity.PollVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id IN ?", ids).Delete(&entity.Attachment{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&entity.Post{}).Error
	})
}
