package reaction

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haleyhq/pulseboard/internal/entity"
)

type ReactionRepository interface {
	FindByPostAndUser(ctx context.Context, postID, userID uuid.UUID) (*entity.Reaction, error)
	Create(ctx context.Context, reaction *entity.Reaction) error
	UpdateType(ctx context.Context, id uint, newType string) error
	Delete(ctx context.Context, id uint) error
	FindVisiblePost(ctx context.Context, companyID, postID uuid.UUID) (*entity.Post, error)
	AdjustPostCounts(ctx context.Context, postID uuid.UUID, deltas map[string]int) (entity.ReactionCounts, error)
}

type reactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) FindByPostAndUser(ctx context.Context, postID, userID uuid.UUID) (*entity.Reaction, error) {
	var reaction entity.Reaction
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		First(&reaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

func (r *reactionRepository) Create(ctx context.Context, reaction *entity.Reaction) error {
	return r.db.WithContext(ctx).Create(reaction).Error
}

func (r *reactionRepository) UpdateType(ctx context.Context, id uint, newType string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Reaction{}).
		Where("id = ?", id).
		Update("type", newType).Error
}

func (r *reactionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.Reaction{}, id).Error
}

func (r *reactionRepository) FindVisiblePost(ctx context.Context, companyID, postID uuid.UUID) (*entity.Post, error) {
	var post entity.Post
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ? AND status = ? AND deleted_at IS NULL",
			postID, companyID, entity.PostStatusPublished).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// AdjustPostCounts applies per-type deltas to the post's denormalized tally
// and returns the new counts. The tally is a UI hint; a lost update here is
// acceptable and self-corrects on the next adjustment.
func (r *reactionRepository) AdjustPostCounts(ctx context.Context, postID uuid.UUID, deltas map[string]int) (entity.ReactionCounts, error) {
	var post entity.Post
	if err := r.db.WithContext(ctx).Select("id", "reaction_counts").First(&post, "id = ?", postID).Error; err != nil {
		return nil, err
	}
	counts := post.ReactionCounts
	if counts == nil {
		counts = entity.ReactionCounts{}
	}
	for typ, delta := range deltas {
		next := counts[typ] + delta
		if next <= 0 {
			delete(counts, typ)
			continue
		}
		counts[typ] = next
	}
	err := r.db.WithContext(ctx).
		Model(&entity.Post{}).
		Where("id = ?", postID).
		Update("reaction_counts", counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
