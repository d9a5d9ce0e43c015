package feed

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haleyhq/pulseboard/internal/entity"
)

// Match is the fully resolved set of filter criteria for one feed query.
// The service layer resolves free-text knobs (people, my_groups, q) into the
// concrete ID sets and bounds held here.
type Match struct {
	CompanyID uuid.UUID
	GroupID   *uuid.UUID

	Types        []string
	ExcludeTypes []string
	AuthorIDs    []uuid.UUID
	MatchNone    bool // people filter resolved to zero users
	GroupIDs     []uuid.UUID
	From         *time.Time
	To           *time.Time

	// BodyQuery switches the repository to the substring-scan search path,
	// ranked by recency only.
	BodyQuery string
}

// The three-tier default ranking: pinned first, then open polls, then recency.
// Poll activity is derived per row, not stored. The trailing id sort is an
// explicit tie-break so identical timestamps page deterministically.
const defaultOrder = "is_pinned DESC, " +
	"CASE WHEN type = 'POLL' AND poll_closed = false THEN 1 ELSE 0 END DESC, " +
	"created_at DESC, id DESC"

const recencyOrder = "created_at DESC, id DESC"

type FeedRepository interface {
	// QueryPosts returns one page plus the total match count. The count and
	// page queries run concurrently.
	QueryPosts(ctx context.Context, match Match, offset, limit int) ([]*entity.Post, int64, error)
	// FilterPostIDs narrows search candidates to those passing the match.
	FilterPostIDs(ctx context.Context, match Match, candidates []uuid.UUID) ([]uuid.UUID, error)
	// FindPostsByIDs loads full posts for a page of IDs, in arbitrary order.
	FindPostsByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Post, error)
	// UserGroupIDs lists groups where the user is owner, moderator or member.
	UserGroupIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type feedRepository struct {
	db *gorm.DB
}

func NewFeedRepository(db *gorm.DB) FeedRepository {
	return &feedRepository{db: db}
}

func (r *feedRepository) base(ctx context.Context, match Match) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&entity.Post{}).
		Where("company_id = ?", match.CompanyID).
		Where("deleted_at IS NULL").
		Where("status = ?", entity.PostStatusPublished)

	if match.GroupID != nil {
		query = query.Where("group_id = ?", *match.GroupID)
	}

	if match.MatchNone {
		// A people filter that resolves to nobody matches no posts, it does
		// not degrade to "ignore the filter".
		return query.Where("1 = 0")
	}

	if len(match.Types) > 0 {
		query = query.Where("type IN ?", match.Types)
	}
	if len(match.ExcludeTypes) > 0 {
		query = query.Where("type NOT IN ?", match.ExcludeTypes)
	}
	if len(match.AuthorIDs) > 0 {
		query = query.Where("author_id IN ?", match.AuthorIDs)
	}
	if len(match.GroupIDs) > 0 {
		query = query.Where("group_id IN ?", match.GroupIDs)
	}
	if match.From != nil {
		query = query.Where("created_at >= ?", *match.From)
	}
	if match.To != nil {
		query = query.Where("created_at <= ?", *match.To)
	}
	if match.BodyQuery != "" {
		// Portable case-insensitive substring scan; runs on postgres and on
		// the sqlite test database alike.
		pattern := "%" + likeEscape(strings.ToLower(match.BodyQuery)) + "%"
		query = query.Where(`LOWER(body) LIKE ? ESCAPE '\'`, pattern)
	}

	return query
}

func (r *feedRepository) QueryPosts(ctx context.Context, match Match, offset, limit int) ([]*entity.Post, int64, error) {
	order := defaultOrder
	if match.BodyQuery != "" {
		order = recencyOrder
	}

	var (
		wg       sync.WaitGroup
		posts    []*entity.Post
		total    int64
		countErr error
		findErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		countErr = r.base(ctx, match).Count(&total).Error
	}()
	go func() {
		defer wg.Done()
		findErr = r.base(ctx, match).
			Preload("Author").
			Preload("Group").
			Preload("Attachments", func(db *gorm.DB) *gorm.DB {
				return db.Order("attachments.created_at ASC")
			}).
			Order(order).
			Offset(offset).
			Limit(limit).
			Find(&posts).Error
	}()
	wg.Wait()

	if countErr != nil {
		return nil, 0, countErr
	}
	if findErr != nil {
		return nil, 0, findErr
	}
	return posts, total, nil
}

func (r *feedRepository) FilterPostIDs(ctx context.Context, match Match, candidates []uuid.UUID) ([]uuid.UUID, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	var ids []uuid.UUID
	err := r.base(ctx, match).
		Where("id IN ?", candidates).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *feedRepository) FindPostsByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var posts []*entity.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("attachments.created_at ASC")
		}).
		Where("id IN ?", ids).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *feedRepository) UserGroupIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.GroupMember{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// likeEscape neutralizes LIKE metacharacters in user queries so "50%" matches
// the literal text.
func likeEscape(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
