package post

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	appcache "github.com/haleyhq/pulseboard/internal/cache"
	"github.com/haleyhq/pulseboard/internal/entity"
	companyRepo "github.com/haleyhq/pulseboard/internal/modules/company/repository"
	feedDto "github.com/haleyhq/pulseboard/internal/modules/feed/dto"
	pointsSvc "github.com/haleyhq/pulseboard/internal/modules/points/service"
	postDto "github.com/haleyhq/pulseboard/internal/modules/post/dto"
	postRepo "github.com/haleyhq/pulseboard/internal/modules/post/repository"
	searchSvc "github.com/haleyhq/pulseboard/internal/modules/search/service"
	viewSvc "github.com/haleyhq/pulseboard/internal/modules/view/service"
	"github.com/haleyhq/pulseboard/pkg/apperror"
	"github.com/haleyhq/pulseboard/pkg/dto"
)

const (
	minPollOptions = 2
	maxPollOptions = 10
)

type PostService interface {
	Create(ctx context.Context, company *entity.Company, authorID uuid.UUID, role string, req postDto.CreatePostRequest) (*postDto.PostDetail, error)
	Get(ctx context.Context, company *entity.Company, postID, viewerID uuid.UUID) (*postDto.PostDetail, bool, error)
	ListQueue(ctx context.Context, company *entity.Company, page, limit int) (*postDto.QueuePage, error)
	Moderate(ctx context.Context, company *entity.Company, postID uuid.UUID, action string) (*postDto.PostDetail, error)
	Delete(ctx context.Context, company *entity.Company, postID, actorID uuid.UUID, role string) error
	VotePoll(ctx context.Context, company *entity.Company, postID, userID uuid.UUID, optionID string) (*postDto.PostDetail, error)
	ClosePoll(ctx context.Context, company *entity.Company, postID, actorID uuid.UUID, role string) error
	SetPinned(ctx context.Context, company *entity.Company, postID uuid.UUID, pinned bool) error
	StartRetentionSweep(ctx context.Context, interval time.Duration)
}

type postService struct {
	repo      postRepo.PostRepository
	companies companyRepo.CompanyRepository
	points    pointsSvc.PointsService
	search    searchSvc.SearchService
	cache     *appcache.Microcache
	views     viewSvc.ViewService
	sanitizer *bluemonday.Policy
}

func NewPostService(
	repo postRepo.PostRepository,
	companies companyRepo.CompanyRepository,
	points pointsSvc.PointsService,
	search searchSvc.SearchService,
	cache *appcache.Microcache,
	views viewSvc.ViewService,
) PostService {
	return &postService{
		repo:      repo,
		companies: companies,
		points:    points,
		search:    search,
		cache:     cache,
		views:     views,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

func (s *postService) Create(ctx context.Context, company *entity.Company, authorID uuid.UUID, role string, req postDto.CreatePostRequest) (*postDto.PostDetail, error) {
	body := strings.TrimSpace(s.sanitizer.Sanitize(req.Body))

	post := &entity.Post{
		CompanyID: company.ID,
		AuthorID:  authorID,
		Type:      req.Type,
		Body:      body,
		LinkURL:   req.LinkURL,
	}

	if req.GroupID != nil {
		groupID, err := uuid.Parse(*req.GroupID)
		if err != nil {
			return nil, apperror.ErrInvalidInput
		}
		post.GroupID = &groupID
	}

	if err := s.validateCreate(post, role, req); err != nil {
		return nil, err
	}

	if req.Type == entity.PostTypePoll {
		post.PollQuestion = req.PollQuestion
		options := make(entity.PollOptions, 0, len(req.PollOptions))
		for _, text := range req.PollOptions {
			options = append(options, entity.PollOption{
				ID:   uuid.NewString(),
				Text: strings.TrimSpace(text),
			})
		}
		post.PollOptions = options
	}

	// Members of a moderated company post into the review queue. Moderators
	// and admins publish directly everywhere.
	if company.PostingMode == entity.PostingModeModerated && role == entity.RoleMember {
		post.Status = entity.PostStatusQueued
	} else {
		now := time.Now().UTC()
		post.Status = entity.PostStatusPublished
		post.PublishedAt = &now
	}

	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}
	if err := s.repo.ClaimAttachments(ctx, company.ID, post.ID, req.AttachmentIDs); err != nil {
		log.Printf("post: claim attachments for %s: %v", post.ID, err)
	}

	if post.Status == entity.PostStatusPublished {
		s.publishSideEffects(ctx, company, post)
	}

	full, err := s.repo.FindByID(ctx, company.ID, post.ID)
	if err != nil {
		return nil, err
	}
	detail := buildPostDetail(full)
	return &detail, nil
}

func (s *postService) validateCreate(post *entity.Post, role string, req postDto.CreatePostRequest) error {
	switch post.Type {
	case entity.PostTypeText:
		if post.Body == "" {
			return apperror.ErrInvalidInput
		}
	case entity.PostTypeLink:
		if post.LinkURL == nil || *post.LinkURL == "" {
			return apperror.ErrInvalidInput
		}
	case entity.PostTypeImage:
		if len(req.AttachmentIDs) == 0 {
			return apperror.ErrInvalidInput
		}
	case entity.PostTypePoll:
		if req.PollQuestion == nil || strings.TrimSpace(*req.PollQuestion) == "" {
			return apperror.ErrInvalidInput
		}
		if len(req.PollOptions) < minPollOptions || len(req.PollOptions) > maxPollOptions {
			return apperror.ErrInvalidInput
		}
	case entity.PostTypeAnnouncement:
		if role == entity.RoleMember {
			return apperror.ErrForbidden
		}
		if post.Body == "" {
			return apperror.ErrInvalidInput
		}
	default:
		return apperror.ErrInvalidInput
	}
	return nil
}

// publishSideEffects runs everything that happens when a post goes live:
// author scoring, search indexing, feed invalidation. All best-effort.
func (s *postService) publishSideEffects(ctx context.Context, company *entity.Company, post *entity.Post) {
	err := s.points.Award(ctx, pointsSvc.AwardInput{
		CompanyID:  company.ID,
		UserID:     post.AuthorID,
		Action:     pointsSvc.ActionPostCreated,
		TargetType: "POST",
		TargetID:   post.ID.String(),
		Meta:       pointsSvc.AwardMeta{PostID: post.ID.String()},
	})
	if err != nil {
		log.Printf("post: award creation points for %s: %v", post.ID, err)
	}

	if s.search != nil {
		if err := s.search.IndexPost(post); err != nil {
			log.Printf("post: index %s: %v", post.ID, err)
		}
	}

	s.bustFeeds(ctx, company, post)
}

func (s *postService) bustFeeds(ctx context.Context, company *entity.Company, post *entity.Post) {
	s.cache.BustCompany(ctx, company.Slug)
	if post.GroupID != nil {
		s.cache.BustGroup(ctx, company.Slug, *post.GroupID)
	}
}

// Get returns the shared cached post view with the viewer's reaction attached
// per request, and registers a view.
func (s *postService) Get(ctx context.Context, company *entity.Company, postID, viewerID uuid.UUID) (*postDto.PostDetail, bool, error) {
	key := appcache.PostKey(company.Slug, postID)
	ttl := appcache.TTLFor("/posts/" + postID.String())

	detail, fromCache, err := appcache.GetOrSet(ctx, s.cache, key, ttl, func(ctx context.Context) (postDto.PostDetail, error) {
		post, err := s.repo.FindByID(ctx, company.ID, postID)
		if err != nil {
			return postDto.PostDetail{}, apperror.ErrNotFound
		}
		if post.Status != entity.PostStatusPublished || post.DeletedAt != nil {
			return postDto.PostDetail{}, apperror.ErrNotFound
		}
		return buildPostDetail(post), nil
	})
	if err != nil {
		return nil, false, err
	}

	if reaction, err := s.repo.ViewerReaction(ctx, postID, viewerID); err == nil {
		detail.ViewerReaction = reaction
	}

	if s.views != nil {
		s.views.RecordView(ctx, company.Slug, postID, viewerID)
	}

	return &detail, fromCache, nil
}

func (s *postService) ListQueue(ctx context.Context, company *entity.Company, page, limit int) (*postDto.QueuePage, error) {
	// Same clamp policy as the feed filters.
	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = feedDto.DefaultLimit
	case limit < feedDto.MinLimit:
		limit = feedDto.MinLimit
	case limit > feedDto.MaxLimit:
		limit = feedDto.MaxLimit
	}

	posts, total, err := s.repo.ListQueued(ctx, company.ID, page, limit)
	if err != nil {
		return nil, err
	}

	items := make([]postDto.PostDetail, 0, len(posts))
	for i := range posts {
		items = append(items, buildPostDetail(&posts[i]))
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &postDto.QueuePage{
		Items: items,
		Meta: dto.PaginationMeta{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalItems:  total,
			Limit:       limit,
		},
	}, nil
}

func (s *postService) Moderate(ctx context.Context, company *entity.Company, postID uuid.UUID, action string) (*postDto.PostDetail, error) {
	post, err := s.repo.FindByID(ctx, company.ID, postID)
	if err != nil {
		return nil, apperror.ErrNotFound
	}
	if post.Status != entity.PostStatusQueued || post.DeletedAt != nil {
		return nil, apperror.ErrConflict
	}

	switch action {
	case "APPROVE":
		now := time.Now().UTC()
		post.Status = entity.PostStatusPublished
		post.PublishedAt = &now
		if err := s.repo.UpdateColumns(ctx, post.ID, map[string]any{
			"status":       post.Status,
			"published_at": post.PublishedAt,
		}); err != nil {
			return nil, err
		}
		s.publishSideEffects(ctx, company, post)
	case "REJECT":
		post.Status = entity.PostStatusRejected
		if err := s.repo.UpdateColumns(ctx, post.ID, map[string]any{"status": post.Status}); err != nil {
			return nil, err
		}
	default:
		return nil, apperror.ErrInvalidInput
	}

	detail := buildPostDetail(post)
	return &detail, nil
}

func (s *postService) Delete(ctx context.Context, company *entity.Company, postID, actorID uuid.UUID, role string) error {
	post, err := s.repo.FindByID(ctx, company.ID, postID)
	if err != nil {
		return apperror.ErrNotFound
	}
	if post.DeletedAt != nil {
		return apperror.ErrNotFound
	}
	if post.AuthorID != actorID && role == entity.RoleMember {
		return apperror.ErrForbidden
	}

	wasPublished := post.Status == entity.PostStatusPublished
	now := time.Now().UTC()
	if err := s.repo.UpdateColumns(ctx, post.ID, map[string]any{"deleted_at": &now}); err != nil {
		return err
	}

	if s.search != nil {
		if err := s.search.DeletePost(post.ID.String()); err != nil {
			log.Printf("post: deindex %s: %v", post.ID, err)
		}
	}

	if wasPublished {
		err := s.points.Award(ctx, pointsSvc.AwardInput{
			CompanyID:  company.ID,
			UserID:     post.AuthorID,
			Action:     pointsSvc.ActionPostCreated,
			TargetType: "POST",
			TargetID:   post.ID.String(),
			Meta:       pointsSvc.AwardMeta{PostID: post.ID.String()},
			Polarity:   -1,
		})
		if err != nil {
			log.Printf("post: reverse creation points for %s: %v", post.ID, err)
		}
	}

	s.cache.BustPost(ctx, company.Slug, post.ID)
	s.bustFeeds(ctx, company, post)
	return nil
}

func (s *postService) VotePoll(ctx context.Context, company *entity.Company, postID, userID uuid.UUID, optionID string) (*postDto.PostDetail, error) {
	post, err := s.repo.FindByID(ctx, company.ID, postID)
	if err != nil {
		return nil, apperror.ErrNotFound
	}
	if post.Status != entity.PostStatusPublished || post.DeletedAt != nil || !post.IsActivePoll() {
		return nil, apperror.ErrConflict
	}

	optionIdx := -1
	for i, option := range post.PollOptions {
		if option.ID == optionID {
			optionIdx = i
			break
		}
	}
	if optionIdx < 0 {
		return nil, apperror.ErrInvalidInput
	}

	err = s.repo.CreateVote(ctx, &entity.PollVote{
		PostID:   postID,
		UserID:   userID,
		OptionID: optionID,
	})
	if err != nil {
		if err == postRepo.ErrDuplicateVote {
			return nil, apperror.ErrConflict
		}
		return nil, err
	}

	post.PollOptions[optionIdx].Votes++
	if err := s.repo.UpdateColumns(ctx, post.ID, map[string]any{"poll_options": post.PollOptions}); err != nil {
		log.Printf("post: update poll tally for %s: %v", post.ID, err)
	}

	err = s.points.Award(ctx, pointsSvc.AwardInput{
		CompanyID:  company.ID,
		UserID:     userID,
		Action:     pointsSvc.ActionPollVoted,
		TargetType: "POST",
		TargetID:   post.ID.String(),
		Meta:       pointsSvc.AwardMeta{PostID: post.ID.String()},
	})
	if err != nil {
		log.Printf("post: award poll vote points: %v", err)
	}

	// Feed cards carry per-option tallies, so the vote has to push them out too.
	s.cache.BustPost(ctx, company.Slug, post.ID)
	s.bustFeeds(ctx, company, post)

	detail := buildPostDetail(post)
	return &detail, nil
}

func (s *postService) ClosePoll(ctx context.Context, company *entity.Company, postID, actorID uuid.UUID, role string) error {
	post, err := s.repo.FindByID(ctx, company.ID, postID)
	if err != nil {
		return apperror.ErrNotFound
	}
	if post.Type != entity.PostTypePoll || post.DeletedAt != nil {
		return apperror.ErrNotFound
	}
	if post.AuthorID != actorID && role == entity.RoleMember {
		return apperror.ErrForbidden
	}
	if post.PollClosed {
		return nil
	}

	if err := s.repo.UpdateColumns(ctx, post.ID, map[string]any{"poll_closed": true}); err != nil {
		return err
	}

	// A closed poll drops out of the open-poll ranking tier.
	s.cache.BustPost(ctx, company.Slug, post.ID)
	s.bustFeeds(ctx, company, post)
	return nil
}

func (s *postService) SetPinned(ctx context.Context, company *entity.Company, postID uuid.UUID, pinned bool) error {
	post, err := s.repo.FindByID(ctx, company.ID, postID)
	if err != nil {
		return apperror.ErrNotFound
	}
	if post.DeletedAt != nil {
		return apperror.ErrNotFound
	}

	if err := s.repo.UpdateColumns(ctx, post.ID, map[string]any{"is_pinned": pinned}); err != nil {
		return err
	}

	s.cache.BustPost(ctx, company.Slug, post.ID)
	s.bustFeeds(ctx, company, post)
	return nil
}
