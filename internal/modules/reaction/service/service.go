package reaction

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	appcache "github.com/haleyhq/pulseboard/internal/cache"
	"github.com/haleyhq/pulseboard/internal/entity"
	pointsSvc "github.com/haleyhq/pulseboard/internal/modules/points/service"
	reactionDto "github.com/haleyhq/pulseboard/internal/modules/reaction/dto"
	reactionRepo "github.com/haleyhq/pulseboard/internal/modules/reaction/repository"
	"github.com/haleyhq/pulseboard/pkg/apperror"
)

type ReactionService interface {
	Toggle(ctx context.Context, company *entity.Company, postID, userID uuid.UUID, reactionType string) (*reactionDto.ToggleReactionResponse, error)
}

type reactionService struct {
	repo   reactionRepo.ReactionRepository
	points pointsSvc.PointsService
	cache  *appcache.Microcache
}

func NewReactionService(repo reactionRepo.ReactionRepository, points pointsSvc.PointsService, cache *appcache.Microcache) ReactionService {
	return &reactionService{repo: repo, points: points, cache: cache}
}

// Toggle cycles the caller's reaction on a post. Same type removes it, a
// different type switches it, no prior reaction adds one. The unique
// (post, user) index keeps concurrent toggles from producing two rows.
func (s *reactionService) Toggle(ctx context.Context, company *entity.Company, postID, userID uuid.UUID, reactionType string) (*reactionDto.ToggleReactionResponse, error) {
	reactionType = strings.ToUpper(strings.TrimSpace(reactionType))
	if reactionType == "" {
		return nil, apperror.ErrInvalidInput
	}

	post, err := s.repo.FindVisiblePost(ctx, company.ID, postID)
	if err != nil {
		return nil, apperror.ErrNotFound
	}

	existing, err := s.repo.FindByPostAndUser(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	deltas := map[string]int{}
	resultType := ""

	switch {
	case existing == nil:
		err = s.repo.Create(ctx, &entity.Reaction{
			CompanyID: company.ID,
			PostID:    postID,
			UserID:    userID,
			Type:      reactionType,
		})
		if err != nil {
			return nil, err
		}
		deltas[reactionType] = 1
		resultType = reactionType
		s.awardPair(ctx, company, post, userID, reactionType, 1)

	case existing.Type == reactionType:
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			return nil, err
		}
		deltas[reactionType] = -1
		s.awardPair(ctx, company, post, userID, reactionType, -1)

	default:
		if err := s.repo.UpdateType(ctx, existing.ID, reactionType); err != nil {
			return nil, err
		}
		deltas[existing.Type] = -1
		deltas[reactionType] = 1
		resultType = reactionType
		s.awardPair(ctx, company, post, userID, existing.Type, -1)
		s.awardPair(ctx, company, post, userID, reactionType, 1)
	}

	counts, err := s.repo.AdjustPostCounts(ctx, postID, deltas)
	if err != nil {
		log.Printf("reaction: adjust counts for post %s: %v", postID, err)
		counts = post.ReactionCounts
	}

	s.cache.BustPost(ctx, company.Slug, postID)
	s.cache.BustCompany(ctx, company.Slug)
	if post.GroupID != nil {
		s.cache.BustGroup(ctx, company.Slug, *post.GroupID)
	}

	return &reactionDto.ToggleReactionResponse{
		PostID: postID.String(),
		Type:   resultType,
		Counts: counts,
	}, nil
}

// awardPair emits the giver and receiver ledger events for one reaction
// transition. Self-reactions earn the giver side only. Scoring failures are
// logged and swallowed; the reaction write already succeeded.
func (s *reactionService) awardPair(ctx context.Context, company *entity.Company, post *entity.Post, userID uuid.UUID, reactionType string, polarity int) {
	meta := pointsSvc.AwardMeta{ReactionType: reactionType, PostID: post.ID.String()}

	err := s.points.Award(ctx, pointsSvc.AwardInput{
		CompanyID:  company.ID,
		UserID:     userID,
		Action:     pointsSvc.ActionReactionGiven,
		TargetType: "POST",
		TargetID:   post.ID.String(),
		Meta:       meta,
		Polarity:   polarity,
	})
	if err != nil {
		log.Printf("reaction: award given points: %v", err)
	}

	if post.AuthorID == userID {
		return
	}
	err = s.points.Award(ctx, pointsSvc.AwardInput{
		CompanyID:  company.ID,
		UserID:     post.AuthorID,
		ActorID:    &userID,
		Action:     pointsSvc.ActionReactionReceived,
		TargetType: "POST",
		TargetID:   post.ID.String(),
		Meta:       meta,
		Polarity:   polarity,
	})
	if err != nil {
		log.Printf("reaction: award received points: %v", err)
	}
}
