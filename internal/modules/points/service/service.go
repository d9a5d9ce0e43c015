package points

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/haleyhq/pulseboard/internal/entity"
	companyRepo "github.com/haleyhq/pulseboard/internal/modules/company/repository"
	pointsRepo "github.com/haleyhq/pulseboard/internal/modules/points/repository"
)

const (
	ActionPostCreated      = "POST_CREATED"
	ActionCommentCreated   = "COMMENT_CREATED"
	ActionReactionGiven    = "REACTION_GIVEN"
	ActionReactionReceived = "REACTION_RECEIVED"
	ActionPollVoted        = "POLL_VOTED"
)

const (
	DirectionGiven    = "GIVEN"
	DirectionReceived = "RECEIVED"
)

// AwardMeta carries the event-specific parts that go into the idempotency key.
type AwardMeta struct {
	ReactionType    string
	PostID          string
	CommentID       string
	ParentCommentID string
}

// AwardInput describes one scoring event. Polarity +1 records the award,
// Polarity -1 records its reversal; zero is treated as +1.
type AwardInput struct {
	CompanyID  uuid.UUID
	UserID     uuid.UUID
	ActorID    *uuid.UUID
	Action     string
	TargetType string
	TargetID   string
	Meta       AwardMeta
	Polarity   int
}

type PointsService interface {
	Award(ctx context.Context, in AwardInput) error
	Balance(ctx context.Context, companyID, userID uuid.UUID) (int64, error)
}

type pointsService struct {
	repo        pointsRepo.PointsRepository
	companyRepo companyRepo.CompanyRepository
}

func NewPointsService(repo pointsRepo.PointsRepository, companies companyRepo.CompanyRepository) PointsService {
	return &pointsService{repo: repo, companyRepo: companies}
}

// Award records one ledger row for the event, or nothing at all. It is safe
// to call from retried handlers: a key that already exists is treated as
// success, and callers are expected to ignore the error entirely when the
// surrounding write must not fail on a scoring hiccup.
func (s *pointsService) Award(ctx context.Context, in AwardInput) error {
	company, err := s.companyRepo.FindByID(ctx, in.CompanyID)
	if err != nil {
		return err
	}
	if !company.GamificationEnabled {
		return nil
	}

	polarity := in.Polarity
	if polarity == 0 {
		polarity = 1
	}
	points := company.GamificationRules.PointsFor(in.Action, in.Meta.ReactionType) * polarity
	if points == 0 {
		return nil
	}

	key := EventKey{
		Action:          in.Action,
		CompanyID:       in.CompanyID,
		UserID:          in.UserID,
		TargetType:      in.TargetType,
		TargetID:        in.TargetID,
		ReactionType:    in.Meta.ReactionType,
		Direction:       directionFor(in.Action),
		PostID:          in.Meta.PostID,
		CommentID:       in.Meta.CommentID,
		ParentCommentID: in.Meta.ParentCommentID,
		Marker:          markerFor(polarity),
	}

	event := &entity.PointEvent{
		CompanyID:  in.CompanyID,
		UserID:     in.UserID,
		ActorID:    in.ActorID,
		Action:     in.Action,
		Points:     points,
		TargetType: in.TargetType,
		TargetID:   in.TargetID,
		EventKey:   key.Encode(),
	}
	if err := s.repo.Insert(ctx, event); err != nil {
		if errors.Is(err, pointsRepo.ErrDuplicateEvent) {
			return nil
		}
		return err
	}
	return nil
}

func (s *pointsService) Balance(ctx context.Context, companyID, userID uuid.UUID) (int64, error) {
	return s.repo.SumByUser(ctx, companyID, userID)
}

func directionFor(action string) string {
	switch action {
	case ActionReactionGiven:
		return DirectionGiven
	case ActionReactionReceived:
		return DirectionReceived
	default:
		return ""
	}
}

func markerFor(polarity int) string {
	if polarity < 0 {
		return MarkerRemove
	}
	return MarkerAdd
}
