package leaderboard

import (
	"context"
	"time"

	appcache "github.com/haleyhq/pulseboard/internal/cache"
	"github.com/haleyhq/pulseboard/internal/entity"
	leaderboardDto "github.com/haleyhq/pulseboard/internal/modules/leaderboard/dto"
	leaderboardRepo "github.com/haleyhq/pulseboard/internal/modules/leaderboard/repository"
	"github.com/haleyhq/pulseboard/pkg/apperror"
)

const (
	PeriodAllTime = "ALL_TIME"
	PeriodWeekly  = "WEEKLY"

	defaultSize = 20
	maxSize     = 100
)

type LeaderboardService interface {
	Top(ctx context.Context, company *entity.Company, period string, limit int) (*leaderboardDto.Leaderboard, bool, error)
}

type leaderboardService struct {
	repo  leaderboardRepo.LeaderboardRepository
	cache *appcache.Microcache
}

func NewLeaderboardService(repo leaderboardRepo.LeaderboardRepository, cache *appcache.Microcache) LeaderboardService {
	return &leaderboardService{repo: repo, cache: cache}
}

func (s *leaderboardService) Top(ctx context.Context, company *entity.Company, period string, limit int) (*leaderboardDto.Leaderboard, bool, error) {
	if !company.GamificationEnabled {
		return nil, false, apperror.ErrNotFound
	}

	var since *time.Time
	switch period {
	case "", PeriodAllTime:
		period = PeriodAllTime
	case PeriodWeekly:
		weekAgo := time.Now().UTC().AddDate(0, 0, -7)
		since = &weekAgo
	default:
		return nil, false, apperror.ErrInvalidInput
	}

	if limit < 1 || limit > maxSize {
		limit = defaultSize
	}

	key := appcache.LeaderboardKey(company.Slug, period, limit)
	board, fromCache, err := appcache.GetOrSet(ctx, s.cache, key, appcache.TTLFor("/leaderboard"), func(ctx context.Context) (leaderboardDto.Leaderboard, error) {
		rows, err := s.repo.TopUsers(ctx, company.ID, since, limit)
		if err != nil {
			return leaderboardDto.Leaderboard{}, err
		}

		entries := make([]leaderboardDto.Entry, 0, len(rows))
		for i, row := range rows {
			entries = append(entries, leaderboardDto.Entry{
				Rank:   i + 1,
				UserID: row.UserID.String(),
				Name:   row.Name,
				Title:  row.Title,
				Points: row.Points,
			})
		}
		return leaderboardDto.Leaderboard{Period: period, Entries: entries}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return &board, fromCache, nil
}
