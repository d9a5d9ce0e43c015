package leaderboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haleyhq/pulseboard/internal/entity"
)

// Row is one aggregated ledger total joined with user info.
type Row struct {
	UserID uuid.UUID
	Name   string
	Title  string
	Points int64
}

type LeaderboardRepository interface {
	TopUsers(ctx context.Context, companyID uuid.UUID, since *time.Time, limit int) ([]Row, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

// TopUsers sums the ledger per user. Reversal rows carry negative points, so
// the sum is the user's live total without any mutable counter to maintain.
func (r *leaderboardRepository) TopUsers(ctx context.Context, companyID uuid.UUID, since *time.Time, limit int) ([]Row, error) {
	query := r.db.WithContext(ctx).
		Model(&entity.PointEvent{}).
		Select("point_events.user_id AS user_id, users.name AS name, users.title AS title, SUM(point_events.points) AS points").
		Joins("JOIN users ON users.id = point_events.user_id").
		Where("point_events.company_id = ?", companyID)
	if since != nil {
		query = query.Where("point_events.created_at >= ?", *since)
	}

	var rows []Row
	err := query.
		Group("point_events.user_id, users.name, users.title").
		Having("SUM(point_events.points) > 0").
		Order("points DESC, user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
