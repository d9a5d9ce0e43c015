package points

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haleyhq/pulseboard/internal/entity"
)

// ErrDuplicateEvent reports that a ledger row with the same idempotency key
// already exists for the tenant.
var ErrDuplicateEvent = errors.New("point event already recorded")

type PointsRepository interface {
	Insert(ctx context.Context, event *entity.PointEvent) error
	SumByUser(ctx context.Context, companyID, userID uuid.UUID) (int64, error)
	EventsByUser(ctx context.Context, companyID, userID uuid.UUID, limit int) ([]entity.PointEvent, error)
}

type pointsRepository struct {
	db *gorm.DB
}

func NewPointsRepository(db *gorm.DB) PointsRepository {
	return &pointsRepository{db: db}
}

func (r *pointsRepository) Insert(ctx context.Context, event *entity.PointEvent) error {
	err := r.db.WithContext(ctx).Create(event).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEvent
	}
	return err
}

func (r *pointsRepository) SumByUser(ctx context.Context, companyID, userID uuid.UUID) (int64, error) {
	var total *int64
	err := r.db.WithContext(ctx).
		Model(&entity.PointEvent{}).
		Select("SUM(points)").
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *pointsRepository) EventsByUser(ctx context.Context, companyID, userID uuid.UUID, limit int) ([]entity.PointEvent, error) {
	var events []entity.PointEvent
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
