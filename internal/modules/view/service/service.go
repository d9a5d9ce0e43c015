package view

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/haleyhq/pulseboard/internal/entity"
)

// seenTTL is how long one user's view of one post counts as already seen.
const seenTTL = time.Hour

// ViewService counts post views without a database write per request. Views
// are deduplicated per user in Redis and flushed to posts.views_count in
// batches by SyncPendingViews. Counts are a UI hint; losing a flush on crash
// is acceptable.
type ViewService interface {
	RecordView(ctx context.Context, companySlug string, postID, userID uuid.UUID)
	SyncPendingViews(ctx context.Context) error
	StartSyncWorker(ctx context.Context, interval time.Duration)
}

type viewService struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewViewService(db *gorm.DB, rdb *redis.Client) ViewService {
	return &viewService{db: db, rdb: rdb}
}

func seenKey(slug string, postID, userID uuid.UUID) string {
	return "views:seen:" + slug + ":" + postID.String() + ":" + userID.String()
}

const pendingKey = "views:pending"

// RecordView registers one view, at most once per user per post per hour.
// Without Redis it falls back to an unconditional counter increment.
func (s *viewService) RecordView(ctx context.Context, companySlug string, postID, userID uuid.UUID) {
	if s.rdb == nil {
		err := s.db.WithContext(ctx).
			Model(&entity.Post{}).
			Where("id = ?", postID).
			UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
		if err != nil {
			log.Printf("view: direct increment for post %s: %v", postID, err)
		}
		return
	}

	fresh, err := s.rdb.SetNX(ctx, seenKey(companySlug, postID, userID), 1, seenTTL).Result()
	if err != nil {
		log.Printf("view: dedupe check for post %s: %v", postID, err)
		return
	}
	if !fresh {
		return
	}
	if err := s.rdb.HIncrBy(ctx, pendingKey, postID.String(), 1).Err(); err != nil {
		log.Printf("view: queue pending view for post %s: %v", postID, err)
	}
}

// SyncPendingViews drains the pending hash into posts.views_count.
func (s *viewService) SyncPendingViews(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}

	pending, err := s.rdb.HGetAll(ctx, pendingKey).Result()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, pendingKey).Err(); err != nil {
		return err
	}

	for rawID, rawCount := range pending {
		postID, err := uuid.Parse(rawID)
		if err != nil {
			continue
		}
		count, err := strconv.Atoi(rawCount)
		if err != nil || count <= 0 {
			continue
		}
		err = s.db.WithContext(ctx).
			Model(&entity.Post{}).
			Where("id = ?", postID).
			UpdateColumn("views_count", gorm.Expr("views_count + ?", count)).Error
		if err != nil {
			log.Printf("view: flush %d views to post %s: %v", count, postID, err)
		}
	}
	return nil
}

// StartSyncWorker flushes pending views on a ticker until ctx is cancelled.
func (s *viewService) StartSyncWorker(ctx context.Context, interval time.Duration) {
	if s.rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.SyncPendingViews(ctx); err != nil {
					log.Printf("view: sync pending views: %v", err)
				}
			}
		}
	}()
}
