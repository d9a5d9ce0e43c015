package main

import (
	"log"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/haleyhq/pulseboard/internal/config"
	"github.com/haleyhq/pulseboard/internal/entity"
	"github.com/haleyhq/pulseboard/internal/server"
	"github.com/haleyhq/pulseboard/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
	}

	srv := server.NewServer(cfg, db, redisClient)
	log.Printf("listening on :%s", cfg.Port)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Company{},
		&entity.User{},
		&entity.Group{},
		&entity.GroupMember{},
		&entity.Post{},
		&entity.PollVote{},
		&entity.Attachment{},
		&entity.Reaction{},
		&entity.PointEvent{},
	)
}
