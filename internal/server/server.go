package server

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	appcache "github.com/haleyhq/pulseboard/internal/cache"
	"github.com/haleyhq/pulseboard/internal/config"
	"github.com/haleyhq/pulseboard/internal/middleware"
	"github.com/haleyhq/pulseboard/internal/perf"
	pkgcache "github.com/haleyhq/pulseboard/pkg/cache"
	"github.com/haleyhq/pulseboard/pkg/storage"

	attachmentHttp "github.com/haleyhq/pulseboard/internal/modules/attachment/delivery/http"
	attachmentRepo "github.com/haleyhq/pulseboard/internal/modules/attachment/repository"
	attachmentService "github.com/haleyhq/pulseboard/internal/modules/attachment/service"

	companyRepo "github.com/haleyhq/pulseboard/internal/modules/company/repository"

	feedHttp "github.com/haleyhq/pulseboard/internal/modules/feed/delivery/http"
	feedRepo "github.com/haleyhq/pulseboard/internal/modules/feed/repository"
	feedService "github.com/haleyhq/pulseboard/internal/modules/feed/service"

	leaderboardHttp "github.com/haleyhq/pulseboard/internal/modules/leaderboard/delivery/http"
	leaderboardRepo "github.com/haleyhq/pulseboard/internal/modules/leaderboard/repository"
	leaderboardService "github.com/haleyhq/pulseboard/internal/modules/leaderboard/service"

	pointsRepo "github.com/haleyhq/pulseboard/internal/modules/points/repository"
	pointsService "github.com/haleyhq/pulseboard/internal/modules/points/service"

	postHttp "github.com/haleyhq/pulseboard/internal/modules/post/delivery/http"
	postRepo "github.com/haleyhq/pulseboard/internal/modules/post/repository"
	postService "github.com/haleyhq/pulseboard/internal/modules/post/service"

	reactionHttp "github.com/haleyhq/pulseboard/internal/modules/reaction/delivery/http"
	reactionRepo "github.com/haleyhq/pulseboard/internal/modules/reaction/repository"
	reactionService "github.com/haleyhq/pulseboard/internal/modules/reaction/service"

	searchService "github.com/haleyhq/pulseboard/internal/modules/search/service"

	statHttp "github.com/haleyhq/pulseboard/internal/modules/stat/delivery/http"

	userHttp "github.com/haleyhq/pulseboard/internal/modules/user/delivery/http"
	userRepo "github.com/haleyhq/pulseboard/internal/modules/user/repository"
	userService "github.com/haleyhq/pulseboard/internal/modules/user/service"

	viewService "github.com/haleyhq/pulseboard/internal/modules/view/service"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	recorder := perf.NewRecorder()

	// Redis when available, per-process memory store otherwise. Both speak the
	// same Store interface so everything downstream is agnostic.
	var store pkgcache.Store
	if redisClient != nil {
		store = pkgcache.NewRedisStore(redisClient)
	} else {
		log.Println("no redis configured, using in-process cache store")
		store = pkgcache.NewMemoryStore()
	}
	microcache := appcache.New(store, recorder)

	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	searchSvc := searchService.NewSearchService(meiliClient)

	fileStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Fatalf("failed to initialize cloudinary storage: %v", err)
	}

	companies := companyRepo.NewCompanyRepository(db)
	users := userRepo.NewUserRepository(db)

	authSvc := userService.NewAuthService(users, companies, cfg.JWTSecret)
	authHandler := userHttp.NewAuthHandler(authSvc)

	pointsSvc := pointsService.NewPointsService(pointsRepo.NewPointsRepository(db), companies)

	feedSvc := feedService.NewFeedService(feedRepo.NewFeedRepository(db), users, searchSvc, microcache, recorder)
	feedHandler := feedHttp.NewFeedHandler(feedSvc, companies)

	viewSvc := viewService.NewViewService(db, redisClient)
	viewSvc.StartSyncWorker(context.Background(), cfg.ViewSyncInterval)

	postSvc := postService.NewPostService(postRepo.NewPostRepository(db), companies, pointsSvc, searchSvc, microcache, viewSvc)
	postHandler := postHttp.NewPostHandler(postSvc, companies)
	postSvc.StartRetentionSweep(context.Background(), cfg.RetentionSweepInterval)

	reactionSvc := reactionService.NewReactionService(reactionRepo.NewReactionRepository(db), pointsSvc, microcache)
	reactionHandler := reactionHttp.NewReactionHandler(reactionSvc, companies)

	leaderboardSvc := leaderboardService.NewLeaderboardService(leaderboardRepo.NewLeaderboardRepository(db), microcache)
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc, companies)

	attachmentSvc := attachmentService.NewAttachmentService(attachmentRepo.NewAttachmentRepository(db), fileStorage)
	attachmentHandler := attachmentHttp.NewAttachmentHandler(attachmentSvc, companies)
	attachmentSvc.StartOrphanCleanup(context.Background(), cfg.RetentionSweepInterval)

	statHandler := statHttp.NewStatHandler(recorder)

	router := gin.New()
	setupCORS(router, cfg.AllowedOrigins)
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		adminGroup := protected.Group("/admin")
		adminGroup.Use(middleware.RequireAdmin())
		{
			adminGroup.GET("/perf", statHandler.GetPerfSnapshot)
		}

		moderation := protected.Group("")
		moderation.Use(middleware.RequireModerator())
		{
			moderation.GET("/posts/queue", postHandler.GetQueue)
			moderation.POST("/posts/:id/moderate", postHandler.ModeratePost)
			moderation.PUT("/posts/:id/pin", postHandler.PinPost)
		}

		protected.GET("/feed", feedHandler.GetCompanyFeed)
		protected.GET("/groups/:group_id/feed", feedHandler.GetGroupFeed)

		protected.POST("/posts", postHandler.CreatePost)
		protected.GET("/posts/:id", postHandler.GetPost)
		protected.DELETE("/posts/:id", postHandler.DeletePost)
		protected.POST("/posts/:id/votes", postHandler.VotePoll)
		protected.POST("/posts/:id/close-poll", postHandler.ClosePoll)
		protected.POST("/posts/:id/reactions", reactionHandler.ToggleReaction)

		protected.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
		protected.POST("/attachments", attachmentHandler.UploadAttachment)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	origins := []string{"http://localhost:3000"}
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
