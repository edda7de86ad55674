package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"anoa.com/karmafeed/internal/config"
	"anoa.com/karmafeed/internal/jobs"
	"anoa.com/karmafeed/internal/middleware"
	"anoa.com/karmafeed/pkg/database"
	"anoa.com/karmafeed/pkg/ratelimiter"

	commentHttp "anoa.com/karmafeed/internal/modules/comment/delivery/http"
	commentRepo "anoa.com/karmafeed/internal/modules/comment/repository"
	commentService "anoa.com/karmafeed/internal/modules/comment/service"

	contentRepo "anoa.com/karmafeed/internal/modules/content/repository"
	counterRepo "anoa.com/karmafeed/internal/modules/counter/repository"
	karmaRepo "anoa.com/karmafeed/internal/modules/karma/repository"

	leaderboardHttp "anoa.com/karmafeed/internal/modules/leaderboard/delivery/http"
	leaderboardService "anoa.com/karmafeed/internal/modules/leaderboard/service"

	likeHttp "anoa.com/karmafeed/internal/modules/like/delivery/http"
	likeRepo "anoa.com/karmafeed/internal/modules/like/repository"
	likeService "anoa.com/karmafeed/internal/modules/like/service"

	postHttp "anoa.com/karmafeed/internal/modules/post/delivery/http"
	postRepo "anoa.com/karmafeed/internal/modules/post/repository"
	postService "anoa.com/karmafeed/internal/modules/post/service"

	searchService "anoa.com/karmafeed/internal/modules/search/service"

	userHttp "anoa.com/karmafeed/internal/modules/user/delivery/http"
	userRepo "anoa.com/karmafeed/internal/modules/user/repository"
	userService "anoa.com/karmafeed/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *jobs.Scheduler
}

// NewServer wires every module. redisClient may be nil, which disables
// rate limiting and the live leaderboard.
func NewServer(ctx context.Context, cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	txOpts, err := database.TxOptions(cfg.DBTxIsolation)
	if err != nil {
		return nil, err
	}

	users := userRepo.NewUserRepository(db)
	likes := likeRepo.NewLikeRepository(db)
	ledger := karmaRepo.NewLedgerRepository(db)
	counters := counterRepo.NewCounterRepository(db)
	directory := contentRepo.NewTargetDirectory(db)
	comments := commentRepo.NewCommentRepository(db)
	posts := postRepo.NewPostRepository(db)
	limiter := ratelimiter.New(redisClient)

	var search searchService.SearchService
	if cfg.MeiliSearchHost != "" {
		meiliHost := cfg.MeiliSearchHost
		if !strings.HasPrefix(meiliHost, "http") {
			meiliHost = "http://" + meiliHost + ":7700"
		}
		search = searchService.NewMeiliSearchService(meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey)))
	} else {
		log.Info("MEILISEARCH_HOST not set, post indexing disabled")
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	authSvc := userService.NewAuthService(users, authMiddleware, 24*time.Hour)
	authHandler := userHttp.NewAuthHandler(authSvc)

	likeSvc := likeService.NewLikeService(db, likes, ledger, counters, directory,
		likeService.WithWeights(cfg.KarmaWeights()),
		likeService.WithTxOptions(txOpts...),
	)
	likeHandler := likeHttp.NewLikeHandler(likeSvc)

	leaderboardSvc := leaderboardService.NewLeaderboardService(ledger, users, leaderboardService.Limits{
		MaxWindowHours: cfg.LeaderboardMaxWindowHours,
		MaxLimit:       cfg.LeaderboardMaxLimit,
	}, time.Now)
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc, redisClient, leaderboardHttp.QueryDefaults{
		WindowHours:    cfg.LeaderboardDefaultWindowHours,
		Limit:          cfg.LeaderboardDefaultLimit,
		MaxWindowHours: cfg.LeaderboardMaxWindowHours,
		MaxLimit:       cfg.LeaderboardMaxLimit,
	})

	commentSvc := commentService.NewCommentService(db, comments, counters, likes, limiter, cfg.RateLimitComment)
	commentHandler := commentHttp.NewCommentHandler(commentSvc)

	postSvc := postService.NewPostService(posts, comments, likeSvc, search, limiter, cfg.RateLimitPost)
	postHandler := postHttp.NewPostHandler(postSvc)

	scheduler := jobs.NewScheduler(ctx)
	if redisClient != nil {
		broadcaster := jobs.NewLeaderboardBroadcaster(leaderboardSvc, redisClient,
			cfg.LeaderboardBroadcastSpec, cfg.LeaderboardDefaultWindowHours, cfg.LeaderboardDefaultLimit)
		if err := scheduler.Register(broadcaster); err != nil {
			return nil, err
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.Origins())

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	s := &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		scheduler:   scheduler,
	}

	router.GET("/healthz", s.healthz)

	api := router.Group("/api")

	// Public routes (no auth required)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/users/:user_id/karma", leaderboardHandler.GetUserStanding)
	api.GET("/leaderboard/ws", leaderboardHandler.Stream)

	// Routes that personalize the response when a token is present
	optional := api.Group("")
	optional.Use(authMiddleware.OptionalAuth())
	{
		optional.GET("/feed", postHandler.GetFeed)
		optional.GET("/posts/:post_id", postHandler.GetPostDetail)
		optional.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.POST("/posts", postHandler.CreatePost)
		protected.POST("/posts/:post_id/comments", commentHandler.CreateComment)
		protected.DELETE("/comments/:comment_id", commentHandler.DeleteComment)

		// Repeats and races on likes must come back as outcomes, so these
		// routes carry no cooldown.
		protected.POST("/likes/toggle", likeHandler.Toggle)
		protected.POST("/posts/:post_id/like", likeHandler.LikePost)
		protected.DELETE("/posts/:post_id/like", likeHandler.UnlikePost)
		protected.POST("/comments/:comment_id/like", likeHandler.LikeComment)
		protected.DELETE("/comments/:comment_id/like", likeHandler.UnlikeComment)
	}

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.scheduler.Start()
	defer s.scheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("http server stopped")
	return nil
}

func (s *Server) healthz(c *gin.Context) {
	ctx := c.Request.Context()
	status := gin.H{"database": "ok"}
	code := http.StatusOK

	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		status["database"] = "unavailable"
		code = http.StatusServiceUnavailable
	}

	if s.redisClient == nil {
		status["redis"] = "disabled"
	} else if err := s.redisClient.Ping(ctx).Err(); err != nil {
		status["redis"] = "unavailable"
		code = http.StatusServiceUnavailable
	} else {
		status["redis"] = "ok"
	}

	c.JSON(code, status)
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
