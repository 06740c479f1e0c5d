package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"planetpulse.com/gamification/internal/config"
	"planetpulse.com/gamification/internal/middleware"

	achievementHttp "planetpulse.com/gamification/internal/modules/achievement/delivery/http"
	activityHttp "planetpulse.com/gamification/internal/modules/activity/delivery/http"
	leaderboardHttp "planetpulse.com/gamification/internal/modules/leaderboard/delivery/http"
	ledgerHttp "planetpulse.com/gamification/internal/modules/ledger/delivery/http"
	scoreHttp "planetpulse.com/gamification/internal/modules/score/delivery/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handlers struct {
	Score       *scoreHttp.ScoreHandler
	Achievement *achievementHttp.AchievementHandler
	Ledger      *ledgerHttp.LedgerHandler
	Leaderboard *leaderboardHttp.LeaderboardHandler
	Activity    *activityHttp.ActivityHandler
}

type Server struct {
	engine     *gin.Engine
	db         *gorm.DB
	log        *zap.Logger
	httpServer *http.Server
}

func NewServer(cfg *config.Config, db *gorm.DB, auth *middleware.AuthMiddleware, h Handlers, log *zap.Logger) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log, "/healthz"))

	s := &Server{
		engine: router,
		db:     db,
		log:    log,
	}

	// Public routes (no auth required)
	router.GET("/healthz", s.health)

	// Protected routes (apply auth middleware explicitly)
	gamification := router.Group("/api/gamification")
	gamification.Use(auth.RequireAuth())
	{
		gamification.GET("/leaderboard", h.Leaderboard.GetLeaderboard)
		gamification.GET("/me", h.Score.GetMySummary)
		gamification.GET("/achievements", h.Achievement.GetCatalog)

		gamification.GET("/users/:user_id/points", h.Score.GetUserPoints)
		gamification.GET("/users/:user_id/achievements", h.Achievement.GetUserAchievements)
		gamification.GET("/users/:user_id/transactions", h.Ledger.GetUserTransactions)
	}

	// Service-to-service routes
	internal := router.Group("/internal")
	internal.Use(auth.RequireInternalToken())
	{
		internal.POST("/activity/posts", h.Activity.PostCreated)
		internal.POST("/activity/likes", h.Activity.LikeGiven)
		internal.DELETE("/activity/likes", h.Activity.LikeRemoved)
		internal.POST("/activity/comments", h.Activity.CommentGiven)

		internal.POST("/leaderboard/rebuild", h.Leaderboard.Rebuild)

		internal.POST("/users/:user_id/bonus", h.Activity.Bonus)
		internal.POST("/users/:user_id/achievements/sync", h.Ledger.SyncAchievements)
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves on addr in the background.
func (s *Server) Start(addr string) {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Fatal("server exited with error", zap.Error(err))
		}
	}()
	s.log.Info("http server started", zap.String("addr", addr))
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.InternalTokenHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
