package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"planetpulse.com/gamification/internal/bootstrap"
	"planetpulse.com/gamification/internal/config"
	"planetpulse.com/gamification/internal/middleware"
	"planetpulse.com/gamification/internal/server"
	"planetpulse.com/gamification/pkg/database"
	"planetpulse.com/gamification/pkg/logger"
	"planetpulse.com/gamification/pkg/validator"

	achievementHttp "planetpulse.com/gamification/internal/modules/achievement/delivery/http"
	achievementRepo "planetpulse.com/gamification/internal/modules/achievement/repository"
	achievementService "planetpulse.com/gamification/internal/modules/achievement/service"

	activityHttp "planetpulse.com/gamification/internal/modules/activity/delivery/http"
	activityService "planetpulse.com/gamification/internal/modules/activity/service"

	leaderboardHttp "planetpulse.com/gamification/internal/modules/leaderboard/delivery/http"
	leaderboardRepo "planetpulse.com/gamification/internal/modules/leaderboard/repository"
	leaderboardService "planetpulse.com/gamification/internal/modules/leaderboard/service"
	leaderboardTask "planetpulse.com/gamification/internal/modules/leaderboard/task"

	ledgerHttp "planetpulse.com/gamification/internal/modules/ledger/delivery/http"
	ledgerRepo "planetpulse.com/gamification/internal/modules/ledger/repository"
	ledgerService "planetpulse.com/gamification/internal/modules/ledger/service"

	scoreHttp "planetpulse.com/gamification/internal/modules/score/delivery/http"
	scoreRepo "planetpulse.com/gamification/internal/modules/score/repository"
	scoreService "planetpulse.com/gamification/internal/modules/score/service"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	opts := []fx.Option{
		fx.Provide(
			config.Load,
			provideLogger,
			provideDB,
			provideRedis,
			provideSnowflakeNode,
			provideClock,
		),
		fx.Provide(
			provideScoreRepository,
			achievementRepo.NewAchievementRepository,
			ledgerRepo.NewTransactionRepository,
			leaderboardRepo.NewLeaderboardRepository,
		),
		fx.Provide(
			provideScoreService,
			achievementService.NewAchievementService,
			provideEvaluator,
			ledgerService.NewLedgerService,
			provideLeaderboardService,
			provideActivityService,
		),
		fx.Provide(
			scoreHttp.NewScoreHandler,
			achievementHttp.NewAchievementHandler,
			ledgerHttp.NewLedgerHandler,
			leaderboardHttp.NewLeaderboardHandler,
			activityHttp.NewActivityHandler,
			provideHandlers,
			provideAuthMiddleware,
			server.NewServer,
		),
		fx.Invoke(
			validator.Register,
			seedAchievements,
			registerLeaderboardSchedule,
			runServer,
		),
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	fx.New(opts...).Run()
}

var fxLogger = fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: log.Named("fx").WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
})

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)
	return log, nil
}

func provideDB(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := database.Connect(database.Options{
		Driver:     cfg.DBDriver,
		URL:        cfg.DBURL,
		Host:       cfg.DBHost,
		User:       cfg.DBUser,
		Password:   cfg.DBPass,
		Name:       cfg.DBName,
		Port:       cfg.DBPort,
		SQLitePath: cfg.SQLitePath,
		Debug:      !cfg.IsProduction(),
	}, log)
	if err != nil {
		return nil, err
	}

	if err := bootstrap.Migrate(db); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

// provideRedis returns nil when REDIS_URL is unset; everything that uses
// redis treats it as optional.
func provideRedis(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		log.Info("redis disabled")
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	for attempt := 1; attempt <= 5; attempt++ {
		if err = rdb.Ping(context.Background()).Err(); err == nil {
			break
		}
		log.Warn("redis not ready, retrying", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(3 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}
	log.Info("redis connected", zap.String("addr", opts.Addr))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return rdb.Close()
		},
	})
	return rdb, nil
}

func provideSnowflakeNode(cfg *config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}

func provideClock() func() time.Time {
	return time.Now
}

func provideScoreRepository(db *gorm.DB, cfg *config.Config) scoreRepo.ScoreRepository {
	return scoreRepo.NewScoreRepository(db, cfg.Gamification.PointsPerLevel)
}

func provideScoreService(scores scoreRepo.ScoreRepository, achievements achievementRepo.AchievementRepository, cfg *config.Config) scoreService.ScoreService {
	return scoreService.NewScoreService(scores, achievements, cfg.Gamification.PointsPerLevel)
}

func provideEvaluator(svc achievementService.AchievementService) ledgerService.Evaluator {
	return svc
}

func provideLeaderboardService(
	repo leaderboardRepo.LeaderboardRepository,
	scores scoreRepo.ScoreRepository,
	rdb *redis.Client,
	cfg *config.Config,
	now func() time.Time,
	log *zap.Logger,
) (leaderboardService.LeaderboardService, error) {
	return leaderboardService.NewLeaderboardService(repo, scores, rdb, cfg.Leaderboard, now, log)
}

func provideActivityService(ledger ledgerService.LedgerService, cfg *config.Config) activityService.ActivityService {
	return activityService.NewActivityService(ledger, cfg.Gamification.SymmetricUnlike)
}

func provideAuthMiddleware(cfg *config.Config) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(cfg.JWTSecret, cfg.InternalAPIToken)
}

func provideHandlers(
	score *scoreHttp.ScoreHandler,
	achievement *achievementHttp.AchievementHandler,
	ledger *ledgerHttp.LedgerHandler,
	leaderboard *leaderboardHttp.LeaderboardHandler,
	activity *activityHttp.ActivityHandler,
) server.Handlers {
	return server.Handlers{
		Score:       score,
		Achievement: achievement,
		Ledger:      ledger,
		Leaderboard: leaderboard,
		Activity:    activity,
	}
}

func seedAchievements(svc achievementService.AchievementService, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return bootstrap.SeedAchievements(ctx, svc, cfg.Gamification.AchievementsFile)
}

// registerLeaderboardSchedule runs the periodic rebuild through asynq when
// reads no longer rebuild the snapshot themselves.
func registerLeaderboardSchedule(lc fx.Lifecycle, cfg *config.Config, svc leaderboardService.LeaderboardService, log *zap.Logger) error {
	if cfg.Leaderboard.RebuildOnRead {
		return nil
	}
	if cfg.RedisURL == "" {
		log.Warn("LEADERBOARD_REBUILD_ON_READ is off but REDIS_URL is unset; leaderboard only rebuilds through the internal endpoint")
		return nil
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL for asynq: %w", err)
	}

	mux := asynq.NewServeMux()
	leaderboardTask.Register(mux, leaderboardTask.NewRebuildHandler(svc, log))

	worker := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 1,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error("asynq task failed", zap.String("task_type", task.Type()), zap.Error(err))
		}),
	})
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Location: time.UTC})
	if _, err := scheduler.Register(cfg.Leaderboard.RebuildCron, leaderboardTask.NewRebuildTask()); err != nil {
		return fmt.Errorf("register leaderboard schedule: %w", err)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := worker.Start(mux); err != nil {
				return fmt.Errorf("start asynq worker: %w", err)
			}
			if err := scheduler.Start(); err != nil {
				return fmt.Errorf("start asynq scheduler: %w", err)
			}
			log.Info("leaderboard schedule started", zap.String("cron", cfg.Leaderboard.RebuildCron))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			scheduler.Shutdown()
			worker.Shutdown()
			return nil
		},
	})
	return nil
}

func runServer(lc fx.Lifecycle, srv *server.Server, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			srv.Start(":" + cfg.Port)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
