package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"planetpulse.com/gamification/internal/config"
	"planetpulse.com/gamification/internal/entity"
	leaderboardDto "planetpulse.com/gamification/internal/modules/leaderboard/dto"
	leaderboardRepo "planetpulse.com/gamification/internal/modules/leaderboard/repository"
	scoreRepo "planetpulse.com/gamification/internal/modules/score/repository"
	"planetpulse.com/gamification/pkg/apperror"
	"planetpulse.com/gamification/pkg/validator"

	lru "github.com/hashicorp/golang-lru"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type LeaderboardService interface {
	// RebuildCurrentMonth replaces the current month's snapshot with a ranking
	// of every user score and returns the month key.
	RebuildCurrentMonth(ctx context.Context) (string, error)
	// GetLeaderboard returns the ranking for monthYear ("YYYY-MM"), or for the
	// current month when monthYear is empty.
	GetLeaderboard(ctx context.Context, monthYear string) (*leaderboardDto.LeaderboardResponse, error)
}

type leaderboardService struct {
	repo        leaderboardRepo.LeaderboardRepository
	scores      scoreRepo.ScoreRepository
	redisClient *redis.Client
	history     *lru.Cache
	cfg         config.LeaderboardConfig
	now         func() time.Time
	log         *zap.Logger
	group       singleflight.Group
}

// NewLeaderboardService builds the service. redisClient may be nil; the
// rebuild lock and the current month cache are then skipped.
func NewLeaderboardService(
	repo leaderboardRepo.LeaderboardRepository,
	scores scoreRepo.ScoreRepository,
	redisClient *redis.Client,
	cfg config.LeaderboardConfig,
	now func() time.Time,
	log *zap.Logger,
) (LeaderboardService, error) {
	if now == nil {
		now = time.Now
	}

	var history *lru.Cache
	if cfg.HistoryCacheSize > 0 {
		var err error
		history, err = lru.New(cfg.HistoryCacheSize)
		if err != nil {
			return nil, err
		}
	}

	return &leaderboardService{
		repo:        repo,
		scores:      scores,
		redisClient: redisClient,
		history:     history,
		cfg:         cfg,
		now:         now,
		log:         log.Named("leaderboard"),
	}, nil
}

func (s *leaderboardService) currentMonth() string {
	return s.now().UTC().Format(validator.MonthYearLayout)
}

func (s *leaderboardService) RebuildCurrentMonth(ctx context.Context) (string, error) {
	monthYear := s.currentMonth()

	// Concurrent rebuilds of one month share a single run, which must not end
	// when the caller that started it goes away.
	shared := context.WithoutCancel(ctx)
	_, err, _ := s.group.Do(monthYear, func() (interface{}, error) {
		return nil, s.rebuild(shared, monthYear)
	})
	if err != nil {
		return "", err
	}
	return monthYear, nil
}

func (s *leaderboardService) rebuild(ctx context.Context, monthYear string) error {
	acquired, err := acquireRebuildLock(ctx, s.redisClient, monthYear, s.cfg.LockTTL)
	if err != nil {
		// The store transaction keeps a duplicate rebuild safe.
		s.log.Warn("rebuild lock unavailable, rebuilding anyway", zap.Error(err))
		acquired = true
	}
	if !acquired {
		s.log.Debug("rebuild already running on another instance", zap.String("month_year", monthYear))
		return nil
	}
	defer func() {
		if err := releaseRebuildLock(ctx, s.redisClient, monthYear); err != nil {
			s.log.Warn("failed to release rebuild lock", zap.Error(err))
		}
	}()

	scores, err := s.scores.ListOrderedByPoints(ctx)
	if err != nil {
		return apperror.Store("load user scores", err)
	}

	entries := make([]entity.LeaderboardEntry, 0, len(scores))
	for i, score := range scores {
		entries = append(entries, entity.LeaderboardEntry{
			UserID:           score.UserID,
			MonthYear:        monthYear,
			TotalPoints:      score.Points,
			PostsCount:       score.TotalPosts,
			LikesReceived:    score.TotalLikesReceived,
			CommentsReceived: score.TotalCommentsReceived,
			RankPosition:     i + 1,
		})
	}

	if err := s.repo.ReplaceMonth(ctx, monthYear, entries); err != nil {
		return apperror.Store("replace leaderboard snapshot", err)
	}

	if s.redisClient != nil {
		if err := s.redisClient.Del(ctx, snapshotKey(monthYear)).Err(); err != nil {
			s.log.Warn("failed to invalidate leaderboard cache", zap.Error(err))
		}
	}

	s.log.Info("leaderboard rebuilt",
		zap.String("month_year", monthYear),
		zap.Int("entries", len(entries)),
	)
	return nil
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, monthYear string) (*leaderboardDto.LeaderboardResponse, error) {
	current := s.currentMonth()
	if monthYear == "" {
		monthYear = current
	}
	if !validator.IsMonthYear(monthYear) {
		return nil, apperror.Invalid("month_year must be formatted as YYYY-MM")
	}

	var (
		entries []leaderboardDto.LeaderboardEntry
		err     error
	)
	switch {
	case monthYear == current && s.cfg.RebuildOnRead:
		if _, err := s.RebuildCurrentMonth(ctx); err != nil {
			return nil, err
		}
		entries, err = s.load(ctx, monthYear)
	case monthYear == current:
		entries, err = s.loadCached(ctx, monthYear)
	case monthYear < current:
		entries, err = s.loadHistory(ctx, monthYear)
	default:
		entries, err = s.load(ctx, monthYear)
	}
	if err != nil {
		return nil, err
	}

	return &leaderboardDto.LeaderboardResponse{
		MonthYear:    monthYear,
		CurrentMonth: current,
		Entries:      entries,
	}, nil
}

func (s *leaderboardService) load(ctx context.Context, monthYear string) ([]leaderboardDto.LeaderboardEntry, error) {
	rows, err := s.repo.FindByMonth(ctx, monthYear, s.cfg.Limit)
	if err != nil {
		return nil, apperror.Store("load leaderboard", err)
	}
	return leaderboardDto.NewLeaderboardEntries(rows), nil
}

// loadCached serves the current month from redis, falling back to the store.
func (s *leaderboardService) loadCached(ctx context.Context, monthYear string) ([]leaderboardDto.LeaderboardEntry, error) {
	if s.redisClient == nil {
		return s.load(ctx, monthYear)
	}

	key := snapshotKey(monthYear)
	raw, err := s.redisClient.Get(ctx, key).Bytes()
	if err == nil {
		var entries []leaderboardDto.LeaderboardEntry
		if err := json.Unmarshal(raw, &entries); err == nil {
			return entries, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn("leaderboard cache read failed", zap.Error(err))
	}

	entries, err := s.load(ctx, monthYear)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(entries); err == nil {
		if err := s.redisClient.Set(ctx, key, payload, s.cfg.CacheTTL).Err(); err != nil {
			s.log.Warn("leaderboard cache write failed", zap.Error(err))
		}
	}
	return entries, nil
}

// loadHistory serves past months, whose snapshots no longer change, from the
// in-process LRU.
func (s *leaderboardService) loadHistory(ctx context.Context, monthYear string) ([]leaderboardDto.LeaderboardEntry, error) {
	if s.history == nil {
		return s.load(ctx, monthYear)
	}
	if cached, ok := s.history.Get(monthYear); ok {
		return cached.([]leaderboardDto.LeaderboardEntry), nil
	}

	entries, err := s.load(ctx, monthYear)
	if err != nil {
		return nil, err
	}
	s.history.Add(monthYear, entries)
	return entries, nil
}
