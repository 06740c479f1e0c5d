package service

import (
	"context"

	"planetpulse.com/gamification/internal/entity"
	achievementRepo "planetpulse.com/gamification/internal/modules/achievement/repository"
	scoreDto "planetpulse.com/gamification/internal/modules/score/dto"
	scoreRepo "planetpulse.com/gamification/internal/modules/score/repository"
	"planetpulse.com/gamification/pkg/apperror"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type ScoreService interface {
	// GetScore returns nil, without error, for a user with no recorded activity.
	GetScore(ctx context.Context, userID uuid.UUID) (*entity.UserScore, error)
	GetSummary(ctx context.Context, userID uuid.UUID) (*scoreDto.SummaryResponse, error)
}

type scoreService struct {
	scores         scoreRepo.ScoreRepository
	achievements   achievementRepo.AchievementRepository
	pointsPerLevel int
}

func NewScoreService(scores scoreRepo.ScoreRepository, achievements achievementRepo.AchievementRepository, pointsPerLevel int) ScoreService {
	return &scoreService{
		scores:         scores,
		achievements:   achievements,
		pointsPerLevel: pointsPerLevel,
	}
}

func (s *scoreService) GetScore(ctx context.Context, userID uuid.UUID) (*entity.UserScore, error) {
	score, err := s.scores.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.Store("load user score", err)
	}
	return score, nil
}

func (s *scoreService) GetSummary(ctx context.Context, userID uuid.UUID) (*scoreDto.SummaryResponse, error) {
	var (
		score  *entity.UserScore
		earned []entity.UserAchievement
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		score, err = s.scores.FindByUserID(gctx, userID)
		if err != nil {
			return apperror.Store("load user score", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		earned, err = s.achievements.ListEarned(gctx, userID)
		if err != nil {
			return apperror.Store("load earned achievements", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	points := 0
	if score != nil {
		points = score.Points
	}

	return &scoreDto.SummaryResponse{
		Score:        scoreDto.NewScoreResponse(userID, score),
		LevelStatus:  GetLevelStatus(points, s.pointsPerLevel),
		Achievements: scoreDto.NewEarnedAchievements(earned),
	}, nil
}
