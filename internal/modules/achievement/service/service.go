package service

import (
	"context"
	"time"

	"planetpulse.com/gamification/internal/entity"
	achievementRepo "planetpulse.com/gamification/internal/modules/achievement/repository"
	scoreRepo "planetpulse.com/gamification/internal/modules/score/repository"
	"planetpulse.com/gamification/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GrantFunc runs in the store transaction that inserts an award.
type GrantFunc = func(tx *gorm.DB, achievement entity.Achievement) error

type AchievementService interface {
	// Evaluate awards every catalog entry the user's counters satisfy and
	// returns only the achievements this call actually inserted. grant, when
	// set, commits or rolls back together with each award.
	Evaluate(ctx context.Context, userID uuid.UUID, grant GrantFunc) ([]entity.Achievement, error)
	Catalog(ctx context.Context) ([]entity.Achievement, error)
	// ListEarned returns the user's achievements, newest first.
	ListEarned(ctx context.Context, userID uuid.UUID) ([]entity.UserAchievement, error)
	// SeedCatalog makes achievements the active catalog.
	SeedCatalog(ctx context.Context, achievements []entity.Achievement) error
}

// criteriaCounters maps a criteria type to the score value it is compared
// with. Types without an entry are never satisfied.
var criteriaCounters = map[entity.CriteriaType]func(*entity.UserScore) int{
	entity.CriteriaPostsCount:       func(s *entity.UserScore) int { return s.TotalPosts },
	entity.CriteriaLikesReceived:    func(s *entity.UserScore) int { return s.TotalLikesReceived },
	entity.CriteriaCommentsReceived: func(s *entity.UserScore) int { return s.TotalCommentsReceived },
	entity.CriteriaLevelReached:     func(s *entity.UserScore) int { return s.Level },
	// STREAK_DAYS has no tracked counter yet.
}

type achievementService struct {
	db     *gorm.DB
	repo   achievementRepo.AchievementRepository
	scores scoreRepo.ScoreRepository
	now    func() time.Time
	log    *zap.Logger
}

func NewAchievementService(db *gorm.DB, repo achievementRepo.AchievementRepository, scores scoreRepo.ScoreRepository, now func() time.Time, log *zap.Logger) AchievementService {
	if now == nil {
		now = time.Now
	}
	return &achievementService{
		db:     db,
		repo:   repo,
		scores: scores,
		now:    now,
		log:    log.Named("achievement"),
	}
}

func (s *achievementService) Evaluate(ctx context.Context, userID uuid.UUID, grant GrantFunc) ([]entity.Achievement, error) {
	score, err := s.scores.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.Store("load user score", err)
	}
	if score == nil {
		return nil, nil
	}

	catalog, err := s.repo.ListCatalog(ctx)
	if err != nil {
		return nil, apperror.Store("load achievement catalog", err)
	}
	earned, err := s.repo.EarnedIDs(ctx, userID)
	if err != nil {
		return nil, apperror.Store("load earned achievements", err)
	}

	var awarded []entity.Achievement
	for _, achievement := range catalog {
		if _, ok := earned[achievement.ID]; ok {
			continue
		}
		if !satisfies(score, achievement) {
			continue
		}

		inserted, err := s.award(ctx, userID, achievement, grant)
		if err != nil {
			return awarded, apperror.Store("award achievement", err)
		}
		if !inserted {
			// Another evaluation for this user got there first.
			continue
		}

		s.log.Info("achievement unlocked",
			zap.String("user_id", userID.String()),
			zap.String("achievement", achievement.Name),
		)
		awarded = append(awarded, achievement)
	}
	return awarded, nil
}

func (s *achievementService) award(ctx context.Context, userID uuid.UUID, achievement entity.Achievement, grant GrantFunc) (bool, error) {
	var inserted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inserted, err = s.repo.WithTx(tx).Award(ctx, userID, achievement.ID, s.now().UTC())
		if err != nil || !inserted || grant == nil {
			return err
		}
		return grant(tx, achievement)
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func satisfies(score *entity.UserScore, achievement entity.Achievement) bool {
	counter, ok := criteriaCounters[achievement.CriteriaType]
	if !ok {
		return false
	}
	return counter(score) >= achievement.CriteriaValue
}

func (s *achievementService) Catalog(ctx context.Context) ([]entity.Achievement, error) {
	catalog, err := s.repo.ListCatalog(ctx)
	if err != nil {
		return nil, apperror.Store("load achievement catalog", err)
	}
	return catalog, nil
}

func (s *achievementService) ListEarned(ctx context.Context, userID uuid.UUID) ([]entity.UserAchievement, error) {
	earned, err := s.repo.ListEarned(ctx, userID)
	if err != nil {
		return nil, apperror.Store("load earned achievements", err)
	}
	return earned, nil
}

func (s *achievementService) SeedCatalog(ctx context.Context, achievements []entity.Achievement) error {
	if err := s.repo.ReplaceCatalog(ctx, achievements); err != nil {
		return apperror.Store("seed achievement catalog", err)
	}
	s.log.Info("achievement catalog seeded", zap.Int("count", len(achievements)))
	return nil
}
