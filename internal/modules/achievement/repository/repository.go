package repository

import (
	"context"
	"fmt"
	"time"

	"planetpulse.com/gamification/internal/entity"
	"planetpulse.com/gamification/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementRepository interface {
	// WithTx binds the repository to an open transaction.
	WithTx(tx *gorm.DB) AchievementRepository
	// ListCatalog returns the active achievements in catalog order.
	ListCatalog(ctx context.Context) ([]entity.Achievement, error)
	// ReplaceCatalog makes achievements the active catalog. Entries are
	// matched by name; active entries not listed are deactivated.
	ReplaceCatalog(ctx context.Context, achievements []entity.Achievement) error
	EarnedIDs(ctx context.Context, userID uuid.UUID) (map[uint]struct{}, error)
	// Award inserts the (user, achievement) pair. It reports false, without
	// error, when the pair already exists.
	Award(ctx context.Context, userID uuid.UUID, achievementID uint, earnedAt time.Time) (bool, error)
	ListEarned(ctx context.Context, userID uuid.UUID) ([]entity.UserAchievement, error)
}

type achievementRepository struct {
	db *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) WithTx(tx *gorm.DB) AchievementRepository {
	return &achievementRepository{db: tx}
}

func (r *achievementRepository) ListCatalog(ctx context.Context) ([]entity.Achievement, error) {
	var achievements []entity.Achievement
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("sort_order ASC").
		Order("id ASC").
		Find(&achievements).Error
	return achievements, err
}

func (r *achievementRepository) ReplaceCatalog(ctx context.Context, achievements []entity.Achievement) error {
	if len(achievements) == 0 {
		return fmt.Errorf("achievement catalog is empty")
	}

	rows := make([]entity.Achievement, len(achievements))
	names := make([]string, len(achievements))
	for i, achievement := range achievements {
		achievement.Active = true
		rows[i] = achievement
		names[i] = achievement.Name
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&entity.Achievement{}).
			Where("active = ? AND name NOT IN ?", true, names).
			Update("active", false).Error
		if err != nil {
			return err
		}

		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"description", "icon", "points_reward", "criteria_type", "criteria_value", "sort_order", "active",
			}),
		}).Create(&rows).Error
	})
}

func (r *achievementRepository) EarnedIDs(ctx context.Context, userID uuid.UUID) (map[uint]struct{}, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&entity.UserAchievement{}).
		Where("user_id = ?", userID).
		Pluck("achievement_id", &ids).Error
	if err != nil {
		return nil, err
	}

	earned := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		earned[id] = struct{}{}
	}
	return earned, nil
}

func (r *achievementRepository) Award(ctx context.Context, userID uuid.UUID, achievementID uint, earnedAt time.Time) (bool, error) {
	row := &entity.UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		EarnedAt:      earnedAt,
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit("User", "Achievement").
		Create(row)
	if result.Error != nil {
		// A concurrent award that slipped past DO NOTHING is still a no-op.
		if database.IsUniqueViolation(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *achievementRepository) ListEarned(ctx context.Context, userID uuid.UUID) ([]entity.UserAchievement, error) {
	var earned []entity.UserAchievement
	err := r.db.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Order("id DESC").
		Find(&earned).Error
	return earned, err
}
