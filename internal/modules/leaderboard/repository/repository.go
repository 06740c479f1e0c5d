package repository

import (
	"context"

	"planetpulse.com/gamification/internal/entity"

	"gorm.io/gorm"
)

const insertBatchSize = 200

type LeaderboardRepository interface {
	// ReplaceMonth swaps the month's snapshot for entries in one transaction,
	// so readers see either the old or the new ranking.
	ReplaceMonth(ctx context.Context, monthYear string, entries []entity.LeaderboardEntry) error
	// FindByMonth returns up to limit rows ordered by rank, with usernames.
	FindByMonth(ctx context.Context, monthYear string, limit int) ([]entity.LeaderboardEntry, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) ReplaceMonth(ctx context.Context, monthYear string, entries []entity.LeaderboardEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("month_year = ?", monthYear).Delete(&entity.LeaderboardEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Omit("User").CreateInBatches(&entries, insertBatchSize).Error
	})
}

func (r *leaderboardRepository) FindByMonth(ctx context.Context, monthYear string, limit int) ([]entity.LeaderboardEntry, error) {
	var entries []entity.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("month_year = ?", monthYear).
		Order("rank_position ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
