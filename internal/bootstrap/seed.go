package bootstrap

import (
	"context"
	"fmt"

	"planetpulse.com/gamification/internal/entity"
	"planetpulse.com/gamification/internal/modules/achievement/catalog"
	achievementService "planetpulse.com/gamification/internal/modules/achievement/service"

	"gorm.io/gorm"
)

// Migrate creates the gamification tables. The users table belongs to the
// auth service; it is only migrated here so local and test stores work
// standalone.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.PointTransaction{},
		&entity.UserScore{},
		&entity.Achievement{},
		&entity.UserAchievement{},
		&entity.LeaderboardEntry{},
	)
}

// SeedAchievements loads the catalog (the embedded default when path is empty)
// and makes it the active catalog. Entries missing from it are deactivated.
func SeedAchievements(ctx context.Context, svc achievementService.AchievementService, path string) error {
	achievements, err := catalog.Load(path)
	if err != nil {
		return fmt.Errorf("load achievement catalog: %w", err)
	}
	return svc.SeedCatalog(ctx, achievements)
}
