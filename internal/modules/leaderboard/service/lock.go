package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func rebuildLockKey(monthYear string) string {
	return fmt.Sprintf("leaderboard:rebuild:lock:%s", monthYear)
}

func snapshotKey(monthYear string) string {
	return fmt.Sprintf("leaderboard:snapshot:%s", monthYear)
}

// acquireRebuildLock reports whether this instance may rebuild the month.
// Without redis every instance may.
func acquireRebuildLock(ctx context.Context, rdb *redis.Client, monthYear string, ttl time.Duration) (bool, error) {
	if rdb == nil {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, rebuildLockKey(monthYear), "locked", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire rebuild lock in redis: %w", err)
	}

	return wasSet, nil
}

func releaseRebuildLock(ctx context.Context, rdb *redis.Client, monthYear string) error {
	if rdb == nil {
		return nil
	}
	_, err := rdb.Del(ctx, rebuildLockKey(monthYear)).Result()
	return err
}
