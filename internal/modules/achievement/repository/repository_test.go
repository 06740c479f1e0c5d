package repository

import (
	"context"
	"testing"
	"time"

	"planetpulse.com/gamification/internal/entity"
	"planetpulse.com/gamification/internal/testutil"

	"github.com/stretchr/testify/require"
)

func TestAwardIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewAchievementRepository(db)
	ctx := context.Background()

	userID := testutil.CreateUser(t, db, "awardee")
	catalog := testutil.SeedCatalog(t, db)
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	inserted, err := repo.Award(ctx, userID, catalog[0].ID, now)
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = repo.Award(ctx, userID, catalog[0].ID, now.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, inserted)

	earned, err := repo.ListEarned(ctx, userID)
	require.NoError(t, err)
	require.Len(t, earned, 1)
	require.True(t, earned[0].EarnedAt.Equal(now))
}

func TestListEarnedNewestFirst(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewAchievementRepository(db)
	ctx := context.Background()

	userID := testutil.CreateUser(t, db, "collector")
	catalog := testutil.SeedCatalog(t, db)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := repo.Award(ctx, userID, catalog[i].ID, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}

	earned, err := repo.ListEarned(ctx, userID)
	require.NoError(t, err)
	require.Len(t, earned, 3)
	require.Equal(t, catalog[2].Name, earned[0].Achievement.Name)
	require.Equal(t, catalog[0].Name, earned[2].Achievement.Name)

	ids, err := repo.EarnedIDs(ctx, userID)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	require.Contains(t, ids, catalog[1].ID)
}

func TestReplaceCatalogRefreshesByNameAndRetiresDropped(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewAchievementRepository(db)
	ctx := context.Background()
	userID := testutil.CreateUser(t, db, "veteran")

	require.NoError(t, repo.ReplaceCatalog(ctx, []entity.Achievement{
		{Name: "First Post", PointsReward: 10, CriteriaType: entity.CriteriaPostsCount, CriteriaValue: 1, SortOrder: 0},
		{Name: "Liked Voice", PointsReward: 25, CriteriaType: entity.CriteriaLikesReceived, CriteriaValue: 10, SortOrder: 1},
	}))
	catalog, err := repo.ListCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 2)
	liked := catalog[1]
	_, err = repo.Award(ctx, userID, liked.ID, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.NoError(t, repo.ReplaceCatalog(ctx, []entity.Achievement{
		{Name: "Sharer", PointsReward: 5, CriteriaType: entity.CriteriaPostsCount, CriteriaValue: 3, SortOrder: 0},
		{Name: "First Post", PointsReward: 15, CriteriaType: entity.CriteriaPostsCount, CriteriaValue: 2, SortOrder: 1},
	}))

	catalog, err = repo.ListCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 2)
	require.Equal(t, "Sharer", catalog[0].Name)
	require.Equal(t, "First Post", catalog[1].Name)
	require.Equal(t, 15, catalog[1].PointsReward)
	require.Equal(t, 2, catalog[1].CriteriaValue)

	// The retired entry still resolves for users who earned it.
	earned, err := repo.ListEarned(ctx, userID)
	require.NoError(t, err)
	require.Len(t, earned, 1)
	require.Equal(t, "Liked Voice", earned[0].Achievement.Name)

	// Listing a retired entry again brings it back.
	require.NoError(t, repo.ReplaceCatalog(ctx, []entity.Achievement{
		{Name: "Liked Voice", PointsReward: 25, CriteriaType: entity.CriteriaLikesReceived, CriteriaValue: 10},
	}))
	catalog, err = repo.ListCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	require.Equal(t, liked.ID, catalog[0].ID)

	require.Error(t, repo.ReplaceCatalog(ctx, nil))
}
