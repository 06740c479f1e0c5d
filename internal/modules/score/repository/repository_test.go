package repository

import (
	"context"
	"testing"
	"time"

	"planetpulse.com/gamification/internal/entity"
	"planetpulse.com/gamification/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func TestCounterUpdatesCoverEveryActionType(t *testing.T) {
	for _, action := range entity.ActionTypes {
		_, ok := counterUpdates[action]
		require.True(t, ok, "no counter mapping for %s", action)
	}
	require.Len(t, counterUpdates, len(entity.ActionTypes))
}

func TestApplyDeltaCreatesScoreLazily(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewScoreRepository(db, 100)
	ctx := context.Background()
	userID := testutil.CreateUser(t, db, "lazy")

	score, err := repo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	require.Nil(t, score)

	require.NoError(t, repo.ApplyDelta(ctx, userID, entity.ActionCreatePost, 20, fixedNow))

	score, err = repo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, score)
	require.Equal(t, 20, score.Points)
	require.Equal(t, 1, score.Level)
	require.Equal(t, 1, score.TotalPosts)
}

func TestApplyDeltaMovesTheMappedCounter(t *testing.T) {
	cases := []struct {
		action entity.ActionType
		points int
		check  func(t *testing.T, s *entity.UserScore)
	}{
		{entity.ActionCreatePost, 20, func(t *testing.T, s *entity.UserScore) { require.Equal(t, 1, s.TotalPosts) }},
		{entity.ActionReceiveLike, 2, func(t *testing.T, s *entity.UserScore) { require.Equal(t, 1, s.TotalLikesReceived) }},
		{entity.ActionReceiveComment, 5, func(t *testing.T, s *entity.UserScore) { require.Equal(t, 1, s.TotalCommentsReceived) }},
		{entity.ActionGiveLike, 1, func(t *testing.T, s *entity.UserScore) { require.Equal(t, 1, s.TotalLikesGiven) }},
		{entity.ActionGiveComment, 3, func(t *testing.T, s *entity.UserScore) { require.Equal(t, 1, s.TotalCommentsGiven) }},
		{entity.ActionBonus, 10, func(t *testing.T, s *entity.UserScore) {
			require.Zero(t, s.TotalPosts+s.TotalLikesReceived+s.TotalCommentsReceived+s.TotalLikesGiven+s.TotalCommentsGiven)
		}},
		{entity.ActionAchievement, 50, func(t *testing.T, s *entity.UserScore) {
			require.Zero(t, s.TotalPosts+s.TotalLikesReceived+s.TotalCommentsReceived+s.TotalLikesGiven+s.TotalCommentsGiven)
		}},
	}

	for _, tc := range cases {
		t.Run(string(tc.action), func(t *testing.T) {
			db := testutil.NewTestDB(t)
			repo := NewScoreRepository(db, 100)
			ctx := context.Background()
			userID := testutil.CreateUser(t, db, "counter")

			require.NoError(t, repo.ApplyDelta(ctx, userID, tc.action, tc.points, fixedNow))

			score, err := repo.FindByUserID(ctx, userID)
			require.NoError(t, err)
			require.Equal(t, tc.points, score.Points)
			tc.check(t, score)
		})
	}
}

func TestApplyDeltaRevokeDecrementsCounters(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewScoreRepository(db, 100)
	ctx := context.Background()
	userID := testutil.CreateUser(t, db, "revoker")

	require.NoError(t, repo.ApplyDelta(ctx, userID, entity.ActionGiveLike, 1, fixedNow))
	require.NoError(t, repo.ApplyDelta(ctx, userID, entity.ActionReceiveLike, 2, fixedNow))
	require.NoError(t, repo.ApplyDelta(ctx, userID, entity.ActionRevokeGiveLike, -1, fixedNow))
	require.NoError(t, repo.ApplyDelta(ctx, userID, entity.ActionRevokeReceiveLike, -2, fixedNow))

	score, err := repo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 0, score.Points)
	require.Equal(t, 0, score.TotalLikesGiven)
	require.Equal(t, 0, score.TotalLikesReceived)
	require.Equal(t, 1, score.Level)
}

func TestApplyDeltaRecomputesLevel(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewScoreRepository(db, 100)
	ctx := context.Background()
	userID := testutil.CreateUser(t, db, "climber")

	require.NoError(t, repo.ApplyDelta(ctx, userID, entity.ActionBonus, 99, fixedNow))
	score, err := repo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 1, score.Level)

	require.NoError(t, repo.ApplyDelta(ctx, userID, entity.ActionBonus, 1, fixedNow))
	score, err = repo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 2, score.Level)

	require.NoError(t, repo.ApplyDelta(ctx, userID, entity.ActionBonus, 150, fixedNow))
	score, err = repo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 250, score.Points)
	require.Equal(t, 3, score.Level)
}

func TestApplyDeltaRejectsUnmappedAction(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewScoreRepository(db, 100)

	err := repo.ApplyDelta(context.Background(), uuid.New(), entity.ActionType("SHARE_POST"), 5, fixedNow)
	require.Error(t, err)
}

func TestListOrderedByPoints(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewScoreRepository(db, 100)
	ctx := context.Background()

	for name, points := range map[string]int{"alice": 300, "bob": 100, "carol": 200} {
		userID := testutil.CreateUser(t, db, name)
		require.NoError(t, repo.ApplyDelta(ctx, userID, entity.ActionBonus, points, fixedNow))
	}

	scores, err := repo.ListOrderedByPoints(ctx)
	require.NoError(t, err)
	require.Len(t, scores, 3)
	require.Equal(t, []int{300, 200, 100}, []int{scores[0].Points, scores[1].Points, scores[2].Points})
}

func TestListOrderedByPointsTieGoesToEarlierUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewScoreRepository(db, 100)
	ctx := context.Background()

	first := testutil.CreateUser(t, db, "first")
	second := testutil.CreateUser(t, db, "second")

	// second's row exists before first's, so its tying update goes through the
	// conflict path, 50ms after first's insert and within the same second.
	require.NoError(t, repo.ApplyDelta(ctx, second, entity.ActionBonus, 10, fixedNow.Add(-time.Second)))
	require.NoError(t, repo.ApplyDelta(ctx, first, entity.ActionBonus, 20, fixedNow.Add(100*time.Millisecond)))
	require.NoError(t, repo.ApplyDelta(ctx, second, entity.ActionBonus, 10, fixedNow.Add(150*time.Millisecond)))

	scores, err := repo.ListOrderedByPoints(ctx)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	require.Equal(t, first, scores[0].UserID)
	require.Equal(t, second, scores[1].UserID)
	require.Equal(t, scores[0].Points, scores[1].Points)
	require.True(t, scores[1].UpdatedAt.Equal(fixedNow.Add(150*time.Millisecond)))
}
