package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"planetpulse.com/gamification/internal/entity"
	achievementRepo "planetpulse.com/gamification/internal/modules/achievement/repository"
	achievementService "planetpulse.com/gamification/internal/modules/achievement/service"
	ledgerRepo "planetpulse.com/gamification/internal/modules/ledger/repository"
	scoreRepo "planetpulse.com/gamification/internal/modules/score/repository"
	"planetpulse.com/gamification/internal/testutil"
	"planetpulse.com/gamification/pkg/apperror"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db           *gorm.DB
	ledger       LedgerService
	transactions ledgerRepo.TransactionRepository
	scores       scoreRepo.ScoreRepository
}

func newFixture(t *testing.T, evaluator Evaluator) fixture {
	t.Helper()
	return newFixtureOn(t, testutil.NewTestDB(t), evaluator)
}

func newFixtureOn(t *testing.T, db *gorm.DB, evaluator Evaluator) fixture {
	t.Helper()
	testutil.SeedCatalog(t, db)

	scores := scoreRepo.NewScoreRepository(db, 100)
	transactions := ledgerRepo.NewTransactionRepository(db)
	clock := func() time.Time { return fixedNow }

	if evaluator == nil {
		evaluator = achievementService.NewAchievementService(db, achievementRepo.NewAchievementRepository(db), scores, clock, zap.NewNop())
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return fixture{
		db:           db,
		ledger:       NewLedgerService(db, transactions, scores, evaluator, node, clock, zap.NewNop()),
		transactions: transactions,
		scores:       scores,
	}
}

func post(userID uuid.UUID) Transaction {
	postID := uuid.New()
	return Transaction{
		UserID:        userID,
		ActionType:    entity.ActionCreatePost,
		Points:        20,
		Description:   "Created post: test",
		RelatedPostID: &postID,
	}
}

func (f fixture) requireLedgerMatchesScore(t *testing.T, userID uuid.UUID) *entity.UserScore {
	t.Helper()
	ctx := context.Background()

	sum, err := f.transactions.SumByUser(ctx, userID)
	require.NoError(t, err)
	score, err := f.scores.FindByUserID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, score)
	require.Equal(t, sum, score.Points)
	return score
}

func TestRecordTransactionRejectsUnknownAction(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.ledger.RecordTransaction(context.Background(), Transaction{
		UserID:     uuid.New(),
		ActionType: entity.ActionType("SHARE_POST"),
		Points:     5,
	})
	require.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = f.ledger.RecordTransaction(context.Background(), Transaction{
		ActionType: entity.ActionBonus,
		Points:     10,
	})
	require.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestFourPostsDoNotUnlockAdvocate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := testutil.CreateUser(t, f.db, "four")

	for i := 0; i < 4; i++ {
		_, err := f.ledger.RecordTransaction(ctx, post(userID))
		require.NoError(t, err)
	}

	score := f.requireLedgerMatchesScore(t, userID)
	require.Equal(t, 4, score.TotalPosts)
	// 4 posts plus the First Post reward.
	require.Equal(t, 90, score.Points)
	require.Equal(t, 1, score.Level)
}

func TestFifthPostUnlocksAdvocateWithReward(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := testutil.CreateUser(t, f.db, "five")

	var unlocked []entity.Achievement
	for i := 0; i < 5; i++ {
		got, err := f.ledger.RecordTransaction(ctx, post(userID))
		require.NoError(t, err)
		unlocked = append(unlocked, got...)
	}

	require.Len(t, unlocked, 2)
	require.Equal(t, "First Post", unlocked[0].Name)
	require.Equal(t, "Environmental Advocate", unlocked[1].Name)

	score := f.requireLedgerMatchesScore(t, userID)
	require.Equal(t, 160, score.Points)
	require.Equal(t, 2, score.Level)

	transactions, err := f.ledger.ListTransactions(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, transactions, 7)

	var rewards int
	for _, tx := range transactions {
		if tx.ActionType == entity.ActionAchievement {
			rewards++
		}
	}
	require.Equal(t, 2, rewards)
}

func TestAchievementRewardCascades(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := testutil.CreateUser(t, f.db, "cascade")

	// The post takes the total to 400 (level 5), so one call unlocks both a
	// post achievement and a level achievement.
	_, err := f.ledger.RecordTransaction(ctx, Transaction{UserID: userID, ActionType: entity.ActionBonus, Points: 380})
	require.NoError(t, err)

	unlocked, err := f.ledger.RecordTransaction(ctx, post(userID))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"First Post", "Rising Star"}, achievementNames(unlocked))

	score := f.requireLedgerMatchesScore(t, userID)
	require.Equal(t, 400+10+50, score.Points)
	require.Equal(t, 5, score.Level)
}

func TestConcurrentRecordsKeepLedgerAndScoreInStep(t *testing.T) {
	f := newFixture(t, nil)
	runConcurrentLikes(t, f)
}

// The in-memory store serializes everything on one connection; this variant
// runs the same writers over several connections to a file-backed store.
func TestConcurrentRecordsOnSharedFileStore(t *testing.T) {
	f := newFixtureOn(t, testutil.NewFileTestDB(t, 8), nil)
	runConcurrentLikes(t, f)
}

func runConcurrentLikes(t *testing.T, f fixture) {
	t.Helper()
	ctx := context.Background()
	userID := testutil.CreateUser(t, f.db, "busy")

	const workers = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.RecordTransaction(ctx, Transaction{
				UserID:     userID,
				ActionType: entity.ActionGiveLike,
				Points:     1,
			})
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	score := f.requireLedgerMatchesScore(t, userID)
	require.Equal(t, workers, score.Points)
	require.Equal(t, workers, score.TotalLikesGiven)
}

func TestSyncAchievementsWithoutActivity(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	userID := testutil.CreateUser(t, f.db, "synced")

	// Counters exist but were never evaluated, as after a catalog change.
	require.NoError(t, f.scores.ApplyDelta(ctx, userID, entity.ActionCreatePost, 20, fixedNow))

	unlocked, err := f.ledger.SyncAchievements(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, []string{"First Post"}, achievementNames(unlocked))

	unlocked, err = f.ledger.SyncAchievements(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, unlocked)

	_, err = f.ledger.SyncAchievements(ctx, uuid.Nil)
	require.ErrorIs(t, err, apperror.ErrInvalidInput)
}

type grantFunc = func(tx *gorm.DB, achievement entity.Achievement) error

type evaluatorFunc func(ctx context.Context, userID uuid.UUID, grant grantFunc) ([]entity.Achievement, error)

func (f evaluatorFunc) Evaluate(ctx context.Context, userID uuid.UUID, grant grantFunc) ([]entity.Achievement, error) {
	return f(ctx, userID, grant)
}

func TestPartialEvaluationStillGrantsRewards(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	var f fixture
	evaluator := evaluatorFunc(func(ctx context.Context, userID uuid.UUID, grant grantFunc) ([]entity.Achievement, error) {
		calls++
		achievement := entity.Achievement{ID: 1, Name: "First Post", PointsReward: 10}
		if err := f.db.Transaction(func(tx *gorm.DB) error { return grant(tx, achievement) }); err != nil {
			return nil, err
		}
		return []entity.Achievement{achievement}, boom
	})

	f = newFixture(t, evaluator)
	ctx := context.Background()
	userID := testutil.CreateUser(t, f.db, "partial")

	unlocked, err := f.ledger.RecordTransaction(ctx, post(userID))
	require.ErrorIs(t, err, boom)
	require.Len(t, unlocked, 1)
	require.Equal(t, 1, calls)

	score := f.requireLedgerMatchesScore(t, userID)
	require.Equal(t, 30, score.Points)
}

func TestListTransactionsNewestFirstAndClamped(t *testing.T) {
	f := newFixture(t, evaluatorFunc(func(context.Context, uuid.UUID, grantFunc) ([]entity.Achievement, error) {
		return nil, nil
	}))
	ctx := context.Background()
	userID := testutil.CreateUser(t, f.db, "history")

	for i := 1; i <= 3; i++ {
		_, err := f.ledger.RecordTransaction(ctx, Transaction{UserID: userID, ActionType: entity.ActionBonus, Points: i})
		require.NoError(t, err)
	}

	transactions, err := f.ledger.ListTransactions(ctx, userID, 2)
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	require.Equal(t, 3, transactions[0].PointsEarned)
	require.Equal(t, 2, transactions[1].PointsEarned)

	transactions, err = f.ledger.ListTransactions(ctx, userID, MaxListLimit+50)
	require.NoError(t, err)
	require.Len(t, transactions, 3)
}

func achievementNames(achievements []entity.Achievement) []string {
	out := make([]string, 0, len(achievements))
	for _, a := range achievements {
		out = append(out, a.Name)
	}
	return out
}
