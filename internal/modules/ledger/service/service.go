package service

import (
	"context"
	"fmt"
	"time"

	"planetpulse.com/gamification/internal/entity"
	ledgerRepo "planetpulse.com/gamification/internal/modules/ledger/repository"
	scoreRepo "planetpulse.com/gamification/internal/modules/score/repository"
	"planetpulse.com/gamification/pkg/apperror"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Transaction is a point change to record for one user.
type Transaction struct {
	UserID        uuid.UUID
	ActionType    entity.ActionType
	Points        int
	Description   string
	RelatedPostID *uuid.UUID
	RelatedUserID *uuid.UUID
}

// Evaluator awards achievements a user newly qualifies for. grant runs inside
// the store transaction that inserts each award; an error from it rolls the
// award back.
type Evaluator interface {
	Evaluate(ctx context.Context, userID uuid.UUID, grant func(tx *gorm.DB, achievement entity.Achievement) error) ([]entity.Achievement, error)
}

type LedgerService interface {
	// RecordTransaction appends t, applies it to the user's score and grants
	// the reward of every achievement unlocked as a result, repeating until no
	// further achievement unlocks. It returns the unlocked achievements.
	RecordTransaction(ctx context.Context, t Transaction) ([]entity.Achievement, error)
	// SyncAchievements runs the unlock loop without recording a new action.
	SyncAchievements(ctx context.Context, userID uuid.UUID) ([]entity.Achievement, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]entity.PointTransaction, error)
}

type ledgerService struct {
	db           *gorm.DB
	transactions ledgerRepo.TransactionRepository
	scores       scoreRepo.ScoreRepository
	evaluator    Evaluator
	node         *snowflake.Node
	now          func() time.Time
	log          *zap.Logger
}

func NewLedgerService(
	db *gorm.DB,
	transactions ledgerRepo.TransactionRepository,
	scores scoreRepo.ScoreRepository,
	evaluator Evaluator,
	node *snowflake.Node,
	now func() time.Time,
	log *zap.Logger,
) LedgerService {
	if now == nil {
		now = time.Now
	}
	return &ledgerService{
		db:           db,
		transactions: transactions,
		scores:       scores,
		evaluator:    evaluator,
		node:         node,
		now:          now,
		log:          log.Named("ledger"),
	}
}

func (s *ledgerService) RecordTransaction(ctx context.Context, t Transaction) ([]entity.Achievement, error) {
	if t.UserID == uuid.Nil {
		return nil, apperror.Invalid("user id is required")
	}
	if !t.ActionType.Valid() {
		return nil, apperror.Invalid(fmt.Sprintf("unknown action type %q", t.ActionType))
	}

	if err := s.append(ctx, t); err != nil {
		return nil, err
	}
	return s.unlockAchievements(ctx, t.UserID)
}

func (s *ledgerService) SyncAchievements(ctx context.Context, userID uuid.UUID) ([]entity.Achievement, error) {
	if userID == uuid.Nil {
		return nil, apperror.Invalid("user id is required")
	}
	return s.unlockAchievements(ctx, userID)
}

func (s *ledgerService) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]entity.PointTransaction, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	transactions, err := s.transactions.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperror.Store("list point transactions", err)
	}
	return transactions, nil
}

// append writes the ledger row and the score delta in one store transaction.
func (s *ledgerService) append(ctx context.Context, t Transaction) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.write(ctx, tx, t)
	})
	if err != nil {
		return apperror.Store("record transaction", err)
	}
	return nil
}

// write records t on tx. The ledger row and the score share one timestamp.
func (s *ledgerService) write(ctx context.Context, tx *gorm.DB, t Transaction) error {
	row := &entity.PointTransaction{
		ID:            s.node.Generate().Int64(),
		UserID:        t.UserID,
		ActionType:    t.ActionType,
		PointsEarned:  t.Points,
		Description:   t.Description,
		RelatedPostID: t.RelatedPostID,
		RelatedUserID: t.RelatedUserID,
		CreatedAt:     s.now().UTC(),
	}

	if err := s.transactions.WithTx(tx).Create(ctx, row); err != nil {
		return fmt.Errorf("insert point transaction: %w", err)
	}
	if err := s.scores.WithTx(tx).ApplyDelta(ctx, t.UserID, t.ActionType, t.Points, row.CreatedAt); err != nil {
		return fmt.Errorf("apply score delta: %w", err)
	}

	s.log.Debug("points recorded",
		zap.Int64("transaction_id", row.ID),
		zap.String("user_id", t.UserID.String()),
		zap.String("action_type", string(t.ActionType)),
		zap.Int("points", t.Points),
	)
	return nil
}

// unlockAchievements evaluates the user until an evaluation unlocks nothing.
// Each award commits together with its ACHIEVEMENT transaction. Each
// achievement is awarded at most once per user, so the loop ends after at most
// one pass per catalog entry.
func (s *ledgerService) unlockAchievements(ctx context.Context, userID uuid.UUID) ([]entity.Achievement, error) {
	grant := func(tx *gorm.DB, achievement entity.Achievement) error {
		return s.write(ctx, tx, Transaction{
			UserID:      userID,
			ActionType:  entity.ActionAchievement,
			Points:      achievement.PointsReward,
			Description: fmt.Sprintf("Achievement unlocked: %s", achievement.Name),
		})
	}

	var unlocked []entity.Achievement
	for {
		awarded, err := s.evaluator.Evaluate(ctx, userID, grant)
		// Awards committed before a failure keep their rewards.
		unlocked = append(unlocked, awarded...)
		if err != nil {
			return unlocked, err
		}
		if len(awarded) == 0 {
			return unlocked, nil
		}
	}
}
