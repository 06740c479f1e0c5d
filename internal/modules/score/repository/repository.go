package repository

import (
	"context"
	"fmt"
	"time"

	"planetpulse.com/gamification/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ScoreRepository interface {
	// WithTx binds the repository to an open transaction.
	WithTx(tx *gorm.DB) ScoreRepository
	// ApplyDelta adds points and moves the action's counter with store-side
	// relative updates, creating the row on first use, then recomputes level.
	// at becomes updated_at on both the insert and the update path.
	ApplyDelta(ctx context.Context, userID uuid.UUID, action entity.ActionType, points int, at time.Time) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.UserScore, error)
	// ListOrderedByPoints ranks by points. Ties go to whoever reached the total
	// first, then to user id.
	ListOrderedByPoints(ctx context.Context) ([]entity.UserScore, error)
}

type counterUpdate struct {
	column string
	delta  int
	apply  func(score *entity.UserScore, delta int)
}

// counterUpdates is keyed by every action type. An empty column means the
// action only changes points.
var counterUpdates = map[entity.ActionType]counterUpdate{
	entity.ActionCreatePost: {
		column: "total_posts", delta: 1,
		apply: func(s *entity.UserScore, d int) { s.TotalPosts += d },
	},
	entity.ActionReceiveLike: {
		column: "total_likes_received", delta: 1,
		apply: func(s *entity.UserScore, d int) { s.TotalLikesReceived += d },
	},
	entity.ActionReceiveComment: {
		column: "total_comments_received", delta: 1,
		apply: func(s *entity.UserScore, d int) { s.TotalCommentsReceived += d },
	},
	entity.ActionGiveLike: {
		column: "total_likes_given", delta: 1,
		apply: func(s *entity.UserScore, d int) { s.TotalLikesGiven += d },
	},
	entity.ActionGiveComment: {
		column: "total_comments_given", delta: 1,
		apply: func(s *entity.UserScore, d int) { s.TotalCommentsGiven += d },
	},
	entity.ActionRevokeGiveLike: {
		column: "total_likes_given", delta: -1,
		apply: func(s *entity.UserScore, d int) { s.TotalLikesGiven += d },
	},
	entity.ActionRevokeReceiveLike: {
		column: "total_likes_received", delta: -1,
		apply: func(s *entity.UserScore, d int) { s.TotalLikesReceived += d },
	},
	entity.ActionBonus:       {},
	entity.ActionAchievement: {},
}

type scoreRepository struct {
	db             *gorm.DB
	pointsPerLevel int
}

func NewScoreRepository(db *gorm.DB, pointsPerLevel int) ScoreRepository {
	return &scoreRepository{db: db, pointsPerLevel: pointsPerLevel}
}

func (r *scoreRepository) WithTx(tx *gorm.DB) ScoreRepository {
	return &scoreRepository{db: tx, pointsPerLevel: r.pointsPerLevel}
}

func (r *scoreRepository) ApplyDelta(ctx context.Context, userID uuid.UUID, action entity.ActionType, points int, at time.Time) error {
	update, ok := counterUpdates[action]
	if !ok {
		return fmt.Errorf("no counter mapping for action type %q", action)
	}

	at = at.UTC()
	initial := &entity.UserScore{
		UserID:    userID,
		Points:    points,
		Level:     1,
		UpdatedAt: at,
	}
	assignments := map[string]interface{}{
		"points":     gorm.Expr("user_scores.points + ?", points),
		"updated_at": at,
	}
	if update.column != "" {
		update.apply(initial, update.delta)
		assignments[update.column] = gorm.Expr("user_scores."+update.column+" + ?", update.delta)
	}

	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Omit("User").Create(initial).Error
	if err != nil {
		return err
	}

	// Level always follows the stored total, whatever order increments land in.
	return db.Model(&entity.UserScore{}).
		Where("user_id = ?", userID).
		UpdateColumn("level", gorm.Expr("CASE WHEN points > 0 THEN points / ? + 1 ELSE 1 END", r.pointsPerLevel)).Error
}

func (r *scoreRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.UserScore, error) {
	// Use Find with slice to avoid "record not found" log noise from GORM's First()
	var scores []entity.UserScore
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&scores).Error
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, nil
	}
	return &scores[0], nil
}

func (r *scoreRepository) ListOrderedByPoints(ctx context.Context) ([]entity.UserScore, error) {
	var scores []entity.UserScore
	err := r.db.WithContext(ctx).
		Order("points DESC").
		Order("updated_at ASC").
		Order("user_id ASC").
		Find(&scores).Error
	return scores, err
}
