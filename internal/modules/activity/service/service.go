package service

import (
	"context"
	"fmt"
	"html"

	"planetpulse.com/gamification/internal/entity"
	ledgerService "planetpulse.com/gamification/internal/modules/ledger/service"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// Points granted per action.
const (
	PointsCreatePost     = 20
	PointsReceiveLike    = 2
	PointsReceiveComment = 5
	PointsGiveLike       = 1
	PointsGiveComment    = 3
	PointsBonus          = 10
)

const maxTitleLength = 120

// ActivityService turns content events into ledger transactions. Every hook
// returns the achievements the event unlocked across all affected users.
type ActivityService interface {
	OnPostCreated(ctx context.Context, authorID, postID uuid.UUID, title string) ([]entity.Achievement, error)
	OnLikeGiven(ctx context.Context, likerID, postID, postAuthorID uuid.UUID) ([]entity.Achievement, error)
	OnCommentGiven(ctx context.Context, commenterID, postID, postAuthorID uuid.UUID) ([]entity.Achievement, error)
	// OnLikeRemoved only records anything when symmetric unlike accounting is
	// enabled.
	OnLikeRemoved(ctx context.Context, likerID, postID, postAuthorID uuid.UUID) ([]entity.Achievement, error)
	AwardBonus(ctx context.Context, userID uuid.UUID, reason string) ([]entity.Achievement, error)
}

type activityService struct {
	ledger          ledgerService.LedgerService
	symmetricUnlike bool
	policy          *bluemonday.Policy
}

func NewActivityService(ledger ledgerService.LedgerService, symmetricUnlike bool) ActivityService {
	return &activityService{
		ledger:          ledger,
		symmetricUnlike: symmetricUnlike,
		policy:          bluemonday.StrictPolicy(),
	}
}

func (s *activityService) OnPostCreated(ctx context.Context, authorID, postID uuid.UUID, title string) ([]entity.Achievement, error) {
	return s.ledger.RecordTransaction(ctx, ledgerService.Transaction{
		UserID:        authorID,
		ActionType:    entity.ActionCreatePost,
		Points:        PointsCreatePost,
		Description:   fmt.Sprintf("Created post: %s", s.cleanTitle(title)),
		RelatedPostID: &postID,
	})
}

func (s *activityService) OnLikeGiven(ctx context.Context, likerID, postID, postAuthorID uuid.UUID) ([]entity.Achievement, error) {
	return s.recordPair(ctx,
		ledgerService.Transaction{
			UserID:        likerID,
			ActionType:    entity.ActionGiveLike,
			Points:        PointsGiveLike,
			Description:   "Liked a post",
			RelatedPostID: &postID,
			RelatedUserID: &postAuthorID,
		},
		ledgerService.Transaction{
			UserID:        postAuthorID,
			ActionType:    entity.ActionReceiveLike,
			Points:        PointsReceiveLike,
			Description:   "Received a like",
			RelatedPostID: &postID,
			RelatedUserID: &likerID,
		},
	)
}

func (s *activityService) OnCommentGiven(ctx context.Context, commenterID, postID, postAuthorID uuid.UUID) ([]entity.Achievement, error) {
	return s.recordPair(ctx,
		ledgerService.Transaction{
			UserID:        commenterID,
			ActionType:    entity.ActionGiveComment,
			Points:        PointsGiveComment,
			Description:   "Commented on a post",
			RelatedPostID: &postID,
			RelatedUserID: &postAuthorID,
		},
		ledgerService.Transaction{
			UserID:        postAuthorID,
			ActionType:    entity.ActionReceiveComment,
			Points:        PointsReceiveComment,
			Description:   "Received a comment",
			RelatedPostID: &postID,
			RelatedUserID: &commenterID,
		},
	)
}

func (s *activityService) OnLikeRemoved(ctx context.Context, likerID, postID, postAuthorID uuid.UUID) ([]entity.Achievement, error) {
	if !s.symmetricUnlike {
		return nil, nil
	}
	return s.recordPair(ctx,
		ledgerService.Transaction{
			UserID:        likerID,
			ActionType:    entity.ActionRevokeGiveLike,
			Points:        -PointsGiveLike,
			Description:   "Removed a like",
			RelatedPostID: &postID,
			RelatedUserID: &postAuthorID,
		},
		ledgerService.Transaction{
			UserID:        postAuthorID,
			ActionType:    entity.ActionRevokeReceiveLike,
			Points:        -PointsReceiveLike,
			Description:   "Lost a like",
			RelatedPostID: &postID,
			RelatedUserID: &likerID,
		},
	)
}

func (s *activityService) AwardBonus(ctx context.Context, userID uuid.UUID, reason string) ([]entity.Achievement, error) {
	description := "Bonus points"
	if reason = s.cleanTitle(reason); reason != "" {
		description = fmt.Sprintf("Bonus: %s", reason)
	}
	return s.ledger.RecordTransaction(ctx, ledgerService.Transaction{
		UserID:      userID,
		ActionType:  entity.ActionBonus,
		Points:      PointsBonus,
		Description: description,
	})
}

// recordPair records the actor's transaction and, unless the actor acted on
// their own post, the author's.
func (s *activityService) recordPair(ctx context.Context, actor, author ledgerService.Transaction) ([]entity.Achievement, error) {
	unlocked, err := s.ledger.RecordTransaction(ctx, actor)
	if err != nil {
		return unlocked, err
	}
	if author.UserID == actor.UserID {
		return unlocked, nil
	}

	more, err := s.ledger.RecordTransaction(ctx, author)
	return append(unlocked, more...), err
}

// cleanTitle strips markup from user supplied text before it lands in the
// ledger. The ledger holds plain text, so entities left by the policy are
// decoded again.
func (s *activityService) cleanTitle(title string) string {
	clean := html.UnescapeString(s.policy.Sanitize(title))
	if runes := []rune(clean); len(runes) > maxTitleLength {
		clean = string(runes[:maxTitleLength])
	}
	return clean
}
