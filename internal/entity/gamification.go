package entity

import (
	"time"

	"github.com/google/uuid"
)

// ActionType identifies what earned (or, for revoke types, cost) points.
type ActionType string

const (
	ActionCreatePost     ActionType = "CREATE_POST"
	ActionReceiveLike    ActionType = "RECEIVE_LIKE"
	ActionReceiveComment ActionType = "RECEIVE_COMMENT"
	ActionGiveLike       ActionType = "GIVE_LIKE"
	ActionGiveComment    ActionType = "GIVE_COMMENT"
	ActionBonus          ActionType = "BONUS"
	ActionAchievement    ActionType = "ACHIEVEMENT"

	// Only recorded when symmetric unlike accounting is enabled.
	ActionRevokeGiveLike    ActionType = "REVOKE_GIVE_LIKE"
	ActionRevokeReceiveLike ActionType = "REVOKE_RECEIVE_LIKE"
)

// ActionTypes lists every action type in declaration order.
var ActionTypes = []ActionType{
	ActionCreatePost,
	ActionReceiveLike,
	ActionReceiveComment,
	ActionGiveLike,
	ActionGiveComment,
	ActionBonus,
	ActionAchievement,
	ActionRevokeGiveLike,
	ActionRevokeReceiveLike,
}

func (a ActionType) Valid() bool {
	for _, known := range ActionTypes {
		if a == known {
			return true
		}
	}
	return false
}

// CriteriaType names the UserScore counter an achievement threshold is compared with.
type CriteriaType string

const (
	CriteriaPostsCount       CriteriaType = "POSTS_COUNT"
	CriteriaLikesReceived    CriteriaType = "LIKES_RECEIVED"
	CriteriaCommentsReceived CriteriaType = "COMMENTS_RECEIVED"
	CriteriaLevelReached     CriteriaType = "LEVEL_REACHED"
	CriteriaStreakDays       CriteriaType = "STREAK_DAYS"
)

func (c CriteriaType) Valid() bool {
	switch c {
	case CriteriaPostsCount, CriteriaLikesReceived, CriteriaCommentsReceived, CriteriaLevelReached, CriteriaStreakDays:
		return true
	}
	return false
}

// PointTransaction is an immutable ledger row.
type PointTransaction struct {
	ID            int64      `gorm:"primaryKey;autoIncrement:false" json:"id,string"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_point_tx_user_date,priority:1" json:"user_id"`
	User          User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ActionType    ActionType `gorm:"size:32;not null" json:"action_type"`
	PointsEarned  int        `gorm:"not null" json:"points_earned"`
	Description   string     `gorm:"type:text" json:"description"`
	RelatedPostID *uuid.UUID `gorm:"type:uuid" json:"related_post_id,omitempty"`
	RelatedUserID *uuid.UUID `gorm:"type:uuid" json:"related_user_id,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;index:idx_point_tx_user_date,priority:2" json:"created_at"`
}

func (PointTransaction) TableName() string {
	return "point_transactions"
}

// UserScore is the per-user aggregate derived from the ledger.
type UserScore struct {
	UserID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User                  User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Points                int       `gorm:"not null;default:0;index" json:"points"`
	Level                 int       `gorm:"not null;default:1" json:"level"`
	TotalPosts            int       `gorm:"not null;default:0" json:"total_posts"`
	TotalLikesReceived    int       `gorm:"not null;default:0" json:"total_likes_received"`
	TotalCommentsReceived int       `gorm:"not null;default:0" json:"total_comments_received"`
	TotalLikesGiven       int       `gorm:"not null;default:0" json:"total_likes_given"`
	TotalCommentsGiven    int       `gorm:"not null;default:0" json:"total_comments_given"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserScore) TableName() string {
	return "user_scores"
}

// Achievement is a catalog entry. Entries dropped from a reloaded catalog are
// kept inactive so earned rows still resolve.
type Achievement struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Name          string       `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description   string       `gorm:"type:text" json:"description"`
	Icon          string       `gorm:"size:16" json:"icon"`
	PointsReward  int          `gorm:"not null;default:0" json:"points_reward"`
	CriteriaType  CriteriaType `gorm:"size:32;not null" json:"criteria_type"`
	CriteriaValue int          `gorm:"not null" json:"criteria_value"`
	SortOrder     int          `gorm:"not null;default:0" json:"-"`
	Active        bool         `gorm:"not null;default:true;index" json:"-"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"-"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// UserAchievement is unique per (user, achievement); the index is what makes
// awarding idempotent under concurrent evaluation.
type UserAchievement struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement,priority:1" json:"user_id"`
	User          User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AchievementID uint        `gorm:"not null;uniqueIndex:idx_user_achievement,priority:2" json:"achievement_id"`
	Achievement   Achievement `gorm:"foreignKey:AchievementID" json:"achievement"`
	EarnedAt      time.Time   `gorm:"not null" json:"earned_at"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}

// LeaderboardEntry is one row of a monthly snapshot.
type LeaderboardEntry struct {
	ID               uint      `gorm:"primaryKey" json:"-"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_leaderboard_user_month,priority:1" json:"user_id"`
	User             User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	MonthYear        string    `gorm:"size:7;not null;uniqueIndex:idx_leaderboard_user_month,priority:2;index:idx_leaderboard_month_rank,priority:1" json:"month_year"`
	TotalPoints      int       `gorm:"not null" json:"total_points"`
	PostsCount       int       `gorm:"not null" json:"posts_count"`
	LikesReceived    int       `gorm:"not null" json:"likes_received"`
	CommentsReceived int       `gorm:"not null" json:"comments_received"`
	RankPosition     int       `gorm:"not null;index:idx_leaderboard_month_rank,priority:2" json:"rank_position"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"-"`
}

func (LeaderboardEntry) TableName() string {
	return "monthly_leaderboard"
}
