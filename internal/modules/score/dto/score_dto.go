package dto

import (
	"time"

	"planetpulse.com/gamification/internal/entity"

	"github.com/google/uuid"
)

type ScoreResponse struct {
	UserID                uuid.UUID  `json:"user_id"`
	Points                int        `json:"points"`
	Level                 int        `json:"level"`
	TotalPosts            int        `json:"total_posts"`
	TotalLikesReceived    int        `json:"total_likes_received"`
	TotalCommentsReceived int        `json:"total_comments_received"`
	TotalLikesGiven       int        `json:"total_likes_given"`
	TotalCommentsGiven    int        `json:"total_comments_given"`
	UpdatedAt             *time.Time `json:"updated_at,omitempty"`
}

// NewScoreResponse renders a score. A nil score is a user with no recorded
// activity yet.
func NewScoreResponse(userID uuid.UUID, score *entity.UserScore) ScoreResponse {
	if score == nil {
		return ScoreResponse{UserID: userID, Level: 1}
	}
	updatedAt := score.UpdatedAt
	return ScoreResponse{
		UserID:                score.UserID,
		Points:                score.Points,
		Level:                 score.Level,
		TotalPosts:            score.TotalPosts,
		TotalLikesReceived:    score.TotalLikesReceived,
		TotalCommentsReceived: score.TotalCommentsReceived,
		TotalLikesGiven:       score.TotalLikesGiven,
		TotalCommentsGiven:    score.TotalCommentsGiven,
		UpdatedAt:             &updatedAt,
	}
}

type EarnedAchievement struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Icon         string    `json:"icon"`
	PointsReward int       `json:"points_reward"`
	EarnedAt     time.Time `json:"earned_at"`
}

func NewEarnedAchievements(rows []entity.UserAchievement) []EarnedAchievement {
	out := make([]EarnedAchievement, 0, len(rows))
	for _, row := range rows {
		out = append(out, EarnedAchievement{
			ID:           row.Achievement.ID,
			Name:         row.Achievement.Name,
			Description:  row.Achievement.Description,
			Icon:         row.Achievement.Icon,
			PointsReward: row.Achievement.PointsReward,
			EarnedAt:     row.EarnedAt,
		})
	}
	return out
}

// LevelStatus describes where a point total sits inside its level.
type LevelStatus struct {
	Level           int     `json:"level"`
	CurrentPoints   int     `json:"current_points"`
	LevelFloor      int     `json:"level_floor"`       // Points at which the current level started
	NextLevelPoints int     `json:"next_level_points"` // Points needed for the next level
	PointsToNext    int     `json:"points_to_next"`
	Progress        float64 `json:"progress"` // Progress percentage inside the level (0-100)
}

type SummaryResponse struct {
	Score        ScoreResponse       `json:"score"`
	LevelStatus  LevelStatus         `json:"level_status"`
	Achievements []EarnedAchievement `json:"achievements"`
}
