package dto

import (
	"strconv"
	"time"

	"planetpulse.com/gamification/internal/entity"

	"github.com/google/uuid"
)

type TransactionResponse struct {
	ID            string            `json:"id"`
	ActionType    entity.ActionType `json:"action_type"`
	PointsEarned  int               `json:"points_earned"`
	Description   string            `json:"description"`
	RelatedPostID *uuid.UUID        `json:"related_post_id,omitempty"`
	RelatedUserID *uuid.UUID        `json:"related_user_id,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

func NewTransactionResponses(rows []entity.PointTransaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, TransactionResponse{
			// Snowflake IDs exceed the integer range of JSON clients.
			ID:            strconv.FormatInt(row.ID, 10),
			ActionType:    row.ActionType,
			PointsEarned:  row.PointsEarned,
			Description:   row.Description,
			RelatedPostID: row.RelatedPostID,
			RelatedUserID: row.RelatedUserID,
			CreatedAt:     row.CreatedAt,
		})
	}
	return out
}

// AchievementUnlocked is returned by calls that may unlock achievements.
type AchievementUnlocked struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Icon         string `json:"icon"`
	PointsReward int    `json:"points_reward"`
}

func NewAchievementsUnlocked(achievements []entity.Achievement) []AchievementUnlocked {
	out := make([]AchievementUnlocked, 0, len(achievements))
	for _, a := range achievements {
		out = append(out, AchievementUnlocked{
			ID:           a.ID,
			Name:         a.Name,
			Icon:         a.Icon,
			PointsReward: a.PointsReward,
		})
	}
	return out
}
