package dto

import (
	"planetpulse.com/gamification/internal/entity"

	"github.com/google/uuid"
)

// LeaderboardEntry represents a single user entry in the leaderboard.
// Rank is the 1-based position in the month's ranking.
type LeaderboardEntry struct {
	Rank             int       `json:"rank"`
	UserID           uuid.UUID `json:"user_id"`
	Username         string    `json:"username"`
	TotalPoints      int       `json:"total_points"`
	PostsCount       int       `json:"posts_count"`
	LikesReceived    int       `json:"likes_received"`
	CommentsReceived int       `json:"comments_received"`
}

type LeaderboardResponse struct {
	MonthYear    string             `json:"month_year"`
	CurrentMonth string             `json:"current_month"`
	Entries      []LeaderboardEntry `json:"entries"`
}

type LeaderboardQuery struct {
	MonthYear string `form:"month_year" binding:"omitempty,month_year"`
}

type RebuildResponse struct {
	MonthYear string `json:"month_year"`
}

func NewLeaderboardEntries(rows []entity.LeaderboardEntry) []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, LeaderboardEntry{
			Rank:             row.RankPosition,
			UserID:           row.UserID,
			Username:         row.User.Username,
			TotalPoints:      row.TotalPoints,
			PostsCount:       row.PostsCount,
			LikesReceived:    row.LikesReceived,
			CommentsReceived: row.CommentsReceived,
		})
	}
	return out
}
