package http

import (
	"net/http"

	leaderboardDto "planetpulse.com/gamification/internal/modules/leaderboard/dto"
	leaderboardService "planetpulse.com/gamification/internal/modules/leaderboard/service"
	"planetpulse.com/gamification/pkg/apperror"
	"planetpulse.com/gamification/pkg/response"
	"planetpulse.com/gamification/pkg/validator"

	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	service leaderboardService.LeaderboardService
}

func NewLeaderboardHandler(service leaderboardService.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	var query leaderboardDto.LeaderboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ResponseError(c, apperror.Invalid(validator.FormatValidationError(err)))
		return
	}

	leaderboard, err := h.service.GetLeaderboard(c.Request.Context(), query.MonthYear)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": leaderboard})
}

// Rebuild forces a rebuild of the current month's snapshot.
func (h *LeaderboardHandler) Rebuild(c *gin.Context) {
	monthYear, err := h.service.RebuildCurrentMonth(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": leaderboardDto.RebuildResponse{MonthYear: monthYear}})
}
