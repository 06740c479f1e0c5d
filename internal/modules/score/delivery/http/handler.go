package http

import (
	"net/http"

	scoreDto "planetpulse.com/gamification/internal/modules/score/dto"
	scoreService "planetpulse.com/gamification/internal/modules/score/service"
	"planetpulse.com/gamification/pkg/apperror"
	"planetpulse.com/gamification/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ScoreHandler struct {
	service scoreService.ScoreService
}

func NewScoreHandler(service scoreService.ScoreService) *ScoreHandler {
	return &ScoreHandler{service: service}
}

func (h *ScoreHandler) GetUserPoints(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.ResponseError(c, apperror.Invalid("user_id must be a uuid"))
		return
	}

	score, err := h.service.GetScore(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": scoreDto.NewScoreResponse(userID, score)})
}

// GetMySummary returns the caller's score, level progress and achievements.
func (h *ScoreHandler) GetMySummary(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	summary, err := h.service.GetSummary(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}
