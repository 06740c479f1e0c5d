package http

import (
	"net/http"

	achievementDto "planetpulse.com/gamification/internal/modules/achievement/dto"
	achievementService "planetpulse.com/gamification/internal/modules/achievement/service"
	scoreDto "planetpulse.com/gamification/internal/modules/score/dto"
	"planetpulse.com/gamification/pkg/apperror"
	"planetpulse.com/gamification/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AchievementHandler struct {
	service achievementService.AchievementService
}

func NewAchievementHandler(service achievementService.AchievementService) *AchievementHandler {
	return &AchievementHandler{service: service}
}

// GetCatalog lists every achievement and marks the ones the caller has earned.
func (h *AchievementHandler) GetCatalog(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	ctx := c.Request.Context()
	catalog, err := h.service.Catalog(ctx)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	earned, err := h.service.ListEarned(ctx, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	earnedIDs := make(map[uint]struct{}, len(earned))
	for _, e := range earned {
		earnedIDs[e.AchievementID] = struct{}{}
	}

	c.JSON(http.StatusOK, gin.H{"data": achievementDto.NewCatalog(catalog, earnedIDs)})
}

func (h *AchievementHandler) GetUserAchievements(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.ResponseError(c, apperror.Invalid("user_id must be a uuid"))
		return
	}

	earned, err := h.service.ListEarned(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": scoreDto.NewEarnedAchievements(earned)})
}
